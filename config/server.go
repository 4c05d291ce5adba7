package config

import (
	"sync"
	"time"
)

var (
	serverOnce   sync.Once
	serverConfig *ServerConfig
)

// ServerConfig configures the upload receiver.
type ServerConfig struct {
	Port            string
	UploadDir       string
	ShutdownTimeout time.Duration
	LogLevel        string
}

func LoadServerConfig() *ServerConfig {
	loadEnv()
	return &ServerConfig{
		Port:            getenv("PORT", "3000"),
		UploadDir:       getenv("UPLOAD_DIR", "uploads"),
		ShutdownTimeout: time.Duration(getenvInt("SHUTDOWN_TIMEOUT_SECONDS", 5)) * time.Second,
		LogLevel:        getenv("LOG_LEVEL", "info"),
	}
}

func GetServerConfig() *ServerConfig {
	serverOnce.Do(func() {
		serverConfig = LoadServerConfig()
	})
	return serverConfig
}
