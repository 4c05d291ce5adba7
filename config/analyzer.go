package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	BackendFormRecognizer = "formrecognizer"
	BackendTextract       = "textract"
)

// ErrMissingCredentials is returned when the selected analysis backend lacks
// its endpoint or key.
var ErrMissingCredentials = errors.New("document analysis credentials are not set")

var (
	analyzerOnce   sync.Once
	analyzerConfig *AnalyzerConfig
)

// AnalyzerConfig selects and configures the document analysis service.
type AnalyzerConfig struct {
	Backend string

	Endpoint     string
	APIKey       string
	ModelID      string
	APIVersion   string
	PollInterval time.Duration

	// MaxUploadBytes > 0 enables downscaling of images larger than the limit.
	MaxUploadBytes int64
	MaxDimension   int
}

// LoadAnalyzerConfig reads the analyzer settings from the environment.
func LoadAnalyzerConfig() *AnalyzerConfig {
	loadEnv()
	return &AnalyzerConfig{
		Backend:        strings.ToLower(getenv("ANALYZER_BACKEND", BackendFormRecognizer)),
		Endpoint:       getenv("AZURE_FORM_RECOGNIZER_ENDPOINT", ""),
		APIKey:         getenv("AZURE_FORM_RECOGNIZER_KEY", ""),
		ModelID:        getenv("AZURE_FORM_RECOGNIZER_MODEL", "prebuilt-document"),
		APIVersion:     getenv("AZURE_FORM_RECOGNIZER_API_VERSION", "2023-07-31"),
		PollInterval:   time.Duration(getenvInt("AZURE_FORM_RECOGNIZER_POLL_MS", 1000)) * time.Millisecond,
		MaxUploadBytes: int64(getenvInt("ANALYZER_MAX_UPLOAD_BYTES", 0)),
		MaxDimension:   getenvInt("ANALYZER_MAX_DIMENSION", 3000),
	}
}

// GetAnalyzerConfig returns the process-wide analyzer settings.
func GetAnalyzerConfig() *AnalyzerConfig {
	analyzerOnce.Do(func() {
		analyzerConfig = LoadAnalyzerConfig()
	})
	return analyzerConfig
}

// Validate checks that the selected backend has what it needs to start.
func (c *AnalyzerConfig) Validate() error {
	switch c.Backend {
	case BackendFormRecognizer:
		if c.Endpoint == "" || c.APIKey == "" {
			return fmt.Errorf("%w: AZURE_FORM_RECOGNIZER_ENDPOINT and AZURE_FORM_RECOGNIZER_KEY are required", ErrMissingCredentials)
		}
	case BackendTextract:
		return GetTextractConfig().Validate()
	default:
		return fmt.Errorf("unsupported analyzer backend: %s", c.Backend)
	}
	return nil
}
