package config

import (
	"fmt"
	"sync"
)

var (
	textractOnce   sync.Once
	textractConfig *TextractConfig
)

type TextractConfig struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

func GetTextractConfig() *TextractConfig {
	textractOnce.Do(func() {
		loadEnv()
		textractConfig = &TextractConfig{
			Region:    getenv("AWS_REGION", ""),
			Endpoint:  getenv("AWS_ENDPOINT", ""),
			AccessKey: getenv("AWS_ACCESS_KEY", ""),
			SecretKey: getenv("AWS_SECRET_KEY", ""),
		}
	})
	return textractConfig
}

func (c *TextractConfig) Validate() error {
	if c.Region == "" || c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("%w: AWS_REGION, AWS_ACCESS_KEY and AWS_SECRET_KEY are required", ErrMissingCredentials)
	}
	return nil
}
