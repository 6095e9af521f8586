package chat

import (
	"fmt"
	"time"
)

type Config struct {
	// FetchTimeout bounds reading both documents from the object store.
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

func DefaultConfig() *Config {
	return &Config{
		FetchTimeout:   30 * time.Second,
		MaxBodyBytes:   64 << 10,
		MaxUploadBytes: 32 << 20,
	}
}

func (c *Config) Validate() error {
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive")
	}
	if c.MaxBodyBytes <= 0 || c.MaxUploadBytes <= 0 {
		return fmt.Errorf("body limits must be positive")
	}
	return nil
}
