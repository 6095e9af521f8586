package files

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	// KeyPrefix is prepended to generated keys.
	KeyPrefix string `mapstructure:"key_prefix"`
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:        60 * time.Second,
		MaxUploadBytes: 32 << 20,
		KeyPrefix:      "uploads/",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	return nil
}
