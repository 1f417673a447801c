package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Kernel    KernelConfig
	Debug     DebugConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Boot      BootConfig
}

// KernelConfig holds kernel settings for processes the binary creates.
type KernelConfig struct {
	SessionLimit int64         `envconfig:"KERNEL_SESSION_LIMIT" default:"0"`
	WaitTimeout  time.Duration `envconfig:"KERNEL_WAIT_TIMEOUT" default:"5s"`
}

// DebugConfig holds debug HTTP server configuration.
type DebugConfig struct {
	Addr    string `envconfig:"DEBUG_ADDR" default:"127.0.0.1:8090"`
	Enabled bool   `envconfig:"DEBUG_ENABLED" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// BootConfig points at the services registered at startup.
type BootConfig struct {
	Manifest string `envconfig:"BOOT_MANIFEST"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Kernel.SessionLimit < 0 {
		return nil, fmt.Errorf("KERNEL_SESSION_LIMIT must not be negative, got %d", cfg.Kernel.SessionLimit)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Kernel: KernelConfig{
			SessionLimit: 0,
			WaitTimeout:  5 * time.Second,
		},
		Debug: DebugConfig{
			Addr:    "127.0.0.1:8090",
			Enabled: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
