package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all the necessary configuration for an App instance to run.
// Environment variables provide the defaults; CLI flags override them.
type Config struct {
	// SuitePath points at a single .hcl file or a directory of them.
	SuitePath string `env:"PREFLIGHT_SUITE"`
	// CheckID, when set, evaluates exactly one precondition instead of a
	// full sweep.
	CheckID string `env:"-"`

	LogFormat string `env:"PREFLIGHT_LOG_FORMAT" envDefault:"text"`
	LogLevel  string `env:"PREFLIGHT_LOG_LEVEL" envDefault:"info"`

	// Workers caps concurrent root evaluations in a sweep. 0 is unlimited.
	Workers int `env:"PREFLIGHT_WORKERS" envDefault:"10"`
	// StatusPort serves /health and /status over HTTP. 0 is disabled.
	StatusPort int `env:"PREFLIGHT_STATUS_PORT"`
	// WatchInterval re-runs the sweep periodically. 0 runs once and exits.
	WatchInterval time.Duration `env:"PREFLIGHT_WATCH_INTERVAL"`
}

// DefaultConfig returns a Config populated from the environment.
func DefaultConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment config: %w", err)
	}
	return cfg, nil
}

// NewConfig validates a populated Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SuitePath == "" {
		return nil, errors.New("SuitePath is a required configuration field and cannot be empty")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	return &cfg, nil
}
