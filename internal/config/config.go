// Package config loads process-level configuration from the environment.
// Session-level settings (join timeout, league id) live in the store, not
// here.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	WorkerURL   string `env:"WORKER_URL,required,notEmpty"`
	OpsAddr     string `env:"OPS_ADDR" envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	// RequestID identifies this core process to the worker. Normally passed
	// as the first argument; the env var is a fallback for local runs.
	RequestID string `env:"REQUEST_ID"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
