// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"ivr-report/store"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds everything the CLI needs besides its flags.
type Config struct {
	Store store.Config
	Log   LogConfig

	ImportConcurrency int   `env:"IMPORT_CONCURRENCY" envDefault:"4" validate:"min=1,max=64"`
	ImportMaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" envDefault:"33554432" validate:"min=1"`
}

// LogConfig controls the zerolog setup.
type LogConfig struct {
	Level     string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format    string `env:"LOG_FORMAT" envDefault:"console" validate:"oneof=console json"`
	File      string `env:"LOG_FILE"`
	MaxSizeMB int    `env:"LOG_MAX_SIZE_MB" envDefault:"10" validate:"min=1"`
}

// Load reads the given .env files (default ".env") when present, then the
// environment, then validates the result. Variables already set in the
// environment win over .env values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
