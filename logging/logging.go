// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"io"
	"os"
	"time"

	"ivr-report/config"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger writing to stderr, and also to a size-rotated file
// when cfg.File is set. Report output goes to stdout, so logs never mix with
// it.
func New(cfg config.LogConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with the console destination supplied by the caller.
func NewWithWriter(cfg config.LogConfig, console io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer = console
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
	}

	if cfg.File != "" {
		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSize, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		// The file always gets JSON.
		out = zerolog.MultiLevelWriter(out, fileWriter)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
