// Package logger provides structured logging for the risk model pipeline.
//
// It wraps zerolog with the conventions used throughout this codebase:
// components attach their own name via .With().Str("component", name), logs
// are leveled, and output can be switched between human-readable (pretty)
// and machine-readable (JSON) encoding depending on the environment.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls how the root logger is constructed.
type Config struct {
	Level  string // debug, info, warn, error (default: info)
	Pretty bool   // human-readable console output instead of JSON
}

// New builds a root zerolog.Logger from Config. Unknown levels fall back to
// info rather than failing startup over a typo in LOG_LEVEL.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var writer = os.Stdout
	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()

	if cfg.Pretty {
		console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		logger = zerolog.New(console).Level(level).With().Timestamp().Logger()
	}

	return logger
}

// Component returns a child logger scoped to a named component, matching the
// "component" field convention used across every package in this module.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
