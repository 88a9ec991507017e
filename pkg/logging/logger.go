// Package logging provides structured logging configuration for guard
// binaries.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration.
type Config struct {
	Level  string
	Pretty bool
}

// New builds a zerolog logger for the configuration. Unknown levels fall
// back to info.
func New(cfg Config) zerolog.Logger {
	var output io.Writer = os.Stderr
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// Setup installs the configured logger as the global zerolog logger.
func Setup(cfg Config) {
	logger := New(cfg)
	zerolog.SetGlobalLevel(logger.GetLevel())
	log.Logger = logger
}
