package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger output
type Options struct {
	Level  string
	Format string // "json" or "pretty"
	Output io.Writer
}

// New creates a new zerolog logger with structured output
func New(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level := ParseLevel(opts.Level)

	// Use pretty console output in development
	if opts.Format == "pretty" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(level).
			With().
			Timestamp().
			Caller().
			Str("service", "qa-api").
			Logger()
	}

	// JSON output for production
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "qa-api").
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
