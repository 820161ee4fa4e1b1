package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string
	Out        io.Writer
}

// DefaultConfig returns warn-level console logging on stderr, so builds
// stay quiet unless something needs attention.
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.WarnLevel,
		Format:     "console",
		TimeFormat: time.Kitchen,
		Out:        os.Stderr,
	}
}

// New creates a new zerolog logger with the given configuration
func New(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	var output io.Writer = out
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: cfg.TimeFormat,
		}
	}

	return zerolog.New(output).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
}

// ParseLevel converts a level name into a zerolog level. Unknown names
// yield ok == false.
func ParseLevel(s string) (zerolog.Level, bool) {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	}
	return zerolog.NoLevel, false
}

// ConfigFromEnv applies environment overrides to cfg.
// CSS_INJECTED_BY_JS_LOG_LEVEL: trace, debug, info, warn, error
// CSS_INJECTED_BY_JS_LOG_FORMAT: json, console
// CSS_INJECTED_BY_JS_DEBUG: any value forces debug level
func ConfigFromEnv(cfg Config) Config {
	if level, ok := ParseLevel(os.Getenv("CSS_INJECTED_BY_JS_LOG_LEVEL")); ok {
		cfg.Level = level
	}
	switch format := os.Getenv("CSS_INJECTED_BY_JS_LOG_FORMAT"); format {
	case "json", "console":
		cfg.Format = format
	}
	if os.Getenv("CSS_INJECTED_BY_JS_DEBUG") != "" && cfg.Level > zerolog.DebugLevel {
		cfg.Level = zerolog.DebugLevel
	}
	return cfg
}

// NewFromEnv creates a logger based on environment variables
func NewFromEnv() zerolog.Logger {
	return New(ConfigFromEnv(DefaultConfig()))
}
