// ABOUTME: Structured logger construction on top of zerolog
// ABOUTME: Console output for development, JSON otherwise, level from config
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Options controls logger construction.
type Options struct {
	// Format is "console" or "json".
	Format string
	// Level is trace, debug, info, warn, or error.
	Level string
	// Out defaults to stderr so command output on stdout stays clean.
	Out io.Writer
}

// New builds a zerolog logger.
func New(opts Options) zerolog.Logger {
	var w io.Writer = opts.Out
	if w == nil {
		w = os.Stderr
	}
	if opts.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	return zerolog.New(w).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
