// Package logging builds the slog loggers used across the tool.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects the handler for a new logger.
type Options struct {
	Level  string // debug, info, warn, error; unrecognized values mean info
	Format string // "text" or "json"
	Debug  bool   // forces level debug and adds source locations
}

// New creates a logger writing to stderr; stdout stays free for generated
// output and reports.
func New(opts Options) *slog.Logger {
	return NewWithWriter(opts, os.Stderr)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(opts Options, w io.Writer) *slog.Logger {
	level := ParseLevel(opts.Level)
	if opts.Debug {
		level = slog.LevelDebug
	}
	ho := &slog.HandlerOptions{Level: level, AddSource: opts.Debug}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(w, ho)
	} else {
		handler = slog.NewTextHandler(w, ho)
	}
	return slog.New(handler)
}

// ParseLevel converts a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
