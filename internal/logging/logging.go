// Package logging provides the structured logger shared by all backtar
// components. It is a thin layer over log/slog so callers pass key-value
// pairs and the output format (text or JSON) stays a config decision.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// New builds a Logger writing to stderr. Level is one of
// "debug", "info", "warn", "error"; format is "text" or "json".
// Unknown values fall back to info/text.
func New(level, format string) Logger {
	return NewWriter(os.Stderr, level, format)
}

// NewWriter is New with an explicit destination, used by tests.
func NewWriter(w io.Writer, level, format string) Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(h)
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
