// Package logging bootstraps structured logging for the module. Library
// packages obtain component-scoped loggers through New; binaries call Init
// once to pick the level and output format.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init configures the process-wide default logger. Level accepts "debug",
// "info", "warn", or "error" (anything else means info); format is "json"
// or text. A nil writer logs to stderr.
func Init(level, format string, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// New returns a logger scoped to one component of the module.
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
