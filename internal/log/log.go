// Package log provides structured logging for the kiosk services.
// It wraps slog and installs the result as the process default.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger *slog.Logger
	mu     sync.Mutex
)

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// New builds a logger writing to w. JSON output is used when json is true.
func New(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Init initializes the global logger with the specified level and makes it
// the slog default. GO_ENV=production switches to JSON output.
func Init(level string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	logger = New(os.Stdout, level, os.Getenv("GO_ENV") == "production")
	slog.SetDefault(logger)
	return logger
}

// L returns the global logger instance.
func L() *slog.Logger {
	mu.Lock()
	l := logger
	mu.Unlock()
	if l == nil {
		return Init("info")
	}
	return l
}

// Component returns the global logger tagged with a component name.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}

// Discard returns a logger that drops everything. Used by tests and by
// components constructed without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
