// Package log sets up the shared slog configuration. Every binary calls
// Setup once; packages then log through the default slog logger with the
// component attribute attached.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a LOG_LEVEL string to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Setup installs a text handler on stdout as the default logger and returns
// a component-scoped logger for the calling binary.
func Setup(level slog.Level, component string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger.With("component", component)
}

// ForComponent returns a child of the default logger tagged with the
// component name. Useful for subsystems inside one binary.
func ForComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
