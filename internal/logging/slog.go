// Package logging holds memo's operational logger and the lookup access log.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var (
	opLogger atomic.Pointer[slog.Logger]
	logLevel = new(slog.LevelVar)
)

func init() {
	logLevel.Set(slog.LevelInfo)
	opLogger.Store(newLogger(os.Stderr, "text"))
}

// Op returns the operational logger for daemon/infrastructure logs.
// Lookups are logged separately by AccessLog.
func Op() *slog.Logger {
	return opLogger.Load()
}

// SetLevel changes the log level for the operational logger.
func SetLevel(level slog.Level) {
	logLevel.Set(level)
}

// SetLevelFromString sets the log level from a string.
// Valid values: "debug", "info", "warn", "error". Anything else is ignored.
func SetLevelFromString(level string) {
	switch strings.ToLower(level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	}
}

func newLogger(w io.Writer, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
