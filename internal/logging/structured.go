package logging

import (
	"io"
	"log/slog"
	"os"
)

// InitStructured reconfigures the operational logger based on format settings.
// format: "text" (default) or "json" (Loki/ELK compatible)
// level: "debug", "info", "warn", "error"
func InitStructured(format, level string) {
	InitStructuredTo(os.Stderr, format, level)
}

// InitStructuredTo is InitStructured writing to w.
func InitStructuredTo(w io.Writer, format, level string) {
	SetLevelFromString(level)
	opLogger.Store(newLogger(w, format))
}

// OpWithTrace returns the operational logger with trace context fields.
// traceID and spanID are injected as attributes when available.
func OpWithTrace(traceID, spanID string) *slog.Logger {
	l := opLogger.Load()
	if traceID == "" {
		return l
	}
	args := []any{"trace_id", traceID}
	if spanID != "" {
		args = append(args, "span_id", spanID)
	}
	return l.With(args...)
}
