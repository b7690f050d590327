package bloomdb

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with catalog-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithName adds a filter name field to the logger.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("name", name),
	}
}

// LogSave logs a save operation.
func (l *Logger) LogSave(ctx context.Context, name string, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "save completed",
		"name", name,
		"bytes", size,
	)
}

// LogLoad logs a load operation.
func (l *Logger) LogLoad(ctx context.Context, name string, f *Filter, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"name", name,
			"kind", KindOf(err).String(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "load completed",
		"name", name,
		"bits", f.BitCount(),
		"hashes", f.NumHashes(),
	)
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "delete completed",
		"name", name,
	)
}

// LogLoadAll logs a bulk load.
func (l *Logger) LogLoadAll(ctx context.Context, count int, err error) {
	if err != nil {
		l.WarnContext(ctx, "bulk load failed",
			"requested", count,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "bulk load completed",
		"count", count,
	)
}
