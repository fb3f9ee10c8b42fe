// Package observability carries per-build log context (build id, stage, variant)
// through context.Context so concurrent file workers log with the same keys.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docpipe/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	BuildID string
	Stage   string
	Variant string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithBuildID adds a build ID to the context.
func WithBuildID(ctx context.Context, buildID string) context.Context {
	lc := extractLogContext(ctx)
	lc.BuildID = buildID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage adds a stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	lc := extractLogContext(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

// WithVariant adds the output variant (python, javascript, langsmith, shared) to the context.
func WithVariant(ctx context.Context, variant string) context.Context {
	lc := extractLogContext(ctx)
	lc.Variant = variant
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if ctx == nil {
		return LogContext{}
	}
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.BuildID != "" {
		attrs = append(attrs, logfields.BuildID(lc.BuildID))
	}
	if lc.Stage != "" {
		attrs = append(attrs, logfields.Stage(lc.Stage))
	}
	if lc.Variant != "" {
		attrs = append(attrs, logfields.Variant(lc.Variant))
	}
	return attrs
}

// Logger returns base (or slog.Default) decorated with the context's log attributes.
// Useful for handing a pre-scoped logger to components that do not take a context.
func Logger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	attrs := getLogAttrs(ctx)
	if len(attrs) == 0 {
		return base
	}
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return base.With(args...)
}

func logAttrs(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, attrs []slog.Attr) {
	if logger == nil {
		logger = slog.Default()
	}
	all := append(getLogAttrs(ctx), attrs...)
	logger.LogAttrs(ctx, level, msg, all...)
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, logger, slog.LevelInfo, msg, attrs)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, logger, slog.LevelWarn, msg, attrs)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, logger, slog.LevelError, msg, attrs)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, logger, slog.LevelDebug, msg, attrs)
}
