package log

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	LoggerContextKey ContextKey = "logger"
)

// FromContext extracts a logger from the context, falling back to the default
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// WithContext stores logger in ctx
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// LogProjectionGenerated logs the outcome of one engine run
func LogProjectionGenerated(ctx context.Context, logger *Logger, householdID int64, months, milestones int, startNW, endNW float64, cacheHit bool) {
	fields := NewFields().
		WithProjection(householdID, months, milestones, startNW, endNW).
		WithOperation(OpProject).
		ToSlice()
	fields = append(fields, FieldCacheHit, cacheHit)
	logger.InfoContext(ctx, "Projection generated", fields...)
}

// LogError logs an error with structured context
func LogError(ctx context.Context, logger *Logger, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	logger.ErrorContext(ctx, msg, fields.WithError(err).WithOperation(operation).ToSlice()...)
}
