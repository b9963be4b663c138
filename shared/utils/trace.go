package utils

import (
	"context"

	"smokegomodule/shared/logging"

	"github.com/google/uuid"
)

// ContextKey type for trace context keys
type ContextKey string

const (
	// TraceIDKey is the context key for the run's trace ID
	TraceIDKey ContextKey = "traceId"

	// TraceIDHeader is the message header carrying the trace ID
	TraceIDHeader = "X-Trace-Id"
)

// GenerateTraceID creates a new random trace ID
func GenerateTraceID() string {
	return uuid.NewString()
}

// WithTraceID adds trace ID to context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID extracts trace ID from context
func GetTraceID(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	return traceID, ok && traceID != ""
}

// EnsureTraceID ensures context has a trace ID, creates one if missing
func EnsureTraceID(ctx context.Context) (context.Context, string) {
	if traceID, ok := GetTraceID(ctx); ok {
		return ctx, traceID
	}

	traceID := GenerateTraceID()
	return WithTraceID(ctx, traceID), traceID
}

// WithTraceLogger returns a logger with the context's trace ID as runId field
func WithTraceLogger(logger logging.Logger, ctx context.Context) logging.Logger {
	if traceID, ok := GetTraceID(ctx); ok {
		return logger.WithField("runId", traceID)
	}
	return logger
}
