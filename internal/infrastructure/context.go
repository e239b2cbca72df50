package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

// NewTraceID returns a fresh UUID v4 trace ID.
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceID stores a trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID returns the context's trace ID, or "".
func TraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// EnsureTraceID attaches a generated trace ID when none is present.
func EnsureTraceID(ctx context.Context) context.Context {
	if TraceID(ctx) == "" {
		return WithTraceID(ctx, NewTraceID())
	}
	return ctx
}
