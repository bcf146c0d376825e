package common

import "context"

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// WithRequestID adds a per-receipt request ID to the context so downstream
// stages can correlate their log lines.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}
