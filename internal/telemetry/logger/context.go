package logger

import "context"

type contextKey string

const (
	loggerKey    contextKey = "snapwatch.logger"
	requestIDKey contextKey = "snapwatch.request_id"
	pollIDKey    contextKey = "snapwatch.poll_id"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithRequestID adds an HTTP request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithPollID adds a poll ID to the context.
func WithPollID(ctx context.Context, pollID string) context.Context {
	return context.WithValue(ctx, pollIDKey, pollID)
}

// PollIDFromContext extracts the poll ID from context.
func PollIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(pollIDKey).(string)
	return id
}

// L is FromContext enriched with the request and poll IDs found in ctx.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)

	if reqID := RequestIDFromContext(ctx); reqID != "" {
		l = l.With("request_id", reqID)
	}
	if pollID := PollIDFromContext(ctx); pollID != "" {
		l = l.With("poll_id", pollID)
	}

	return l
}
