// Package requestctx carries per-request values that outlive the HTTP layer,
// so services and background work can tag their logs the same way.
package requestctx

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	actorKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

// WithActor records the acting user id for log correlation only; it is not
// an authorization source.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey, userID)
}

func Actor(ctx context.Context) string {
	if value, ok := ctx.Value(actorKey).(string); ok {
		return value
	}
	return ""
}

// Logger returns the default logger tagged with whatever of requestId and
// actorId the context carries.
func Logger(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if id := RequestID(ctx); id != "" {
		logger = logger.With("requestId", id)
	}
	if actor := Actor(ctx); actor != "" {
		logger = logger.With("actorId", actor)
	}
	return logger
}
