package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// WithRequestID stores a correlation identifier on the context. An empty id
// generates a new one.
func WithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the correlation identifier attached to ctx.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if rid, ok := RequestIDFromContext(ctx); ok {
		return logger.With(String(FieldCorrelationID, rid))
	}
	return logger
}
