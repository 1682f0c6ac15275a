// Package shared holds request-scoped helpers used by the API handlers and
// middleware.
package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// ContextKey is the type of the API's context keys.
type ContextKey string

const (
	// LearnerIDContextKey carries the authenticated learner's id.
	LearnerIDContextKey ContextKey = "learnerID"

	// TraceIDKey carries the request's trace id.
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of random bytes in a trace id.
	TraceIDLength = 16
)

// WithLearnerID stores the authenticated learner in ctx.
func WithLearnerID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, LearnerIDContextKey, id)
}

// LearnerID returns the authenticated learner stored in ctx.
func LearnerID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(LearnerIDContextKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// SetTraceID adds a new trace id to ctx.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID returns the trace id in ctx, or "".
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand does not fail on supported platforms
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}
