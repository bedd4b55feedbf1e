// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets the values; services and collaborator clients read them:
//
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject a fixed clock with requestcontext.WithTime(ctx, fixedTime).
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	fileNumberKey  struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyFileNumber  = fileNumberKey{}
)

// RequestID retrieves the correlation ID, or "" if not set.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return v
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// FileNumber retrieves the claim file number under review, or "" if not set.
func FileNumber(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyFileNumber).(string); ok {
		return v
	}
	return ""
}

func WithFileNumber(ctx context.Context, fileNumber string) context.Context {
	return context.WithValue(ctx, ContextKeyFileNumber, fileNumber)
}

// Now returns the request-scoped time, falling back to time.Now().
// Every rule that depends on the calendar (model-year recency, capture-year
// window) reads the clock through here so one review sees one "now".
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
