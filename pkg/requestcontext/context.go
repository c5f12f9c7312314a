// Package requestcontext provides HTTP-independent accessors for
// request-scoped values. Middleware sets them, services read them, and tests
// inject them without running the full middleware chain.
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	userHandleKey  struct{}
	requestTimeKey struct{}
)

// RequestID retrieves the request ID from the context, or "" if unset.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// UserHandle retrieves the authenticated contributor handle, or "" when the
// request is anonymous. Anonymous requests fall back to the handle supplied
// in the request body, then to "Anonymous".
func UserHandle(ctx context.Context) string {
	if h, ok := ctx.Value(userHandleKey{}).(string); ok {
		return h
	}
	return ""
}

// WithUserHandle injects a contributor handle into the context.
func WithUserHandle(ctx context.Context, handle string) context.Context {
	return context.WithValue(ctx, userHandleKey{}, handle)
}

// Now retrieves the request-scoped time, falling back to time.Now for
// non-HTTP contexts such as workers and tests that don't care.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed time into a context. Useful in tests.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
