// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// This package defines context keys and getter/setter functions for values that are
// typically set by middleware but consumed by services and outbound clients. By keeping
// this package free of net/http dependencies, services can import only what they need.
//
// Usage in services (read values):
//
//	editor := requestcontext.Editor(ctx)
//	callID := requestcontext.CorrelationID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithEditor(ctx, navIdent)
//	ctx = requestcontext.WithCorrelationID(ctx, callID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	editorKey        struct{}
	bearerTokenKey   struct{}
	requestIDKey     struct{}
	correlationIDKey struct{}
	requestTimeKey   struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyEditor        = editorKey{}
	ContextKeyBearerToken   = bearerTokenKey{}
	ContextKeyRequestID     = requestIDKey{}
	ContextKeyCorrelationID = correlationIDKey{}
	ContextKeyRequestTime   = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Case worker
// -----------------------------------------------------------------------------

// Editor retrieves the case worker ident (NAVident) of the authenticated caller.
// Returns an empty string if not set.
func Editor(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyEditor).(string); ok {
		return v
	}
	return ""
}

// WithEditor injects the case worker ident into the context.
func WithEditor(ctx context.Context, editor string) context.Context {
	return context.WithValue(ctx, ContextKeyEditor, editor)
}

// BearerToken retrieves the caller's access token for on-behalf-of calls.
func BearerToken(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyBearerToken).(string); ok {
		return v
	}
	return ""
}

// WithBearerToken injects the caller's access token into the context.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ContextKeyBearerToken, token)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// CorrelationID retrieves the Nav-Callid correlation id forwarded to downstream systems.
func CorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyCorrelationID).(string); ok {
		return v
	}
	return ""
}

// WithCorrelationID injects a correlation id into the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationID, id)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like workers and tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
