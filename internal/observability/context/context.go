package context

import (
	"context"
	"strings"
)

type requestIDKey struct{}
type viewIDKey struct{}

// WithRequestID stores the inbound request id on ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

// WithViewID stores the view session id of the browser on ctx.
func WithViewID(ctx context.Context, viewID string) context.Context {
	viewID = strings.TrimSpace(viewID)
	if viewID == "" {
		return ctx
	}
	return context.WithValue(ctx, viewIDKey{}, viewID)
}

func ViewIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(viewIDKey{}).(string)
	return value
}
