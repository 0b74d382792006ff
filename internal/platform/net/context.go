// Package net provides request-scoped context helpers shared by transports
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const keySource ctxKey = "source"

// WithRequest annotates context with the request id and the inbound surface
// name (webhook, cron, task)
func WithRequest(ctx context.Context, reqID, source string) context.Context {
	if reqID != "" {
		// set chi RequestID so chimw.GetReqID can retrieve it
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if source != "" {
		ctx = context.WithValue(ctx, keySource, source)
	}
	return ctx
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// Source returns the inbound surface name on the context if present
func Source(ctx context.Context) string {
	if v, ok := ctx.Value(keySource).(string); ok {
		return v
	}
	return ""
}
