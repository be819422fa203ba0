// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const requestIDKey contextKey = iota

// ContextWithRequestID returns a context carrying the request ID for
// downstream log correlation.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFrom extracts the request ID from the context, or "".
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns a logger annotated with the context's request ID when
// present. Use it in handlers so every line of one request correlates.
func FromContext(ctx context.Context) zerolog.Logger {
	l := Logger()
	if id := RequestIDFrom(ctx); id != "" {
		return l.With().Str("request_id", id).Logger()
	}
	return l
}
