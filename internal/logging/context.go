// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type scopeKey struct{}

// scope is what the request middleware attaches to a context.
type scope struct {
	requestID     string
	correlationID string
	logger        zerolog.Logger
}

// GenerateCorrelationID returns a short id for grouping log lines.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// GenerateRequestID returns a full UUID.
func GenerateRequestID() string {
	return uuid.New().String()
}

// WithRequest returns a context carrying requestID, a fresh correlation id
// and a logger that stamps both on every line. An empty requestID is
// replaced by a generated one.
func WithRequest(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		requestID = GenerateRequestID()
	}
	s := &scope{requestID: requestID, correlationID: GenerateCorrelationID()}
	s.logger = current().With().
		Str("request_id", s.requestID).
		Str("correlation_id", s.correlationID).
		Logger()
	return context.WithValue(ctx, scopeKey{}, s)
}

func scopeFrom(ctx context.Context) *scope {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(scopeKey{}).(*scope)
	return s
}

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	if s := scopeFrom(ctx); s != nil {
		return s.requestID
	}
	return ""
}

// CorrelationIDFromContext returns the correlation id, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	if s := scopeFrom(ctx); s != nil {
		return s.correlationID
	}
	return ""
}

// Ctx returns the request-scoped logger, or the global logger outside a
// request.
//
//	logging.Ctx(r.Context()).Debug().Uint32("pgn", pgn).Msg("Frame injected")
func Ctx(ctx context.Context) *zerolog.Logger {
	if s := scopeFrom(ctx); s != nil {
		l := s.logger
		return &l
	}
	return current()
}
