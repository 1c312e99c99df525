// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/isobusd/internal/intake"
	"github.com/tomtom215/isobusd/internal/j1939"
	"github.com/tomtom215/isobusd/internal/logging"
	"github.com/tomtom215/isobusd/internal/telemetry"
	ws "github.com/tomtom215/isobusd/internal/websocket"
)

// Intake is the part of the intake pipeline the handlers depend on.
// *intake.Pipeline implements it.
type Intake interface {
	Inject(ctx context.Context, frame intake.Frame) (intake.Event, error)
	Ready() bool
	Running() bool
	FramesTotal() uint64
	SourceName() string
	PGNRates() map[uint32]float64
}

// HandlerConfig wires a Handler to the running components.
type HandlerConfig struct {
	Aggregator *telemetry.Aggregator
	Intake     Intake

	// Table is the decoder catalogue served by /api/v1/pgns.
	// Default: j1939.DefaultTable()
	Table j1939.Table

	// Hub serves /api/v1/ws. Nil disables the websocket feed.
	Hub *ws.Hub

	// CORSOrigins is consulted for websocket origin checks.
	CORSOrigins []string

	// NATSBreakerState reports the publisher circuit breaker. Nil when NATS
	// publishing is disabled.
	NATSBreakerState func() string
}

// Handler serves the HTTP endpoints.
type Handler struct {
	aggregator   *telemetry.Aggregator
	intake       Intake
	table        j1939.Table
	wsHub        *ws.Hub
	corsOrigins  []string
	breakerState func() string
	startTime    time.Time
}

// NewHandler creates a Handler. Aggregator and Intake are required.
func NewHandler(cfg HandlerConfig) *Handler {
	table := cfg.Table
	if table == nil {
		table = j1939.DefaultTable()
	}
	return &Handler{
		aggregator:   cfg.Aggregator,
		intake:       cfg.Intake,
		table:        table,
		wsHub:        cfg.Hub,
		corsOrigins:  cfg.CORSOrigins,
		breakerState: cfg.NATSBreakerState,
		startTime:    time.Now(),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin allows configured origins. With a wildcard origin
// any caller is accepted, including tools that send no Origin header.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	for _, allowed := range h.corsOrigins {
		if allowed == "*" {
			return true
		}
		if origin != "" && allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected: origin not allowed")
	return false
}
