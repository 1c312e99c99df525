// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/isobusd/internal/logging"
)

// EmbeddedBroker is satisfied by *eventprocessor.EmbeddedServer.
type EmbeddedBroker interface {
	Start() error
	Shutdown(ctx context.Context) error
	IsRunning() bool
}

// NATSServerService supervises the in-process NATS server.
//
// The server is usually started before the tree so the publisher can
// connect during startup; Serve then adopts the running instance. After a
// crash Serve starts it again and the publisher reconnects on its own.
type NATSServerService struct {
	server          EmbeddedBroker
	shutdownTimeout time.Duration
	name            string
}

// NewNATSServerService wraps server. A non-positive shutdownTimeout uses 10s.
func NewNATSServerService(server EmbeddedBroker, shutdownTimeout time.Duration) *NATSServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &NATSServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "nats-server",
	}
}

// Serve implements suture.Service.
func (n *NATSServerService) Serve(ctx context.Context) error {
	if !n.server.IsRunning() {
		if err := n.server.Start(); err != nil {
			return fmt.Errorf("start embedded nats: %w", err)
		}
		logging.Info().Str("component", n.name).Msg("Embedded NATS server started")
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), n.shutdownTimeout)
	defer cancel()
	if err := n.server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Str("component", n.name).Msg("Embedded NATS shutdown incomplete")
		return fmt.Errorf("shutdown embedded nats: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor events.
func (n *NATSServerService) String() string {
	return n.name
}
