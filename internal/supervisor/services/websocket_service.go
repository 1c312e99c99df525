// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/isobusd/internal/logging"
)

// ContextHub is satisfied by *websocket.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// WebSocketHubService runs the live feed hub. The hub closes every client
// connection when its context ends.
type WebSocketHubService struct {
	hub ContextHub
}

func NewWebSocketHubService(hub ContextHub) *WebSocketHubService {
	return &WebSocketHubService{hub: hub}
}

func (w *WebSocketHubService) Serve(ctx context.Context) error {
	err := w.hub.RunWithContext(ctx)
	if ctx.Err() == nil {
		// the hub only returns on its own when something broke
		if err == nil {
			err = errors.New("exited unexpectedly")
		}
		return fmt.Errorf("websocket hub: %w", err)
	}
	logging.Debug().Str("component", w.String()).Msg("WebSocket hub service stopped")
	return err
}

func (w *WebSocketHubService) String() string { return "websocket-hub" }
