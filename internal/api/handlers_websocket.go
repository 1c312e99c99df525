// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/isobusd/internal/logging"
	ws "github.com/tomtom215/isobusd/internal/websocket"
)

// registerTimeout bounds the wait for the hub loop, which is stopped while
// the supervisor restarts it.
const registerTimeout = 5 * time.Second

// WebSocket upgrades the connection and attaches it to the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	timer := time.NewTimer(registerTimeout)
	defer timer.Stop()
	select {
	case h.wsHub.Register <- client:
	case <-timer.C:
		logging.Warn().Msg("WebSocket connection dropped: hub not accepting clients")
		_ = conn.Close()
		return
	}
	client.Start()
}
