// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/isobusd/internal/models"
)

func (h *Handler) healthStatus(status string) models.HealthStatus {
	hs := models.HealthStatus{
		Status:        status,
		Source:        h.intake.SourceName(),
		Running:       h.intake.Running(),
		FramesTotal:   h.intake.FramesTotal(),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}
	if h.wsHub != nil {
		hs.WSClients = h.wsHub.GetClientCount()
	}
	if h.breakerState != nil {
		hs.NATSBreaker = h.breakerState()
	}
	return hs
}

// Health reports component status. It is healthy when intake is running
// and degraded otherwise; an open NATS breaker also degrades it.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.intake.Running() {
		status = "degraded"
	}
	hs := h.healthStatus(status)
	if hs.NATSBreaker == "open" {
		hs.Status = "degraded"
	}
	respondData(w, r, hs, time.Time{})
}

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, map[string]string{"status": "alive"}, time.Time{})
}

// HealthReady answers 200 once the intake pipeline is running and has
// received a frame, 503 before.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.intake.Ready() {
		respondJSON(w, http.StatusServiceUnavailable, &models.APIResponse{
			Status:   models.StatusError,
			Data:     h.healthStatus("not_ready"),
			Metadata: metadata(r, time.Time{}),
			Error: &models.APIError{
				Code:    ErrCodeServiceUnavailable,
				Message: "intake has not received any frames",
			},
		})
		return
	}
	respondData(w, r, h.healthStatus("ready"), time.Time{})
}
