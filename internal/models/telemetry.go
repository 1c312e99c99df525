// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package models

import (
	"github.com/tomtom215/isobusd/internal/j1939"
)

// FrameRequest injects one frame into the pipeline. ID is a hex CAN
// identifier with or without 0x; Data is the hex payload.
type FrameRequest struct {
	ID   string `json:"id" validate:"required,canid"`
	Data string `json:"data" validate:"canpayload"`
}

// FrameResponse describes how an injected frame was handled.
type FrameResponse struct {
	PGN           uint32             `json:"pgn"`
	Priority      uint8              `json:"priority"`
	SourceAddress uint8              `json:"source_address"`
	Known         bool               `json:"known"`
	Category      string             `json:"category,omitempty"`
	Fields        map[string]float64 `json:"fields"`
	Raw           string             `json:"raw"`
}

// StatsResponse is the /api/v1/stats payload. MessagesByPGN is keyed by the
// decimal PGN.
type StatsResponse struct {
	MessagesTotal uint64             `json:"messages_total"`
	MessagesByPGN map[string]uint64  `json:"messages_by_pgn"`
	FramesTotal   uint64             `json:"frames_total"`
	FrameRates    map[string]float64 `json:"frame_rates"`
	HistoryDepth  map[string]int     `json:"history_depth"`
	Source        string             `json:"source"`
}

// PGNInfo is one entry of the decoder catalogue.
type PGNInfo struct {
	PGN      uint32         `json:"pgn"`
	Acronym  string         `json:"acronym,omitempty"`
	Label    string         `json:"label,omitempty"`
	Category string         `json:"category,omitempty"`
	SPNs     []j1939.Layout `json:"spns"`
}

// HealthStatus is returned by the health endpoints.
type HealthStatus struct {
	Status       string `json:"status"`
	Source       string `json:"source,omitempty"`
	Running      bool   `json:"running"`
	FramesTotal  uint64 `json:"frames_total"`
	WSClients    int    `json:"websocket_clients"`
	NATSBreaker  string `json:"nats_breaker,omitempty"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}
