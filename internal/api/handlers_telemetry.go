// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package api

import (
	"encoding/hex"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/isobusd/internal/intake"
	"github.com/tomtom215/isobusd/internal/j1939"
	"github.com/tomtom215/isobusd/internal/logging"
	"github.com/tomtom215/isobusd/internal/models"
	"github.com/tomtom215/isobusd/internal/telemetry"
	"github.com/tomtom215/isobusd/internal/validation"
)

// LegacySnapshot serves the snapshot document polled by the dashboard
// viewer. It answers 200 with JSON for any query.
func (h *Handler) LegacySnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.aggregator.Query(telemetry.ParseQuery(r.URL.Query()))
	body, err := json.Marshal(snap)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode snapshot")
		body = []byte("{}")
	}
	writeJSON(w, http.StatusOK, body)
}

// Snapshot serves the snapshot document in the API envelope.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap := h.aggregator.Query(telemetry.ParseQuery(r.URL.Query()))
	respondData(w, r, snap, start)
}

// Stats serves message counters, per-PGN frame rates and history depth.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats := h.aggregator.Stats()

	resp := models.StatsResponse{
		MessagesTotal: stats.MessagesTotal,
		MessagesByPGN: make(map[string]uint64, len(stats.MessagesByPGN)),
		FramesTotal:   h.intake.FramesTotal(),
		FrameRates:    make(map[string]float64),
		HistoryDepth:  make(map[string]int),
		Source:        h.intake.SourceName(),
	}
	for pgn, n := range stats.MessagesByPGN {
		resp.MessagesByPGN[strconv.FormatUint(uint64(pgn), 10)] = n
	}
	for pgn, rate := range h.intake.PGNRates() {
		resp.FrameRates[strconv.FormatUint(uint64(pgn), 10)] = rate
	}
	for _, cat := range telemetry.AllCategories() {
		resp.HistoryDepth[cat.String()] = h.aggregator.HistoryLen(cat)
	}

	respondData(w, r, resp, start)
}

// catalogue lists every PGN the gateway knows about: the decoder table plus
// categorized PGNs without layouts.
func (h *Handler) catalogue() []models.PGNInfo {
	seen := make(map[uint32]bool)
	var out []models.PGNInfo
	for _, g := range h.table.Groups() {
		seen[g.PGN] = true
		out = append(out, pgnInfo(g.PGN, g))
	}
	for _, cat := range telemetry.AllCategories() {
		for _, pgn := range cat.PGNs() {
			if !seen[pgn] {
				seen[pgn] = true
				out = append(out, pgnInfo(pgn, j1939.ParameterGroup{}))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PGN < out[j].PGN })
	return out
}

func pgnInfo(pgn uint32, g j1939.ParameterGroup) models.PGNInfo {
	info := models.PGNInfo{
		PGN:     pgn,
		Acronym: g.Acronym,
		Label:   g.Label,
		SPNs:    g.SPNs,
	}
	if info.SPNs == nil {
		info.SPNs = []j1939.Layout{}
	}
	if cat, ok := telemetry.CategoryOf(pgn); ok {
		info.Category = cat.String()
	}
	return info
}

// PGNs serves the decoder catalogue.
func (h *Handler) PGNs(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, h.catalogue(), time.Time{})
}

// PGN serves one catalogue entry. The PGN may be decimal or 0x-prefixed hex.
func (h *Handler) PGN(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "pgn")
	pgn, err := strconv.ParseUint(raw, 0, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "pgn must be a decimal or 0x-prefixed number", nil)
		return
	}
	for _, info := range h.catalogue() {
		if uint64(info.PGN) == pgn {
			respondData(w, r, info, time.Time{})
			return
		}
	}
	respondError(w, http.StatusNotFound, ErrCodeNotFound, "PGN not in catalogue", nil)
}

// InjectFrame runs one frame through the intake pipeline, as if it had
// been read from the bus, and returns the decode result.
func (h *Handler) InjectFrame(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.FrameRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large", nil)
			return
		}
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	// both fields passed validation
	id, _ := validation.ParseCANID(req.ID)
	data, _ := hex.DecodeString(strings.TrimSpace(req.Data))

	ev, err := h.intake.Inject(r.Context(), intake.Frame{
		ID:       id,
		Data:     data,
		Extended: true,
		Received: time.Now(),
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	logging.Ctx(r.Context()).Debug().
		Uint32("pgn", ev.Message.PGN).
		Bool("known", ev.Known).
		Msg("Injected frame")

	fields := ev.Message.Fields
	if fields == nil {
		fields = map[string]float64{}
	}
	respondData(w, r, models.FrameResponse{
		PGN:           ev.Message.PGN,
		Priority:      ev.Header.Priority,
		SourceAddress: ev.Header.Source,
		Known:         ev.Known,
		Category:      ev.Category,
		Fields:        fields,
		Raw:           j1939.RawHex(ev.Frame.Data),
	}, start)
}
