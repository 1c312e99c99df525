// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package telemetry

import (
	"time"

	"github.com/goccy/go-json"
)

// JSON keys of the legacy snapshot document.
const (
	keyLastUpdated = "last_updated"
	keyStatus      = "status"
	keyHistory     = "historico"
	keyStats       = "estatisticas"
	keyTimestamp   = "timestamp"
	keyData        = "dados"
)

// Snapshot is a read-only copy of aggregator state returned by Query.
type Snapshot struct {
	// Records holds the selected category records.
	Records map[Category]Record
	// History is nil unless history was requested.
	History map[Category][]HistoryEntry
	// Stats is nil unless statistics were requested.
	Stats *Stats
}

// Record returns the record for cat if it was selected.
func (s Snapshot) Record(cat Category) (Record, bool) {
	r, ok := s.Records[cat]
	return r, ok
}

// unixSeconds renders a timestamp as fractional Unix seconds; zero stays 0.
func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}

// Document builds the JSON-shaped map served to the viewer.
func (s Snapshot) Document() map[string]any {
	doc := make(map[string]any, len(s.Records)+2)

	for cat, rec := range s.Records {
		if cat == Implement {
			status := make(map[string]float64, len(rec.Fields))
			for k, v := range rec.Fields {
				status[k] = v
			}
			doc[cat.SnapshotKey()] = map[string]any{
				keyStatus:      status,
				keyLastUpdated: unixSeconds(rec.LastUpdated),
			}
			continue
		}
		body := make(map[string]any, len(rec.Fields)+1)
		for k, v := range rec.Fields {
			body[k] = v
		}
		body[keyLastUpdated] = unixSeconds(rec.LastUpdated)
		doc[cat.SnapshotKey()] = body
	}

	if s.History != nil {
		hist := make(map[string]any, len(s.History))
		for cat, entries := range s.History {
			list := make([]map[string]any, 0, len(entries))
			for _, e := range entries {
				list = append(list, map[string]any{
					keyTimestamp: unixSeconds(e.Timestamp),
					keyData:      e.Fields,
				})
			}
			hist[cat.LegacyName()] = list
		}
		doc[keyHistory] = hist
	}

	if s.Stats != nil {
		doc[keyStats] = s.Stats
	}
	return doc
}

// MarshalJSON encodes the legacy snapshot document.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Document())
}
