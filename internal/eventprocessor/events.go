// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package eventprocessor

import (
	"fmt"
	"maps"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/isobusd/internal/intake"
	"github.com/tomtom215/isobusd/internal/j1939"
)

// SchemaVersion is the current event schema version.
const SchemaVersion = 1

// UnknownCategory is the subject suffix for PGNs outside every category.
const UnknownCategory = "unknown"

// TelemetryEvent is the wire form of one decoded frame.
type TelemetryEvent struct {
	SchemaVersion int                `json:"schema_version"`
	EventID       string             `json:"event_id"`
	PGN           uint32             `json:"pgn"`
	Category      string             `json:"category"`
	SourceAddress uint8              `json:"source_address"`
	Priority      uint8              `json:"priority"`
	Known         bool               `json:"known"`
	Fields        map[string]float64 `json:"fields,omitempty"`
	Raw           string             `json:"raw"`
	Timestamp     time.Time          `json:"timestamp"`
}

// NewTelemetryEvent converts a pipeline event. Fields are copied.
func NewTelemetryEvent(ev intake.Event) *TelemetryEvent {
	category := ev.Category
	if category == "" {
		category = UnknownCategory
	}
	ts := ev.Frame.Received
	if ts.IsZero() {
		ts = time.Now()
	}
	return &TelemetryEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		PGN:           ev.Message.PGN,
		Category:      category,
		SourceAddress: ev.Header.Source,
		Priority:      ev.Header.Priority,
		Known:         ev.Known,
		Fields:        maps.Clone(ev.Message.Fields),
		Raw:           j1939.RawHex(ev.Frame.Data),
		Timestamp:     ts.UTC(),
	}
}

// Subject returns the NATS subject for the event under prefix.
func (e *TelemetryEvent) Subject(prefix string) string {
	return prefix + "." + e.Category
}

// Validate checks required fields.
func (e *TelemetryEvent) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.Category == "" {
		return fmt.Errorf("category is required")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// SerializeEvent marshals an event to JSON.
func SerializeEvent(event *TelemetryEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	return json.Marshal(event)
}

// DeserializeEvent unmarshals JSON produced by SerializeEvent.
func DeserializeEvent(data []byte) (*TelemetryEvent, error) {
	var event TelemetryEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	return &event, nil
}
