// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package telemetry

import (
	"strings"

	"github.com/tomtom215/isobusd/internal/j1939"
)

// Category identifies a tractor subsystem.
type Category int

// Categories in snapshot order.
const (
	Engine Category = iota
	Position
	Ambient
	Implement

	numCategories = 4
)

// Implement PGNs. They carry manufacturer-specific payloads that the decoder
// has no layout for, so only timestamps and history reach the record.
const (
	PGNImplementStatus1 uint32 = 65097
	PGNImplementStatus2 uint32 = 65098
)

var categoryNames = [numCategories]struct {
	name, legacy, key string
}{
	Engine:    {"engine", "motor", "engine_data"},
	Position:  {"position", "posicao", "position_data"},
	Ambient:   {"ambient", "ambiente", "ambient_data"},
	Implement: {"implement", "implemento", "implement_data"},
}

var pgnCategory = map[uint32]Category{
	j1939.PGNEEC1:       Engine,
	j1939.PGNET1:        Engine,
	j1939.PGNEFLP:       Engine,
	j1939.PGNVP:         Position,
	j1939.PGNAMB:        Ambient,
	PGNImplementStatus1: Implement,
	PGNImplementStatus2: Implement,
}

// AllCategories returns every category in snapshot order.
func AllCategories() []Category {
	return []Category{Engine, Position, Ambient, Implement}
}

// CategoryOf classifies a PGN.
func CategoryOf(pgn uint32) (Category, bool) {
	c, ok := pgnCategory[pgn]
	return c, ok
}

// PGNs returns the PGNs that feed a category, ascending.
func (c Category) PGNs() []uint32 {
	var out []uint32
	for _, pgn := range []uint32{
		j1939.PGNEEC1, PGNImplementStatus1, PGNImplementStatus2,
		j1939.PGNET1, j1939.PGNEFLP, j1939.PGNVP, j1939.PGNAMB,
	} {
		if pgnCategory[pgn] == c {
			out = append(out, pgn)
		}
	}
	return out
}

// Valid reports whether c is one of the four categories.
func (c Category) Valid() bool {
	return c >= 0 && c < numCategories
}

// String returns the English name.
func (c Category) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return categoryNames[c].name
}

// LegacyName returns the name the viewer uses in query parameters and
// history keys.
func (c Category) LegacyName() string {
	if !c.Valid() {
		return "unknown"
	}
	return categoryNames[c].legacy
}

// SnapshotKey returns the JSON key of the category record.
func (c Category) SnapshotKey() string {
	if !c.Valid() {
		return ""
	}
	return categoryNames[c].key
}

// ParseCategory accepts English or legacy names, case-insensitively.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range categoryNames {
		if s == n.name || s == n.legacy {
			return Category(i), true
		}
	}
	return 0, false
}
