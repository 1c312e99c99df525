// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package telemetry

import (
	"maps"
	"sync"
	"time"

	"github.com/tomtom215/isobusd/internal/j1939"
)

// Record is the current state of one category.
type Record struct {
	Fields      map[string]float64
	LastUpdated time.Time
}

// HistoryEntry is one ingested message as kept in a category ring.
type HistoryEntry struct {
	Timestamp time.Time
	Fields    map[string]float64
}

func (r Record) clone() Record {
	return Record{Fields: maps.Clone(r.Fields), LastUpdated: r.LastUpdated}
}

// categoryState groups everything one category lock protects.
type categoryState struct {
	mu      sync.RWMutex
	record  Record
	history *Ring[HistoryEntry]
}

// Aggregator owns the telemetry state. The zero value is not usable; call
// NewAggregator.
type Aggregator struct {
	categories [numCategories]*categoryState

	statsMu sync.Mutex
	stats   Stats

	clock           func() time.Time
	historyCapacity int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithHistoryCapacity sets the per-category ring size.
func WithHistoryCapacity(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.historyCapacity = n
		}
	}
}

// WithClock overrides the ingest timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(a *Aggregator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// NewAggregator creates an aggregator with empty state.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		clock:           time.Now,
		historyCapacity: DefaultHistoryCapacity,
		stats:           Stats{MessagesByPGN: make(map[uint32]uint64)},
	}
	for _, opt := range opts {
		opt(a)
	}
	for i := range a.categories {
		a.categories[i] = &categoryState{
			record:  Record{Fields: make(map[string]float64)},
			history: NewRing[HistoryEntry](a.historyCapacity),
		}
	}
	return a
}

// HistoryCapacity returns the configured ring size.
func (a *Aggregator) HistoryCapacity() int {
	return a.historyCapacity
}

// Ingest counts msg and, when its PGN is categorized, merges its fields into
// the category record and appends it to the category history.
func (a *Aggregator) Ingest(msg j1939.Message) {
	a.statsMu.Lock()
	a.stats.MessagesTotal++
	a.stats.MessagesByPGN[msg.PGN]++
	a.statsMu.Unlock()

	cat, ok := CategoryOf(msg.PGN)
	if !ok {
		return
	}

	fields := maps.Clone(msg.Fields)
	if fields == nil {
		fields = make(map[string]float64)
	}

	st := a.categories[cat]
	st.mu.Lock()
	// stamped under the lock so history stays in arrival order
	now := a.clock()
	entry := HistoryEntry{Timestamp: now, Fields: fields}
	for name, value := range msg.Fields {
		st.record.Fields[name] = value
	}
	st.record.LastUpdated = now
	st.history.Push(entry)
	st.mu.Unlock()
}

// Query assembles a point-in-time copy of the requested state.
func (a *Aggregator) Query(spec QuerySpec) Snapshot {
	wantRecord, wantHistory := spec.selection()

	snap := Snapshot{Records: make(map[Category]Record)}
	if spec.History != nil {
		snap.History = make(map[Category][]HistoryEntry)
	}

	for _, cat := range AllCategories() {
		if !wantRecord[cat] && !wantHistory[cat] {
			continue
		}
		st := a.categories[cat]
		st.mu.RLock()
		if wantRecord[cat] {
			snap.Records[cat] = st.record.clone()
		}
		if wantHistory[cat] {
			snap.History[cat] = cloneHistory(st.history.Items())
		}
		st.mu.RUnlock()
	}

	if spec.Stats {
		stats := a.Stats()
		snap.Stats = &stats
	}
	return snap
}

// Record returns a copy of one category record.
func (a *Aggregator) Record(cat Category) (Record, bool) {
	if !cat.Valid() {
		return Record{}, false
	}
	st := a.categories[cat]
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.record.clone(), true
}

// HistoryLen returns the number of entries held for a category.
func (a *Aggregator) HistoryLen(cat Category) int {
	if !cat.Valid() {
		return 0
	}
	st := a.categories[cat]
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.history.Len()
}

// Stats returns a copy of the statistics.
func (a *Aggregator) Stats() Stats {
	a.statsMu.Lock()
	defer a.statsMu.Unlock()
	return a.stats.clone()
}

// cloneHistory deep-copies entries returned by Ring.Items. Field maps are
// never mutated after Push, but callers own the result and may.
func cloneHistory(entries []HistoryEntry) []HistoryEntry {
	for i := range entries {
		entries[i].Fields = maps.Clone(entries[i].Fields)
	}
	return entries
}
