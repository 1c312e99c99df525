// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

// Package telemetry aggregates decoded J1939 messages into current-state
// records, bounded per-category history and per-PGN statistics.
//
// # Categories
//
// Every PGN belongs to at most one category:
//
//	engine     (motor)       61444, 65262, 65263
//	position   (posicao)     65267
//	ambient    (ambiente)    65269
//	implement  (implemento)  65097, 65098
//
// Messages with a PGN outside these sets only update the statistics.
//
// # Merge Policy
//
// Ingest merges fields into the category record one field at a time: a field
// present in the incoming message overwrites the stored value, absent fields
// keep their previous value. The record's LastUpdated is set to the ingest
// time and a {timestamp, fields} entry is appended to the category ring.
//
// # Concurrency
//
// Each category owns a sync.RWMutex covering both its record and its ring, so
// a query observes either the state before or after an ingest for that
// category, never the record of one and the history of the other. Categories
// are independent; a long query on one does not stall ingest on another.
// Statistics have their own lock. No lock is held across I/O.
//
// # Queries
//
// Query returns deep copies. The Snapshot type serializes to the legacy
// viewer shape (engine_data, position_data, ambient_data, implement_data,
// historico, estatisticas); ParseQuery translates the viewer's query
// parameters (categoria, historico, estatisticas) into a QuerySpec.
package telemetry
