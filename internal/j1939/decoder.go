// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package j1939

import (
	"errors"
	"fmt"
	"math"
)

// MaxFieldBits is the widest SPN the decoder accepts.
const MaxFieldBits = 32

// ErrInvalidLayout is returned when an SPN layout cannot be extracted.
var ErrInvalidLayout = errors.New("invalid SPN layout")

// Message is the result of one decode call.
type Message struct {
	PGN    uint32             `json:"pgn"`
	Fields map[string]float64 `json:"fields"`
}

// FieldErrorHandler is notified when a single SPN fails to extract.
type FieldErrorHandler func(pgn uint32, layout Layout, err error)

// Decoder maps raw frames to Messages using an immutable layout table.
type Decoder struct {
	table        Table
	onFieldError FieldErrorHandler
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithTable replaces the built-in layout table. The table is cloned.
func WithTable(t Table) Option {
	return func(d *Decoder) {
		d.table = t.Clone()
	}
}

// WithFieldErrorHandler registers a callback for skipped fields.
func WithFieldErrorHandler(fn FieldErrorHandler) Option {
	return func(d *Decoder) {
		d.onFieldError = fn
	}
}

// NewDecoder creates a decoder over the default table unless overridden.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{table: defaultTable}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDecoder = NewDecoder()

// Decode decodes a frame with the built-in table.
func Decode(id uint32, payload []byte) (Message, bool) {
	return defaultDecoder.Decode(id, payload)
}

// PGNFromID extracts the parameter group number from a 29-bit CAN identifier.
func PGNFromID(id uint32) uint32 {
	return (id >> 8) & 0x1FFFF
}

// Table returns a copy of the decoder's layout table.
func (d *Decoder) Table() Table {
	return d.table.Clone()
}

// Decode extracts every SPN registered for the frame's PGN. The boolean is
// false when the PGN has no entry in the table; the returned Message still
// carries the PGN so callers can fall back to the raw payload.
func (d *Decoder) Decode(id uint32, payload []byte) (Message, bool) {
	pgn := PGNFromID(id)
	group, ok := d.table[pgn]
	if !ok {
		return Message{PGN: pgn}, false
	}

	fields := make(map[string]float64, len(group.SPNs))
	for _, layout := range group.SPNs {
		value, err := extract(payload, layout)
		if err != nil {
			if d.onFieldError != nil {
				d.onFieldError(pgn, layout, err)
			}
			continue
		}
		fields[layout.Name] = value
	}
	return Message{PGN: pgn, Fields: fields}, true
}

// extract reads one SPN. Bytes past the end of payload contribute zero.
func extract(payload []byte, layout Layout) (float64, error) {
	if layout.BitLength == 0 || layout.BitLength > MaxFieldBits {
		return 0, fmt.Errorf("%w: %s bit length %d", ErrInvalidLayout, layout.Name, layout.BitLength)
	}
	if math.IsNaN(layout.Resolution) || math.IsInf(layout.Resolution, 0) {
		return 0, fmt.Errorf("%w: %s resolution %v", ErrInvalidLayout, layout.Name, layout.Resolution)
	}

	startByte := layout.StartBit / 8
	bitOffset := layout.StartBit % 8
	byteLen := (layout.BitLength + 7) / 8

	var acc uint64
	for i := uint(0); i < byteLen; i++ {
		idx := startByte + i
		if idx >= uint(len(payload)) {
			break
		}
		acc |= uint64(payload[idx]) << (8 * i)
	}

	mask := uint64(1)<<layout.BitLength - 1
	raw := (acc >> bitOffset) & mask
	return float64(raw) * layout.Resolution, nil
}
