// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package j1939

import (
	"fmt"
	"math"
)

// PayloadSize is the data length of a single-frame J1939 message.
const PayloadSize = 8

// NotAvailable is the fill byte for parameters a sender does not provide.
const NotAvailable = 0xFF

// Encode builds an 8-byte payload for pgn from engineering values. Unset
// bytes carry NotAvailable. Values are rounded to the field resolution and
// clamped to the field width; negative values encode as zero.
func (t Table) Encode(pgn uint32, fields map[string]float64) ([]byte, error) {
	group, ok := t[pgn]
	if !ok {
		return nil, fmt.Errorf("no layout registered for PGN %d", pgn)
	}

	payload := make([]byte, PayloadSize)
	for i := range payload {
		payload[i] = NotAvailable
	}

	for _, layout := range group.SPNs {
		value, ok := fields[layout.Name]
		if !ok {
			continue
		}
		if err := insert(payload, layout, value); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

// insert is the inverse of extract over the same byte window.
func insert(payload []byte, layout Layout, value float64) error {
	if layout.BitLength == 0 || layout.BitLength > MaxFieldBits || layout.Resolution == 0 {
		return fmt.Errorf("%w: %s", ErrInvalidLayout, layout.Name)
	}

	mask := uint64(1)<<layout.BitLength - 1
	scaled := math.Round(value / layout.Resolution)
	var raw uint64
	switch {
	case scaled <= 0 || math.IsNaN(scaled):
		raw = 0
	case scaled >= float64(mask):
		raw = mask
	default:
		raw = uint64(scaled)
	}

	startByte := layout.StartBit / 8
	bitOffset := layout.StartBit % 8
	byteLen := (layout.BitLength + 7) / 8

	var acc uint64
	for i := uint(0); i < byteLen && startByte+i < uint(len(payload)); i++ {
		acc |= uint64(payload[startByte+i]) << (8 * i)
	}
	acc = acc&^(mask<<bitOffset) | raw<<bitOffset
	for i := uint(0); i < byteLen && startByte+i < uint(len(payload)); i++ {
		payload[startByte+i] = byte(acc >> (8 * i))
	}
	return nil
}
