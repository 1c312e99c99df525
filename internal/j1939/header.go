// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package j1939

import "encoding/hex"

// Address values with special meaning on the bus.
const (
	AddressGlobal uint8 = 0xFF
	AddressNull   uint8 = 0xFE
)

// pdu2Threshold is the first PDU format value addressed as a broadcast.
const pdu2Threshold = 240

// Header holds the fields packed into a 29-bit J1939 identifier.
type Header struct {
	Priority    uint8  `json:"priority"`
	PGN         uint32 `json:"pgn"`
	Source      uint8  `json:"source"`
	Destination uint8  `json:"destination"`
}

// ParseHeader splits a 29-bit identifier. PGN uses the same extraction as
// Decode so the two always agree; for PDU1 frames the destination address is
// the PDU specific byte, PDU2 frames are broadcast.
func ParseHeader(id uint32) Header {
	h := Header{
		Priority: uint8((id >> 26) & 0x7),
		PGN:      PGNFromID(id),
		Source:   uint8(id),
	}
	pduFormat := uint8(id >> 16)
	if pduFormat < pdu2Threshold {
		h.Destination = uint8(id >> 8)
	} else {
		h.Destination = AddressGlobal
	}
	return h
}

// BuildID assembles a 29-bit identifier from priority, PGN and source.
func BuildID(priority uint8, pgn uint32, source uint8) uint32 {
	return uint32(priority&0x7)<<26 | (pgn&0x1FFFF)<<8 | uint32(source)
}

// RawHex renders a payload as lowercase hex for frames that did not decode.
func RawHex(payload []byte) string {
	return hex.EncodeToString(payload)
}
