// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package j1939

import "testing"

func TestParseHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   uint32
		want Header
	}{
		{
			name: "EEC1 broadcast",
			id:   0x0CF00400,
			want: Header{Priority: 3, PGN: 61444, Source: 0x00, Destination: AddressGlobal},
		},
		{
			name: "vehicle position from GNSS",
			id:   0x18FEF31C,
			want: Header{Priority: 6, PGN: 65267, Source: 0x1C, Destination: AddressGlobal},
		},
		{
			name: "PDU1 request addressed to 0x12",
			id:   0x18EA1203,
			want: Header{Priority: 6, PGN: 0xEA12, Source: 0x03, Destination: 0x12},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseHeader(tt.id); got != tt.want {
				t.Errorf("ParseHeader(%#x) = %+v, want %+v", tt.id, got, tt.want)
			}
		})
	}
}

func TestBuildID_RoundTrip(t *testing.T) {
	t.Parallel()

	id := BuildID(6, PGNAMB, 0x25)
	h := ParseHeader(id)
	if h.Priority != 6 || h.PGN != PGNAMB || h.Source != 0x25 {
		t.Errorf("ParseHeader(BuildID()) = %+v", h)
	}
	if id>>29 != 0 {
		t.Errorf("BuildID produced more than 29 bits: %#x", id)
	}
}

func TestRawHex(t *testing.T) {
	t.Parallel()

	if got := RawHex([]byte{0xDE, 0xAD, 0x01}); got != "dead01" {
		t.Errorf("RawHex() = %q, want dead01", got)
	}
	if got := RawHex(nil); got != "" {
		t.Errorf("RawHex(nil) = %q, want empty", got)
	}
}
