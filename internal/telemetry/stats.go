// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package telemetry

import "maps"

// Stats counts every ingested message. Counters only grow.
type Stats struct {
	MessagesTotal uint64            `json:"mensagens_total"`
	MessagesByPGN map[uint32]uint64 `json:"mensagens_por_pgn"`
}

func (s Stats) clone() Stats {
	out := Stats{MessagesTotal: s.MessagesTotal, MessagesByPGN: maps.Clone(s.MessagesByPGN)}
	if out.MessagesByPGN == nil {
		out.MessagesByPGN = make(map[uint32]uint64)
	}
	return out
}
