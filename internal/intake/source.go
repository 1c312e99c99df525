// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package intake

import (
	"context"
	"fmt"
)

// Source kinds.
const (
	KindSocketCAN = "socketcan"
	KindReplay    = "replay"
	KindSimulator = "simulator"
)

// SourceConfig selects a frame source.
type SourceConfig struct {
	Kind         string
	Interface    string
	ReplayFile   string
	ReplayLoop   bool
	ReplayRate   float64
	SimulateRate float64
}

// NewOpener returns an Opener for cfg. The kind is checked up front so
// a typo fails at startup rather than on first open.
func NewOpener(cfg SourceConfig) (Opener, error) {
	switch cfg.Kind {
	case KindSocketCAN:
		return func(ctx context.Context) (Source, error) {
			return NewSocketCANSource(ctx, cfg.Interface)
		}, nil
	case KindReplay:
		return func(context.Context) (Source, error) {
			return NewCandumpSource(cfg.ReplayFile, cfg.ReplayLoop, cfg.ReplayRate)
		}, nil
	case KindSimulator:
		return func(context.Context) (Source, error) {
			return NewSimulatorSource(cfg.SimulateRate), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown CAN source %q", cfg.Kind)
	}
}
