// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

//go:build !linux

package intake

import (
	"context"
	"errors"
)

// ErrSocketCANUnsupported is returned on platforms without SocketCAN.
var ErrSocketCANUnsupported = errors.New("socketcan is only available on linux; use the replay or simulator source")

// SocketCANSource is unavailable outside Linux.
type SocketCANSource struct{}

// NewSocketCANSource always fails on this platform.
func NewSocketCANSource(_ context.Context, _ string) (*SocketCANSource, error) {
	return nil, ErrSocketCANUnsupported
}

// Next implements Source.
func (s *SocketCANSource) Next(context.Context) (Frame, error) { return Frame{}, ErrSocketCANUnsupported }

// Close implements Source.
func (s *SocketCANSource) Close() error { return nil }

// String implements Source.
func (s *SocketCANSource) String() string { return "socketcan" }
