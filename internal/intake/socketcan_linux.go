// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

//go:build linux

package intake

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.einride.tech/can/pkg/socketcan"

	"github.com/tomtom215/isobusd/internal/metrics"
)

// SocketCANSource reads frames from a Linux SocketCAN interface. Standard
// 11-bit frames are dropped: J1939 only uses extended identifiers.
type SocketCANSource struct {
	iface    string
	conn     net.Conn
	receiver *socketcan.Receiver

	mu     sync.Mutex
	closed bool
	dead   error // set once the receiver has failed
}

// NewSocketCANSource opens iface (e.g. can0). The interface must already be
// up with the bus bitrate configured.
func NewSocketCANSource(ctx context.Context, iface string) (*SocketCANSource, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("dial socketcan %s: %w", iface, err)
	}
	return newSocketCANSource(iface, conn), nil
}

func newSocketCANSource(iface string, conn net.Conn) *SocketCANSource {
	return &SocketCANSource{
		iface:    iface,
		conn:     conn,
		receiver: socketcan.NewReceiver(conn),
	}
}

// Next implements Source. Cancelling ctx interrupts a blocked read through
// the socket read deadline.
//
// The receiver cannot resume after a read error (ENOBUFS, ENETDOWN on an
// unplugged adapter), so any such error is reported as ErrSourceClosed and
// the pipeline's supervisor reopens the socket.
func (s *SocketCANSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	s.mu.Lock()
	dead := s.dead
	s.mu.Unlock()
	if dead != nil {
		return Frame{}, dead
	}
	_ = s.conn.SetReadDeadline(time.Time{})
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for s.receiver.Receive() {
		if s.receiver.HasErrorFrame() {
			metrics.RecordSourceError(s.String())
			continue
		}
		f := s.receiver.Frame()
		if !f.IsExtended || f.IsRemote {
			metrics.RecordFrameUndecoded(metrics.UndecodedNotExtended)
			continue
		}
		data := make([]byte, f.Length)
		copy(data, f.Data[:f.Length])
		return Frame{
			ID:       f.ID,
			Data:     data,
			Extended: true,
			Received: time.Now(),
		}, nil
	}

	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Frame{}, ErrSourceClosed
	}
	if err := s.receiver.Err(); err != nil {
		metrics.RecordSourceError(s.String())
		s.dead = fmt.Errorf("socketcan %s: %w: %w", s.iface, ErrSourceClosed, err)
	} else {
		s.dead = fmt.Errorf("socketcan %s: %w", s.iface, ErrSourceClosed)
	}
	return Frame{}, s.dead
}

// Close implements Source.
func (s *SocketCANSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.receiver.Close()
}

// String implements Source.
func (s *SocketCANSource) String() string {
	return "socketcan:" + s.iface
}
