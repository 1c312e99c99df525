// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package intake

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/isobusd/internal/j1939"
)

// ErrSourceClosed is returned by Source.Next after Close.
var ErrSourceClosed = errors.New("intake: source closed")

// Frame is one CAN frame as read from the bus.
type Frame struct {
	ID       uint32
	Data     []byte
	Extended bool
	Received time.Time
}

// Source yields CAN frames. Next blocks until a frame is available, the
// context is done or the source fails. Finite sources return io.EOF.
type Source interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
	String() string
}

// Opener creates a fresh Source. The pipeline reopens its source after the
// supervisor restarts it.
type Opener func(ctx context.Context) (Source, error)

// Event is a decoded frame handed to sinks.
type Event struct {
	Frame    Frame
	Header   j1939.Header
	Message  j1939.Message
	Known    bool
	Category string // empty when the PGN has no telemetry category
}

// Sink receives every decoded event. Publish must not retain ev.Frame.Data.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// MultiSink fans an event out to every sink. All sinks are called even if
// one fails; the errors are joined.
type MultiSink []Sink

// Publish implements Sink.
func (m MultiSink) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
