// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/isobusd/internal/intake"
	"github.com/tomtom215/isobusd/internal/logging"
	"github.com/tomtom215/isobusd/internal/metrics"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher publishes decoded telemetry to NATS through Watermill. It
// implements intake.Sink.
//
// Core NATS is used rather than JetStream: telemetry is a live feed and the
// gateway does not own a stream.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[any]
	prefix         string
	mu             sync.RWMutex
	closed         bool
}

// NewPublisher connects to cfg.URL. The connection is retried in the
// background, so a broker that is not up yet does not fail startup.
func NewPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NewSlogLogger(logging.NewSlogLogger("nats"))
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("isobusd"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled: true,
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return newPublisher(pub, cfg.SubjectPrefix), nil
}

// newPublisher wraps any Watermill publisher.
func newPublisher(pub message.Publisher, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{
		publisher: pub,
		prefix:    prefix,
	}
}

// SetCircuitBreaker sets the circuit breaker for publish operations.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[any]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.circuitBreaker = cb
}

// Publish implements intake.Sink. The event is serialized and sent to
// <prefix>.<category>.
func (p *Publisher) Publish(ctx context.Context, ev intake.Event) error {
	event := NewTelemetryEvent(ev)
	data, err := SerializeEvent(event)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(event.EventID, data)
	msg.Metadata.Set("pgn", strconv.FormatUint(uint64(event.PGN), 10))
	msg.Metadata.Set("category", event.Category)
	msg.SetContext(ctx)

	return p.PublishMessage(event.Subject(p.prefix), msg)
}

// PublishMessage sends a raw Watermill message through the circuit breaker.
func (p *Publisher) PublishMessage(subject string, msg *message.Message) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPublisherClosed
	}
	cb := p.circuitBreaker
	p.mu.RUnlock()

	var err error
	if cb != nil {
		_, err = cb.Execute(func() (any, error) {
			return nil, p.publisher.Publish(subject, msg)
		})
	} else {
		err = p.publisher.Publish(subject, msg)
	}

	breakerOpen := errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
	metrics.RecordNATSPublish(subject, err, breakerOpen)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Close closes the publisher and releases resources.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	return p.publisher.Close()
}
