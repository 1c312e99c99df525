// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/isobusd/internal/eventprocessor"
)

type stubBroker struct {
	running     atomic.Bool
	starts      atomic.Int32
	shutdowns   atomic.Int32
	startErr    error
	shutdownErr error
}

func (s *stubBroker) Start() error {
	s.starts.Add(1)
	if s.startErr != nil {
		return s.startErr
	}
	s.running.Store(true)
	return nil
}

func (s *stubBroker) Shutdown(context.Context) error {
	s.shutdowns.Add(1)
	s.running.Store(false)
	return s.shutdownErr
}

func (s *stubBroker) IsRunning() bool { return s.running.Load() }

func TestNATSServerService_Interface(t *testing.T) {
	var _ suture.Service = (*NATSServerService)(nil)
	var _ EmbeddedBroker = (*eventprocessor.EmbeddedServer)(nil)
}

func TestNATSServerService_Serve(t *testing.T) {
	t.Parallel()

	t.Run("starts a stopped server and shuts it down", func(t *testing.T) {
		t.Parallel()
		broker := &stubBroker{}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		err := NewNATSServerService(broker, time.Second).Serve(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v", err)
		}
		if broker.starts.Load() != 1 || broker.shutdowns.Load() != 1 {
			t.Errorf("starts=%d shutdowns=%d", broker.starts.Load(), broker.shutdowns.Load())
		}
		if broker.IsRunning() {
			t.Error("server still running")
		}
	})

	t.Run("adopts a running server", func(t *testing.T) {
		t.Parallel()
		broker := &stubBroker{}
		broker.running.Store(true)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		_ = NewNATSServerService(broker, time.Second).Serve(ctx)
		if broker.starts.Load() != 0 {
			t.Errorf("Start called %d times on a running server", broker.starts.Load())
		}
		if broker.shutdowns.Load() != 1 {
			t.Errorf("shutdowns = %d", broker.shutdowns.Load())
		}
	})

	t.Run("start failure is returned", func(t *testing.T) {
		t.Parallel()
		bindErr := errors.New("address in use")
		broker := &stubBroker{startErr: bindErr}

		err := NewNATSServerService(broker, time.Second).Serve(context.Background())
		if !errors.Is(err, bindErr) {
			t.Errorf("err = %v, want %v", err, bindErr)
		}
	})

	t.Run("shutdown failure is returned", func(t *testing.T) {
		t.Parallel()
		stuck := errors.New("clients did not drain")
		broker := &stubBroker{shutdownErr: stuck}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := NewNATSServerService(broker, time.Second).Serve(ctx); !errors.Is(err, stuck) {
			t.Errorf("err = %v, want %v", err, stuck)
		}
	})
}

func TestNATSServerService_EmbeddedServer(t *testing.T) {
	t.Parallel()

	server := eventprocessor.NewEmbeddedServer(eventprocessor.ServerConfig{Host: "127.0.0.1", Port: -1})
	svc := NewNATSServerService(server, 2*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for !server.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("embedded server did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if server.IsRunning() {
		t.Error("embedded server still running after shutdown")
	}
}

func TestNATSServerService_DefaultTimeout(t *testing.T) {
	if got := NewNATSServerService(&stubBroker{}, 0).shutdownTimeout; got != 10*time.Second {
		t.Errorf("shutdownTimeout = %v", got)
	}
	if got := NewNATSServerService(&stubBroker{}, 0).String(); got != "nats-server" {
		t.Errorf("String = %q", got)
	}
}
