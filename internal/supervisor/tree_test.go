// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// fakeService fails a configured number of times, then runs until canceled
// or, with finish set, returns immediately like a completed replay.
type fakeService struct {
	name     string
	fails    int32
	finish   bool
	starts   atomic.Int32
	failures atomic.Int32
}

func (f *fakeService) Serve(ctx context.Context) error {
	f.starts.Add(1)
	if f.failures.Add(1) <= f.fails {
		return errors.New("simulated bus fault")
	}
	if f.finish {
		return suture.ErrDoNotRestart
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeService) String() string { return f.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTree(t *testing.T) *SupervisorTree {
	t.Helper()
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		IntakeBackoff:    10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	return tree
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSupervisorTreeConstruction(t *testing.T) {
	t.Run("creates hierarchical supervisor tree", func(t *testing.T) {
		tree := newTestTree(t)
		if tree.Root() == nil {
			t.Error("root supervisor should not be nil")
		}
	})

	t.Run("applies default values for zero config", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}
		if tree.config != DefaultTreeConfig() {
			t.Errorf("config = %+v, want defaults", tree.config)
		}
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{FailureThreshold: 2, ShutdownTimeout: time.Second})
		if tree.config.FailureThreshold != 2 || tree.config.ShutdownTimeout != time.Second {
			t.Errorf("config = %+v", tree.config)
		}
		if tree.config.FailureDecay != 30 {
			t.Errorf("FailureDecay = %v, want default", tree.config.FailureDecay)
		}
	})
}

func TestSupervisorTreeLifecycle(t *testing.T) {
	tree := newTestTree(t)

	intake := &fakeService{name: "frame-intake"}
	hub := &fakeService{name: "websocket-hub"}
	http := &fakeService{name: "http-server"}
	tree.Add(LayerData, intake)
	tree.Add(LayerMessaging, hub)
	tree.Add(LayerAPI, http)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitFor(t, func() bool {
		return intake.starts.Load() == 1 && hub.starts.Load() == 1 && http.starts.Load() == 1
	})
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down in time")
	}

	unstopped, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport: %v", err)
	}
	if len(unstopped) != 0 {
		t.Errorf("unstopped services: %v", unstopped)
	}
}

func TestSupervisorTreeFailureHandling(t *testing.T) {
	t.Run("failing intake is restarted without touching the api", func(t *testing.T) {
		tree := newTestTree(t)

		intake := &fakeService{name: "frame-intake", fails: 2}
		api := &fakeService{name: "http-server"}
		tree.Add(LayerData, intake)
		tree.Add(LayerAPI, api)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		errCh := tree.ServeBackground(ctx)

		waitFor(t, func() bool { return intake.starts.Load() >= 3 })
		if got := api.starts.Load(); got != 1 {
			t.Errorf("api started %d times, want 1", got)
		}

		cancel()
		<-errCh
	})

	t.Run("finished service is not restarted", func(t *testing.T) {
		tree := newTestTree(t)

		replay := &fakeService{name: "frame-intake", finish: true}
		tree.Add(LayerData, replay)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		errCh := tree.ServeBackground(ctx)

		waitFor(t, func() bool { return replay.starts.Load() == 1 })
		time.Sleep(50 * time.Millisecond)
		if got := replay.starts.Load(); got != 1 {
			t.Errorf("finished service started %d times, want 1", got)
		}

		cancel()
		<-errCh
	})
}

func TestSupervisorTreeRemove(t *testing.T) {
	tree := newTestTree(t)

	hub := &fakeService{name: "websocket-hub"}
	token := tree.Add(LayerMessaging, hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitFor(t, func() bool { return hub.starts.Load() == 1 })
	if err := tree.Remove(LayerMessaging, token); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	cancel()
	<-errCh
}

func TestDefaultTreeConfig(t *testing.T) {
	config := DefaultTreeConfig()

	if config.FailureThreshold != 5.0 {
		t.Errorf("expected FailureThreshold 5.0, got %f", config.FailureThreshold)
	}
	if config.FailureDecay != 30.0 {
		t.Errorf("expected FailureDecay 30.0, got %f", config.FailureDecay)
	}
	if config.FailureBackoff != 15*time.Second {
		t.Errorf("expected FailureBackoff 15s, got %v", config.FailureBackoff)
	}
	if config.IntakeBackoff != 2*time.Second {
		t.Errorf("expected IntakeBackoff 2s, got %v", config.IntakeBackoff)
	}
	if config.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected ShutdownTimeout 10s, got %v", config.ShutdownTimeout)
	}
}

func TestNewSupervisorTree_RequiresLogger(t *testing.T) {
	if _, err := NewSupervisorTree(nil, TreeConfig{}); err == nil {
		t.Error("expected error for nil logger")
	}
}

func TestLayer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		layer Layer
		want  string
	}{
		{LayerData, "data-layer"},
		{LayerMessaging, "messaging-layer"},
		{LayerAPI, "api-layer"},
		{Layer(7), "layer(7)"},
	}
	for _, tt := range tests {
		if got := tt.layer.String(); got != tt.want {
			t.Errorf("Layer(%d).String() = %q, want %q", int(tt.layer), got, tt.want)
		}
	}

	tree := newTestTree(t)
	defer func() {
		if recover() == nil {
			t.Error("Add with unknown layer did not panic")
		}
	}()
	tree.Add(Layer(-1), &fakeService{name: "stray"})
}
