// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/isobusd/internal/intake"
	"github.com/tomtom215/isobusd/internal/j1939"
	"github.com/tomtom215/isobusd/internal/telemetry"
)

// scriptedRunner returns errs in order, then blocks until canceled.
type scriptedRunner struct {
	errs []error
	runs atomic.Int32
}

func (s *scriptedRunner) Run(ctx context.Context) error {
	n := int(s.runs.Add(1))
	if n <= len(s.errs) {
		return s.errs[n-1]
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *scriptedRunner) FramesTotal() uint64 { return 0 }

func TestIntakeService_Interface(t *testing.T) {
	var _ suture.Service = (*IntakeService)(nil)
	var _ FrameRunner = (*intake.Pipeline)(nil)
}

func TestIntakeService_Serve(t *testing.T) {
	t.Parallel()

	busDown := errors.New("can0: network is down")
	tests := []struct {
		name    string
		errs    []error
		wantErr error
	}{
		{"finished replay is not restarted", []error{nil}, suture.ErrDoNotRestart},
		{"source error is returned", []error{busDown}, busDown},
		{"closed source is returned", []error{intake.ErrSourceClosed}, intake.ErrSourceClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := NewIntakeService(&scriptedRunner{errs: tt.errs}).Serve(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIntakeService_RestartsAfterSourceClosed(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{errs: []error{intake.ErrSourceClosed, intake.ErrSourceClosed}}
	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(NewIntakeService(runner))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for runner.runs.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("runs = %d, want 3", runner.runs.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-errCh
}

func TestIntakeService_ReplayToCompletion(t *testing.T) {
	t.Parallel()

	// two EEC1 frames then EOF
	log := "(1700000000.000000) can0 0CF00417#FFFFFF803EFFFFFF\n" +
		"(1700000000.100000) can0 0CF00417#FFFFFF403FFFFFFF\n"
	path := filepath.Join(t.TempDir(), "run.log")
	if err := os.WriteFile(path, []byte(log), 0o600); err != nil {
		t.Fatal(err)
	}

	open, err := intake.NewOpener(intake.SourceConfig{Kind: intake.KindReplay, ReplayFile: path})
	if err != nil {
		t.Fatalf("NewOpener: %v", err)
	}
	agg := telemetry.NewAggregator()
	pipeline, err := intake.NewPipeline(intake.PipelineConfig{
		Open:       open,
		Aggregator: agg,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	err = NewIntakeService(pipeline).Serve(context.Background())
	if !errors.Is(err, suture.ErrDoNotRestart) {
		t.Fatalf("err = %v, want ErrDoNotRestart", err)
	}
	if got := pipeline.FramesTotal(); got != 2 {
		t.Errorf("FramesTotal = %d, want 2", got)
	}
	engine := agg.Query(telemetry.FullQuery()).Records[telemetry.Engine]
	if _, ok := engine.Fields[j1939.FieldEngineSpeed]; !ok {
		t.Errorf("engine fields after replay = %v", engine.Fields)
	}
}

func TestIntakeService_String(t *testing.T) {
	if got := NewIntakeService(&scriptedRunner{}).String(); got != "frame-intake" {
		t.Errorf("got %q", got)
	}
}
