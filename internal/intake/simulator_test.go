// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package intake

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/isobusd/internal/j1939"
	"github.com/tomtom215/isobusd/internal/telemetry"
)

func TestSimulatorSource_CoversSchedule(t *testing.T) {
	t.Parallel()

	src := NewSimulatorSource(10000)
	defer src.Close()

	seen := make(map[uint32]int)
	categories := make(map[telemetry.Category]bool)
	for i := 0; i < 2*len(simSchedule); i++ {
		frame, err := src.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !frame.Extended || len(frame.Data) != j1939.PayloadSize {
			t.Fatalf("frame %d = %+v", i, frame)
		}

		msg, known := j1939.Decode(frame.ID, frame.Data)
		seen[msg.PGN]++
		if cat, ok := telemetry.CategoryOf(msg.PGN); ok {
			categories[cat] = true
		}
		if known && len(msg.Fields) == 0 {
			t.Errorf("PGN %d decoded with no fields", msg.PGN)
		}
		if msg.PGN == j1939.PGNEEC1 {
			if rpm := msg.Fields[j1939.FieldEngineSpeed]; rpm < 1300 || rpm > 2100 {
				t.Errorf("engine speed %v outside simulated band", rpm)
			}
		}
	}

	for _, cat := range telemetry.AllCategories() {
		if !categories[cat] {
			t.Errorf("no simulated traffic for category %s", cat)
		}
	}
	if seen[simDM1PGN] == 0 {
		t.Error("no unknown-PGN traffic")
	}
}

func TestSimulatorSource_Close(t *testing.T) {
	t.Parallel()

	src := NewSimulatorSource(10000)
	_ = src.Close()
	if _, err := src.Next(context.Background()); !errors.Is(err, ErrSourceClosed) {
		t.Errorf("err = %v, want ErrSourceClosed", err)
	}
}
