// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package telemetry

import "testing"

func TestRing_FIFOEviction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		capacity int
		pushes   int
	}{
		{"under capacity", 5, 3},
		{"exactly full", 5, 5},
		{"wrapped once", 5, 7},
		{"wrapped many times", 3, 100},
		{"capacity one", 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewRing[int](tt.capacity)
			for i := 0; i < tt.pushes; i++ {
				r.Push(i)
				if r.Len() > r.Cap() {
					t.Fatalf("Len() = %d exceeds Cap() = %d", r.Len(), r.Cap())
				}
			}

			wantLen := min(tt.pushes, tt.capacity)
			items := r.Items()
			if len(items) != wantLen {
				t.Fatalf("len(Items()) = %d, want %d", len(items), wantLen)
			}
			first := tt.pushes - wantLen
			for i, v := range items {
				if v != first+i {
					t.Errorf("Items()[%d] = %d, want %d", i, v, first+i)
				}
			}
			newest, ok := r.Newest()
			if !ok || newest != tt.pushes-1 {
				t.Errorf("Newest() = %d, %v; want %d", newest, ok, tt.pushes-1)
			}
		})
	}
}

func TestRing_Empty(t *testing.T) {
	t.Parallel()

	r := NewRing[string](0)
	if r.Cap() != DefaultHistoryCapacity {
		t.Errorf("Cap() = %d, want default %d", r.Cap(), DefaultHistoryCapacity)
	}
	if _, ok := r.Newest(); ok {
		t.Error("Newest() on empty ring should report false")
	}
	if len(r.Items()) != 0 {
		t.Error("Items() on empty ring should be empty")
	}
}

func TestRing_ItemsIsACopy(t *testing.T) {
	t.Parallel()

	r := NewRing[int](2)
	r.Push(1)
	items := r.Items()
	items[0] = 42
	if got := r.Items()[0]; got != 1 {
		t.Errorf("mutating Items() result changed the ring: got %d", got)
	}
}
