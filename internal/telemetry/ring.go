// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package telemetry

// DefaultHistoryCapacity is the per-category history size.
const DefaultHistoryCapacity = 1000

// Ring is a fixed-capacity circular buffer. Push evicts the oldest entry once
// full, so Len never exceeds Cap. Ring is not safe for concurrent use; the
// owning category lock guards it.
type Ring[T any] struct {
	buf  []T
	head int // index of the oldest entry
	size int
}

// NewRing allocates a ring holding at most capacity entries.
// A non-positive capacity falls back to DefaultHistoryCapacity.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, overwriting the oldest entry when full.
func (r *Ring[T]) Push(v T) {
	capacity := len(r.buf)
	if r.size < capacity {
		r.buf[(r.head+r.size)%capacity] = v
		r.size++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % capacity
}

// Len returns the number of stored entries.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Items returns the entries oldest first in a new slice.
func (r *Ring[T]) Items() []T {
	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Newest returns the most recent entry.
func (r *Ring[T]) Newest() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	return r.buf[(r.head+r.size-1)%len(r.buf)], true
}
