// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package cache

import (
	"sort"
	"sync"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// SlidingWindowCounter counts events within a trailing time window.
//
// Complexity:
//   - Increment: O(1)
//   - Count: O(k) where k = number of buckets
//   - Memory: O(k)
type SlidingWindowCounter struct {
	mu         sync.Mutex
	buckets    []int64       // circular buffer of bucket counts
	bucketSize time.Duration // duration of each bucket
	window     time.Duration
	current    int
	lastUpdate time.Time
	now        Clock
}

// NewSlidingWindowCounter creates a counter over window split into numBuckets.
//
// Example: NewSlidingWindowCounter(5*time.Second, 10) keeps ten 500ms buckets.
func NewSlidingWindowCounter(window time.Duration, numBuckets int) *SlidingWindowCounter {
	return newCounter(window, numBuckets, time.Now)
}

func newCounter(window time.Duration, numBuckets int, now Clock) *SlidingWindowCounter {
	if numBuckets <= 0 {
		numBuckets = 10
	}
	if window <= 0 {
		window = 5 * time.Second
	}
	bucketSize := window / time.Duration(numBuckets)
	if bucketSize <= 0 {
		bucketSize = 1
	}
	return &SlidingWindowCounter{
		buckets:    make([]int64, numBuckets),
		bucketSize: bucketSize,
		window:     window,
		lastUpdate: now(),
		now:        now,
	}
}

// WithClock replaces the counter's time source. It resets the counter.
func (sw *SlidingWindowCounter) WithClock(now Clock) *SlidingWindowCounter {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.now = now
	sw.lastUpdate = now()
	sw.current = 0
	clear(sw.buckets)
	return sw
}

// Window returns the window duration.
func (sw *SlidingWindowCounter) Window() time.Duration {
	return sw.window
}

// Increment adds delta to the current bucket.
func (sw *SlidingWindowCounter) Increment(delta int64) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.advance()
	sw.buckets[sw.current] += delta
}

// IncrementOne adds 1 to the current bucket.
func (sw *SlidingWindowCounter) IncrementOne() {
	sw.Increment(1)
}

// Count returns the number of events in the window.
func (sw *SlidingWindowCounter) Count() int64 {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.advance()
	var total int64
	for _, c := range sw.buckets {
		total += c
	}
	return total
}

// Rate returns events per second over the window.
func (sw *SlidingWindowCounter) Rate() float64 {
	return float64(sw.Count()) / sw.window.Seconds()
}

// advance clears buckets that fell out of the window. Must be called with lock held.
func (sw *SlidingWindowCounter) advance() {
	now := sw.now()
	elapsed := int(now.Sub(sw.lastUpdate) / sw.bucketSize)
	if elapsed <= 0 {
		return
	}

	if elapsed >= len(sw.buckets) {
		clear(sw.buckets)
		sw.current = 0
	} else {
		for i := 0; i < elapsed; i++ {
			sw.current = (sw.current + 1) % len(sw.buckets)
			sw.buckets[sw.current] = 0
		}
	}
	// keep bucket boundaries aligned instead of drifting to now
	sw.lastUpdate = sw.lastUpdate.Add(time.Duration(elapsed) * sw.bucketSize)
}

// SlidingWindowStore keeps one counter per key, bounded by maxKeys.
type SlidingWindowStore[K comparable] struct {
	mu         sync.RWMutex
	counters   map[K]*SlidingWindowCounter
	window     time.Duration
	numBuckets int
	maxKeys    int // 0 = unlimited
	now        Clock
}

// NewSlidingWindowStore creates an empty store.
func NewSlidingWindowStore[K comparable](window time.Duration, numBuckets, maxKeys int) *SlidingWindowStore[K] {
	return &SlidingWindowStore[K]{
		counters:   make(map[K]*SlidingWindowCounter),
		window:     window,
		numBuckets: numBuckets,
		maxKeys:    maxKeys,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for counters created afterwards.
func (s *SlidingWindowStore[K]) WithClock(now Clock) *SlidingWindowStore[K] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Increment adds 1 to key's counter, creating it if needed. When the store
// is full, the counter with the fewest events in its window is evicted.
func (s *SlidingWindowStore[K]) Increment(key K) {
	s.mu.RLock()
	counter, ok := s.counters[key]
	s.mu.RUnlock()

	if !ok {
		s.mu.Lock()
		counter, ok = s.counters[key]
		if !ok {
			if s.maxKeys > 0 && len(s.counters) >= s.maxKeys {
				s.evictQuietest()
			}
			counter = newCounter(s.window, s.numBuckets, s.now)
			s.counters[key] = counter
		}
		s.mu.Unlock()
	}
	counter.IncrementOne()
}

// Count returns key's count within the window.
func (s *SlidingWindowStore[K]) Count(key K) int64 {
	s.mu.RLock()
	counter, ok := s.counters[key]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return counter.Count()
}

// Rates returns events per second for every key with traffic in the window.
func (s *SlidingWindowStore[K]) Rates() map[K]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[K]float64, len(s.counters))
	for key, counter := range s.counters {
		if n := counter.Count(); n > 0 {
			out[key] = float64(n) / s.window.Seconds()
		}
	}
	return out
}

// Len returns the number of tracked keys.
func (s *SlidingWindowStore[K]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.counters)
}

// evictQuietest must be called with the write lock held.
func (s *SlidingWindowStore[K]) evictQuietest() {
	type entry struct {
		key   K
		count int64
	}
	entries := make([]entry, 0, len(s.counters))
	for key, counter := range s.counters {
		entries = append(entries, entry{key, counter.Count()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].count < entries[j].count })
	if len(entries) > 0 {
		delete(s.counters, entries[0].key)
	}
}
