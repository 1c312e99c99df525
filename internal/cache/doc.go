// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

/*
Package cache provides small thread-safe in-memory structures for traffic
accounting on the CAN intake path.

# Sliding Window Counters

SlidingWindowCounter divides a window into fixed buckets held in a circular
buffer. Increment is O(1); Count sums the buckets, O(k) in the bucket count.
Expired buckets are cleared lazily whenever the counter is touched.

The intake pipeline keeps one counter for all received frames (the periodic
"frames received" log line) and a SlidingWindowStore keyed by PGN, which the
HTTP surface reports as per-PGN frame rates.

	frames := cache.NewSlidingWindowCounter(5*time.Second, 10)
	frames.IncrementOne()
	log.Info().Int64("frames", frames.Count()).Msg("Frames received")

	perPGN := cache.NewSlidingWindowStore[uint32](10*time.Second, 10, 256)
	perPGN.Increment(61444)

# Time Source

Both types take an optional clock (WithClock) so tests can advance time
deterministically instead of sleeping.
*/
package cache
