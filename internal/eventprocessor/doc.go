// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

// Package eventprocessor publishes decoded telemetry to NATS.
//
// Every frame that leaves the intake pipeline becomes a TelemetryEvent and is
// published through a Watermill NATS publisher on
//
//	<subject_prefix>.<category>
//
// where category is engine, position, ambient, implement or unknown. Farm
// management systems subscribe with wildcards, e.g. isobus.telemetry.>.
//
// Publishing is guarded by a gobreaker circuit breaker. When the broker is
// unreachable the breaker opens and events are dropped rather than queued;
// the HTTP snapshot remains the source of truth for current state.
//
// For standalone deployments EmbeddedServer runs nats-server in process.
package eventprocessor
