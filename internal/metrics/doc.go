// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

/*
Package metrics provides Prometheus metrics for the gateway.

All collectors are registered on the default registry through promauto at
package initialization and are exposed at /metrics by the HTTP surface:

	curl http://localhost:8080/metrics

# Available Metrics

CAN intake:

	can_frames_received_total{source}
	can_frames_decoded_total{pgn}
	can_frames_undecoded_total{reason}       unknown_pgn, standard_id
	can_field_decode_errors_total{pgn,field}
	can_source_errors_total{source}
	can_frame_rate                           frames/s over the rate log window

Telemetry:

	telemetry_ingest_duration_seconds
	telemetry_messages_total{category}       engine, position, ambient, implement, uncategorized
	telemetry_history_entries{category}

HTTP, websocket and NATS:

	api_requests_total{method,endpoint,status_code}
	api_request_duration_seconds{method,endpoint}
	api_active_requests
	api_rate_limit_hits_total{endpoint}
	websocket_connections
	websocket_messages_sent_total
	websocket_messages_dropped_total
	nats_messages_published_total{subject}
	nats_publish_errors_total{reason}
	circuit_breaker_state{name}
	circuit_breaker_state_transitions_total{name,from_state,to_state}

# Usage

Callers use the Record* helpers rather than touching collectors directly:

	metrics.RecordFrameReceived("socketcan")
	metrics.RecordIngest("engine", time.Since(start))
*/
package metrics
