// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reasons a frame did not produce decoded fields.
const (
	UndecodedUnknownPGN  = "unknown_pgn"
	UndecodedNotExtended = "standard_id"
)

var (
	// CAN intake metrics
	CANFramesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "can_frames_received_total",
			Help: "Total number of CAN frames read from the frame source",
		},
		[]string{"source"},
	)

	CANFramesDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "can_frames_decoded_total",
			Help: "Total number of frames decoded by PGN",
		},
		[]string{"pgn"},
	)

	CANFramesUndecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "can_frames_undecoded_total",
			Help: "Total number of frames that produced no decoded fields",
		},
		[]string{"reason"},
	)

	CANFieldDecodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "can_field_decode_errors_total",
			Help: "Total number of SPN fields skipped because their layout could not be extracted",
		},
		[]string{"pgn", "field"},
	)

	CANSourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "can_source_errors_total",
			Help: "Total number of frame source read errors",
		},
		[]string{"source"},
	)

	CANFrameRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "can_frame_rate",
			Help: "Frames per second received over the rate log window",
		},
	)

	// Telemetry aggregator metrics
	TelemetryIngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telemetry_ingest_duration_seconds",
			Help:    "Time spent decoding and ingesting one frame",
			Buckets: []float64{0.000005, 0.00001, 0.000025, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.005},
		},
	)

	TelemetryMessagesByCategory = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_messages_total",
			Help: "Total number of ingested messages by category",
		},
		[]string{"category"},
	)

	TelemetryHistoryDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telemetry_history_entries",
			Help: "Current number of history entries held per category",
		},
		[]string{"category"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Total number of WebSocket messages dropped for full queues or slow clients",
		},
	)

	// NATS publishing metrics
	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of telemetry events published to NATS",
		},
		[]string{"subject"},
	)

	NATSPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_publish_errors_total",
			Help: "Total number of failed NATS publishes",
		},
		[]string{"reason"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordFrameReceived counts one frame read from a source.
func RecordFrameReceived(source string) {
	CANFramesReceived.WithLabelValues(source).Inc()
}

// RecordFrameDecoded counts one decoded frame.
func RecordFrameDecoded(pgn uint32) {
	CANFramesDecoded.WithLabelValues(strconv.FormatUint(uint64(pgn), 10)).Inc()
}

// RecordFrameUndecoded counts one frame that did not decode.
func RecordFrameUndecoded(reason string) {
	CANFramesUndecoded.WithLabelValues(reason).Inc()
}

// RecordFieldDecodeError counts one skipped SPN.
func RecordFieldDecodeError(pgn uint32, field string) {
	CANFieldDecodeErrors.WithLabelValues(strconv.FormatUint(uint64(pgn), 10), field).Inc()
}

// RecordSourceError counts one frame source failure.
func RecordSourceError(source string) {
	CANSourceErrors.WithLabelValues(source).Inc()
}

// RecordIngest records the decode+ingest latency and category of one frame.
// An empty category means the PGN is not categorized.
func RecordIngest(category string, duration time.Duration) {
	TelemetryIngestDuration.Observe(duration.Seconds())
	if category == "" {
		category = "uncategorized"
	}
	TelemetryMessagesByCategory.WithLabelValues(category).Inc()
}

// SetHistoryDepth updates the history gauge for a category.
func SetHistoryDepth(category string, entries int) {
	TelemetryHistoryDepth.WithLabelValues(category).Set(float64(entries))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordNATSPublish counts a published event, or a failure when err != nil.
func RecordNATSPublish(subject string, err error, breakerOpen bool) {
	switch {
	case err == nil:
		NATSMessagesPublished.WithLabelValues(subject).Inc()
	case breakerOpen:
		NATSPublishErrors.WithLabelValues("circuit_open").Inc()
	default:
		NATSPublishErrors.WithLabelValues("publish_failed").Inc()
	}
}

// RecordCircuitBreakerTransition updates breaker state metrics.
// States follow gobreaker numbering: 0 closed, 1 half-open, 2 open.
func RecordCircuitBreakerTransition(name, from, to string, toState int) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(float64(toState))
}
