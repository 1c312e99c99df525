// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package models

import (
	"time"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse is the envelope used by every /api/v1 endpoint.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"engine_data": {...}},
//	  "metadata": {"timestamp": "2026-05-04T10:30:00Z", "query_time_ms": 0}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "metadata": {"timestamp": "2026-05-04T10:30:00Z"},
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "Data must be hex encoded and at most 8 bytes",
//	    "details": {"field": "Data", "tag": "canpayload"}
//	  }
//	}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata carries response timing and the request id for tracing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// APIError is a machine-readable error.
//
// Codes in use: VALIDATION_ERROR, BAD_REQUEST, NOT_FOUND,
// RATE_LIMIT_EXCEEDED, SERVICE_UNAVAILABLE, INTERNAL_ERROR.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
