// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

/*
Package middleware provides HTTP middleware shared by the API router.

  - RequestID: X-Request-ID propagation with a request-scoped zerolog logger
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled by
    chi route pattern

Both are written as http.HandlerFunc decorators and adapted to chi's
func(http.Handler) http.Handler form by the api package.
*/
package middleware
