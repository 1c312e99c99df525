// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

/*
Package api serves the HTTP surface of isobusd using the chi router.

Routes:

	GET  /                       legacy snapshot document (viewer polling)
	GET  /telemetry              alias of /
	GET  /api/v1/snapshot        snapshot in the APIResponse envelope
	GET  /api/v1/stats           message counters and frame rates
	GET  /api/v1/pgns            decoder catalogue
	GET  /api/v1/pgns/{pgn}      one catalogue entry
	POST /api/v1/frames          inject a frame {"id":"0CF00400","data":"ff..."}
	GET  /api/v1/ws              websocket live feed
	GET  /api/v1/health          component status
	GET  /api/v1/health/live     liveness
	GET  /api/v1/health/ready    readiness (intake running and receiving)
	GET  /metrics                Prometheus exposition

The legacy routes accept categoria/category, historico/history and
estatisticas/stats query parameters and always answer 200 with JSON.
Unknown parameters and names are ignored.

Every request gets an X-Request-ID and Prometheus instrumentation. The
/api/v1 group is rate limited per client IP with httprate; the legacy routes
and health probes use separate, more permissive limits.
*/
package api
