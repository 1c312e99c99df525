// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

// Package websocket streams decoded telemetry to browsers.
//
// The Hub is an intake.Sink: every frame leaving the pipeline is queued as a
// "telemetry" message and fanned out to connected clients. Queueing never
// blocks the pipeline; when the broadcast queue is full the message is
// dropped and counted, and a client whose own buffer is full is disconnected.
//
// Wire protocol (JSON text frames):
//
//	server -> client  {"type":"telemetry","data":{"pgn":61444,"category":"engine",...}}
//	client -> server  {"type":"subscribe","data":{"categories":["engine","ambiente"]}}
//	server -> client  {"type":"subscribe","data":{"categories":["engine","ambient"]}}
//	client -> server  {"type":"ping"}
//	server -> client  {"type":"pong","data":null}
//
// A subscription filters categorized PGNs only. Unknown PGNs reach clients
// without a filter. Clients are visited in connection order.
package websocket
