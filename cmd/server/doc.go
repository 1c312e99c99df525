// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

/*
Package main is the entry point for the isobusd gateway.

isobusd reads J1939/ISOBUS frames from a tractor's CAN bus (SocketCAN), a
candump log replay, or a built-in simulator, decodes the engine, position,
ambient and implement parameter groups, and serves the aggregated state
over HTTP, a WebSocket push feed, and optionally NATS.

# Application Architecture

	RootSupervisor ("isobusd")
	├── DataSupervisor ("data-layer")
	│   └── frame-intake (source -> decoder -> aggregator -> sinks)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── websocket-hub (if WEBSOCKET_ENABLED)
	│   └── nats-server (if NATS_EMBEDDED)
	└── APISupervisor ("api-layer")
	    └── http-server

Sinks receive every decoded extended frame after it is aggregated: the
WebSocket hub and, when NATS_ENABLED, a Watermill publisher guarded by a
circuit breaker.

# Configuration

Koanf v2 layers, highest priority last:
  - Built-in defaults
  - Config file (CONFIG_PATH, or ./config.yaml, /etc/isobusd/config.yaml)
  - Environment variables (CAN_SOURCE, CAN_INTERFACE, HTTP_PORT, ...)

# Example Usage

Live bus on can0:

	sudo ip link set can0 up type can bitrate 250000
	CAN_SOURCE=socketcan CAN_INTERFACE=can0 ./isobusd

Replay a field log once:

	CAN_SOURCE=replay CAN_REPLAY_FILE=field.log ./isobusd

Simulator with an embedded NATS server:

	CAN_SOURCE=simulator NATS_ENABLED=true NATS_EMBEDDED=true ./isobusd
	nats sub 'isobus.telemetry.>'

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
HTTP_SHUTDOWN_TIMEOUT, WebSocket clients are closed, the frame source is
released, and the NATS publisher is closed last.
*/
package main
