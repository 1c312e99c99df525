// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

/*
Package config provides centralized configuration management for isobusd.

Configuration is loaded with koanf v2 from three layers, later layers
overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file: $CONFIG_PATH, ./config.yaml or /etc/isobusd/config.yaml
 3. Environment variables

# Environment Variables

Server:
  - HTTP_HOST (default: 0.0.0.0)
  - HTTP_PORT (default: 8080)
  - HTTP_TIMEOUT (default: 30s)
  - HTTP_SHUTDOWN_TIMEOUT (default: 10s)

CAN intake:
  - CAN_SOURCE: socketcan, replay or simulator (default: socketcan)
  - CAN_INTERFACE (default: can0)
  - CAN_REPLAY_FILE: candump -l log, required for replay
  - CAN_REPLAY_LOOP (default: false)
  - CAN_REPLAY_RATE: frames/s, 0 for unpaced (default: 0)
  - CAN_SIMULATE_RATE: frames/s (default: 50)

Telemetry:
  - HISTORY_CAPACITY: entries kept per category (default: 1000)
  - RATE_LOG_INTERVAL (default: 5s)

Logging:
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json, console (default: json)
  - LOG_CALLER (default: false)

Security:
  - CORS_ORIGINS: comma-separated (default: *)
  - RATE_LIMIT_REQUESTS (default: 600)
  - RATE_LIMIT_WINDOW (default: 1m)
  - DISABLE_RATE_LIMIT (default: false)

NATS:
  - NATS_ENABLED (default: false)
  - NATS_URL (default: nats://127.0.0.1:4222)
  - NATS_EMBEDDED, NATS_EMBEDDED_PORT
  - NATS_SUBJECT_PREFIX (default: isobus.telemetry)
  - NATS_MAX_RECONNECTS, NATS_RECONNECT_WAIT
  - NATS_BREAKER_MAX_REQUESTS, NATS_BREAKER_INTERVAL,
    NATS_BREAKER_TIMEOUT, NATS_BREAKER_FAILURE_THRESHOLD

WebSocket:
  - WEBSOCKET_ENABLED (default: true)

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal().Err(err).Msg("Failed to load configuration")
	}
*/
package config
