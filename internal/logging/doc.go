// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

// Package logging provides centralized zerolog-based structured logging for isobusd.
//
// A single global zerolog logger is configured once at startup from the
// logging section of the configuration and shared by every component: the
// CAN intake loop, the HTTP surface, the websocket hub and the NATS publisher.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output for deployments, console output for bench work
//   - Context-aware logging with request and correlation ID propagation
//   - An slog adapter so sutureslog and watermill write through zerolog
//   - A "service" field on every line to tell gateways apart downstream
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("interface", "can0").Msg("CAN source opened")
//	logging.Error().Err(err).Msg("Frame source failed")
//
//	// Inside an HTTP handler
//	logging.Ctx(r.Context()).Debug().Msg("Snapshot served")
//
// # Configuration
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//	LOG_SERVICE - value of the service field (default: isobusd)
//
// # Structured Logging
//
// Always terminate log chains with .Msg() or .Send(). Prefer typed fields
// over formatted messages:
//
//	logging.Debug().Uint32("pgn", pgn).Str("raw", hex).Msg("Unrecognized PGN")
//
// # Testing
//
// NewTestLogger builds a logger writing to an arbitrary writer so tests can
// assert on emitted JSON without touching the global instance.
package logging
