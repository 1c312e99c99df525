// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

/*
Package supervisor provides process supervision for isobusd using suture v4.

Every long-running component of the gateway runs as a suture.Service inside
a three-layer tree:

	RootSupervisor ("isobusd")
	├── DataSupervisor ("data-layer")
	│   └── IntakeService (frame source + decoder + aggregator)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocketHubService (if websocket.enabled)
	│   └── NATSServerService (if nats.embedded)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A CAN interface that goes down, or a replay file that cannot be reopened,
restarts the intake service after TreeConfig.IntakeBackoff while the HTTP API keeps
answering from the aggregator. A replay that reaches its end stops the
intake service for good; the API stays up so the final state can be read.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	tree.Add(supervisor.LayerData, services.NewIntakeService(pipeline))
	tree.Add(supervisor.LayerMessaging, services.NewWebSocketHubService(hub))
	tree.Add(supervisor.LayerAPI, services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	errCh := tree.ServeBackground(ctx)

Supervisor events (start, failure, backoff, restart) are logged through
sutureslog into the zerolog-backed slog.Logger.
*/
package supervisor
