// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

/*
Package services adapts gateway components to suture.Service.

Each wrapper depends only on a small interface so the supervisor package
never imports the component packages, and tests can drive it with stubs:

	IntakeService       FrameRunner     *intake.Pipeline
	WebSocketHubService ContextHub      *websocket.Hub
	NATSServerService   EmbeddedBroker  *eventprocessor.EmbeddedServer
	HTTPServerService   HTTPServer      *http.Server

Returned errors follow suture's conventions: a plain error restarts the
service with backoff, suture.ErrDoNotRestart removes it, and ctx.Err() on
cancellation is a clean stop.
*/
package services
