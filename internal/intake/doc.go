// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

/*
Package intake moves CAN frames from the bus into the telemetry aggregator.

# Sources

A Source yields frames one at a time:

  - SocketCANSource reads a Linux SocketCAN interface through
    go.einride.tech/can. Standard 11-bit frames are dropped.
  - CandumpSource replays a `candump -l` log, optionally looped and paced
    with golang.org/x/time/rate.
  - SimulatorSource synthesizes engine, position, ambient and implement
    traffic, plus a PGN the decoder does not know.

# Pipeline

Pipeline.Run is the service body supervised by the intake service:

	Source.Next -> j1939 decode -> Aggregator.Ingest -> Sink.Publish

Every extended frame is ingested, including unknown PGNs, so statistics
count all bus traffic. A bad frame never stops the loop. Source errors are
retried with exponential backoff; a closed source ends Run with an error so
the supervisor restarts it with a freshly opened one.

The pipeline logs how many frames arrived during each rate log interval and
keeps per-PGN rates for the stats endpoint.
*/
package intake
