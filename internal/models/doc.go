// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

// Package models defines the request and response types of the /api/v1
// HTTP surface. The legacy viewer endpoint serves telemetry.Snapshot directly
// and does not use these wrappers.
package models
