// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the configuration loader and the
// HTTP handlers. It caches struct metadata, so it is built once with
// WithRequiredStructEnabled and two CAN-specific tags:
//
//	canid       29-bit identifier, as an unsigned integer or hex string
//	canpayload  hex string decoding to at most 8 bytes
//
// Example:
//
//	type injectFrameRequest struct {
//	    ID   string `json:"id" validate:"required,canid"`
//	    Data string `json:"data" validate:"canpayload"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	}
//
// Errors are translated into the VALIDATION_ERROR envelope used across the
// /api/v1 routes.
package validation
