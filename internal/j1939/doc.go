// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

// Package j1939 decodes single-frame SAE J1939 / ISOBUS CAN messages into
// named engineering-unit values.
//
// Decoding is driven by a static table mapping a Parameter Group Number (PGN)
// to the bit layouts of its Suspect Parameter Numbers (SPNs). The table is
// built once and never mutated, so Decode is a pure function of its inputs
// and is safe to call from any goroutine without synchronization.
//
// # PGN Extraction
//
// The PGN is taken from the 29-bit identifier as
//
//	pgn = (id >> 8) & 0x1FFFF
//
// which keeps the PDU format and PDU specific bytes plus the data page bit.
//
// # Field Extraction
//
// For each SPN layout the decoder reads ceil(bits/8) bytes starting at
// start_bit/8 as a little-endian unsigned integer, shifts right by
// start_bit%8, masks to the field width and multiplies by the resolution.
// Bytes beyond the end of a short payload count as zero.
//
// A layout that cannot be extracted (zero width, wider than 32 bits,
// non-finite resolution) is skipped and reported through the optional
// FieldErrorHandler; its siblings still decode.
//
// # Supported Parameter Groups
//
//	61444  EEC1     engine speed, percent load, actual torque
//	65262  ET1      coolant and fuel temperature
//	65263  EFL/P1   fuel delivery and oil pressure
//	65267  VP       latitude and longitude
//	65269  AMB      ambient and air inlet temperature
//
// Unknown PGNs are not an error: Decode reports no match and the caller
// decides whether to surface the raw payload (see RawHex).
package j1939
