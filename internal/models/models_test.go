// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/isobusd/internal/validation"
)

func TestAPIResponse_ErrorEnvelope(t *testing.T) {
	t.Parallel()

	resp := APIResponse{
		Status:   StatusError,
		Metadata: Metadata{Timestamp: time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)},
		Error:    &APIError{Code: "NOT_FOUND", Message: "no such PGN"},
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"status":"error"`, `"data":null`, `"code":"NOT_FOUND"`, `"timestamp":"2026-05-04T10:30:00Z"`} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %s in %s", want, s)
		}
	}
	if strings.Contains(s, "query_time_ms") || strings.Contains(s, "details") {
		t.Errorf("zero fields not omitted: %s", s)
	}
}

func TestFrameRequest_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     FrameRequest
		wantErr bool
	}{
		{"valid", FrameRequest{ID: "0x0CF00400", Data: "ff3228d007ffffff"}, false},
		{"bare hex id", FrameRequest{ID: "18FEF500", Data: ""}, false},
		{"missing id", FrameRequest{Data: "00"}, true},
		{"id too wide", FrameRequest{ID: "0x20000000", Data: "00"}, true},
		{"odd payload", FrameRequest{ID: "0CF00400", Data: "abc"}, true},
		{"payload too long", FrameRequest{ID: "0CF00400", Data: "000102030405060708"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validation.ValidateStruct(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
