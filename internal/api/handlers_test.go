// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/isobusd/internal/intake"
	"github.com/tomtom215/isobusd/internal/j1939"
	"github.com/tomtom215/isobusd/internal/logging"
	"github.com/tomtom215/isobusd/internal/models"
	"github.com/tomtom215/isobusd/internal/telemetry"
	ws "github.com/tomtom215/isobusd/internal/websocket"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

// stubIntake overrides the readiness of a real pipeline.
type stubIntake struct {
	*intake.Pipeline
	ready   bool
	running bool
}

func (s *stubIntake) Ready() bool   { return s.ready }
func (s *stubIntake) Running() bool { return s.running }

type testEnv struct {
	agg      *telemetry.Aggregator
	pipeline *intake.Pipeline
	intake   *stubIntake
	hub      *ws.Hub
	handler  *Handler
	server   http.Handler
}

func newTestEnv(t *testing.T, mw *ChiMiddlewareConfig) *testEnv {
	t.Helper()

	agg := telemetry.NewAggregator(telemetry.WithHistoryCapacity(10))
	hub := ws.NewHub()
	pipeline, err := intake.NewPipeline(intake.PipelineConfig{
		Open: func(context.Context) (intake.Source, error) {
			return intake.NewSimulatorSource(10), nil
		},
		Aggregator: agg,
		Sink:       hub,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	stub := &stubIntake{Pipeline: pipeline}

	handler := NewHandler(HandlerConfig{
		Aggregator:  agg,
		Intake:      stub,
		Hub:         hub,
		CORSOrigins: []string{"*"},
	})
	return &testEnv{
		agg:      agg,
		pipeline: pipeline,
		intake:   stub,
		hub:      hub,
		handler:  handler,
		server:   NewRouter(handler, mw).Setup(),
	}
}

func (e *testEnv) do(t *testing.T, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) inject(t *testing.T, pgn uint32, fields map[string]float64) {
	t.Helper()
	data := []byte{0x01, 0x02}
	if _, ok := j1939.DefaultTable().Lookup(pgn); ok {
		var err error
		if data, err = j1939.DefaultTable().Encode(pgn, fields); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}
	_, err := e.pipeline.Inject(context.Background(), intake.Frame{
		ID:       j1939.BuildID(3, pgn, 0),
		Data:     data,
		Extended: true,
	})
	if err != nil {
		t.Fatalf("Inject: %v", err)
	}
}

type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata models.Metadata `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestLegacySnapshot(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.inject(t, j1939.PGNEEC1, map[string]float64{j1939.FieldEngineSpeed: 1800})
	env.inject(t, j1939.PGNAMB, map[string]float64{j1939.FieldAmbientTemperature: 22})

	tests := []struct {
		name    string
		target  string
		present []string
		absent  []string
	}{
		{"default", "/", []string{"engine_data", "ambient_data", "position_data", "implement_data"}, []string{"historico", "estatisticas"}},
		{"alias", "/telemetry", []string{"engine_data"}, nil},
		{"legacy category", "/?categoria=motor", []string{"engine_data"}, []string{"ambient_data"}},
		{"english category", "/?category=ambient", []string{"ambient_data"}, []string{"engine_data"}},
		{"history and stats", "/?historico=motor&estatisticas", []string{"historico", "estatisticas", `"motor"`}, nil},
		{"unknown names ignored", "/?categoria=hydraulics&bogus=1", nil, []string{"engine_data"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := env.do(t, http.MethodGet, tt.target, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			body := rec.Body.String()
			for _, want := range tt.present {
				if !strings.Contains(body, want) {
					t.Errorf("missing %s in %s", want, body)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(body, unwanted) {
					t.Errorf("unexpected %s in %s", unwanted, body)
				}
			}
		})
	}
}

func TestLegacySnapshot_CORSWildcard(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://viewer.local")
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestSnapshot_Envelope(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.inject(t, j1939.PGNET1, map[string]float64{j1939.FieldCoolantTemperature: 85})

	rec := env.do(t, http.MethodGet, "/api/v1/snapshot?category=engine", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeEnvelope(t, rec)
	if got.Status != models.StatusSuccess || got.Metadata.Timestamp.IsZero() {
		t.Errorf("envelope = %+v", got)
	}
	if got.Metadata.RequestID == "" || got.Metadata.RequestID != rec.Header().Get("X-Request-ID") {
		t.Errorf("request id %q vs header %q", got.Metadata.RequestID, rec.Header().Get("X-Request-ID"))
	}

	var doc map[string]map[string]float64
	if err := json.Unmarshal(got.Data, &doc); err != nil {
		t.Fatalf("data: %v", err)
	}
	if doc["engine_data"][j1939.FieldCoolantTemperature] != 85 {
		t.Errorf("engine_data = %v", doc["engine_data"])
	}
	if _, ok := doc["position_data"]; ok {
		t.Error("unselected category present")
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.inject(t, j1939.PGNVP, map[string]float64{j1939.FieldLatitude: -23.5, j1939.FieldLongitude: -46.6})
	env.inject(t, j1939.PGNVP, map[string]float64{j1939.FieldLatitude: -23.6, j1939.FieldLongitude: -46.6})
	env.inject(t, 0xFECA, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats models.StatsResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &stats); err != nil {
		t.Fatalf("data: %v", err)
	}
	if stats.MessagesTotal != 3 || stats.FramesTotal != 3 {
		t.Errorf("totals = %d messages / %d frames, want 3/3", stats.MessagesTotal, stats.FramesTotal)
	}
	if stats.MessagesByPGN["65267"] != 2 || stats.MessagesByPGN["65226"] != 1 {
		t.Errorf("by PGN = %v", stats.MessagesByPGN)
	}
	if stats.HistoryDepth["position"] != 2 {
		t.Errorf("history depth = %v", stats.HistoryDepth)
	}
	if stats.FrameRates["65267"] <= 0 {
		t.Errorf("frame rates = %v", stats.FrameRates)
	}
}

func TestPGNs(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/pgns", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list []models.PGNInfo
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &list); err != nil {
		t.Fatalf("data: %v", err)
	}

	want := []uint32{j1939.PGNEEC1, telemetry.PGNImplementStatus1, telemetry.PGNImplementStatus2,
		j1939.PGNET1, j1939.PGNEFLP, j1939.PGNVP, j1939.PGNAMB}
	if len(list) != len(want) {
		t.Fatalf("got %d entries, want %d", len(list), len(want))
	}
	for i, info := range list {
		if info.PGN != want[i] {
			t.Errorf("entry %d PGN = %d, want %d", i, info.PGN, want[i])
		}
		if info.Category == "" {
			t.Errorf("PGN %d has no category", info.PGN)
		}
	}
	if len(list[1].SPNs) != 0 {
		t.Errorf("implement PGN has layouts: %v", list[1].SPNs)
	}
}

func TestPGN(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	tests := []struct {
		name   string
		target string
		status int
	}{
		{"decimal", "/api/v1/pgns/65269", http.StatusOK},
		{"hex", "/api/v1/pgns/0xFEF5", http.StatusOK},
		{"implement", "/api/v1/pgns/65098", http.StatusOK},
		{"unknown", "/api/v1/pgns/65226", http.StatusNotFound},
		{"garbage", "/api/v1/pgns/engine", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := env.do(t, http.MethodGet, tt.target, "")
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestInjectFrame(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	// EEC1 from source 0x00, engine speed 0x07D0 * 0.125 = 250 rpm
	rec := env.do(t, http.MethodPost, "/api/v1/frames", `{"id":"0x0CF00400","data":"ff3228d007ffffff"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.FrameResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &resp); err != nil {
		t.Fatalf("data: %v", err)
	}
	if resp.PGN != j1939.PGNEEC1 || !resp.Known || resp.Category != "engine" || resp.Priority != 3 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Fields[j1939.FieldEngineSpeed] != 250 {
		t.Errorf("fields = %v", resp.Fields)
	}

	record, ok := env.agg.Record(telemetry.Engine)
	if !ok || record.Fields[j1939.FieldEngineSpeed] != 250 {
		t.Errorf("aggregator record = %+v", record)
	}
}

func TestInjectFrame_UnknownPGN(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/v1/frames", `{"id":"18FECA00","data":"0102"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.FrameResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &resp); err != nil {
		t.Fatalf("data: %v", err)
	}
	if resp.Known || resp.PGN != 0xFECA || resp.Raw != "0102" || len(resp.Fields) != 0 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestInjectFrame_Rejects(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"id":`, http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown field", `{"id":"0CF00400","data":"00","bus":"can1"}`, http.StatusBadRequest, ErrCodeBadRequest},
		{"missing id", `{"data":"00"}`, http.StatusBadRequest, ErrCodeValidation},
		{"id over 29 bits", `{"id":"0x3FFFFFFF","data":"00"}`, http.StatusBadRequest, ErrCodeValidation},
		{"payload too long", `{"id":"0CF00400","data":"000102030405060708"}`, http.StatusBadRequest, ErrCodeValidation},
		{"body too large", `{"id":"0CF00400","data":"` + strings.Repeat("0", maxRequestBody) + `"}`, http.StatusRequestEntityTooLarge, ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := env.do(t, http.MethodPost, "/api/v1/frames", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			got := decodeEnvelope(t, rec)
			if got.Status != models.StatusError || got.Error == nil || got.Error.Code != tt.code {
				t.Errorf("envelope = %+v", got)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	if rec := env.do(t, http.MethodGet, "/api/v1/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready before frames = %d, want 503", rec.Code)
	}
	if got := decodeEnvelope(t, rec); got.Error == nil || got.Error.Code != ErrCodeServiceUnavailable {
		t.Errorf("envelope = %+v", got)
	}

	env.intake.ready, env.intake.running = true, true
	if rec := env.do(t, http.MethodGet, "/api/v1/health/ready", ""); rec.Code != http.StatusOK {
		t.Errorf("ready after frames = %d, want 200", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/health", "")
	var hs models.HealthStatus
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &hs); err != nil {
		t.Fatalf("data: %v", err)
	}
	if hs.Status != "healthy" || !hs.Running {
		t.Errorf("health = %+v", hs)
	}
}

func TestHealth_DegradedByOpenBreaker(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.intake.running = true
	env.handler.breakerState = func() string { return "open" }

	rec := env.do(t, http.MethodGet, "/api/v1/health", "")
	var hs models.HealthStatus
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &hs); err != nil {
		t.Fatalf("data: %v", err)
	}
	if hs.Status != "degraded" || hs.NATSBreaker != "open" {
		t.Errorf("health = %+v", hs)
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/nothing-here", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeEnvelope(t, rec); got.Error == nil || got.Error.Code != ErrCodeNotFound {
		t.Errorf("envelope = %+v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.inject(t, j1939.PGNEEC1, map[string]float64{j1939.FieldEngineSpeed: 900})

	rec := env.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("can_frames_decoded_total")) {
		t.Error("metrics output missing can_frames_decoded_total")
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitRequests = 2
	mw.RateLimitWindow = time.Minute
	env := newTestEnv(t, mw)

	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodGet, "/api/v1/stats", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := env.do(t, http.MethodGet, "/api/v1/stats", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := decodeEnvelope(t, rec); got.Error == nil || got.Error.Code != ErrCodeRateLimited {
		t.Errorf("envelope = %+v", got)
	}

	// the legacy route has its own budget
	if rec := env.do(t, http.MethodGet, "/", ""); rec.Code != http.StatusOK {
		t.Errorf("legacy status = %d", rec.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	t.Parallel()

	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitRequests = 1
	mw.RateLimitDisabled = true
	env := newTestEnv(t, mw)

	for i := 0; i < 5; i++ {
		if rec := env.do(t, http.MethodGet, "/api/v1/pgns", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
}
