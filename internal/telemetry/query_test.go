// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package telemetry

import (
	"net/url"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/isobusd/internal/j1939"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"motor", Engine, true},
		{"engine", Engine, true},
		{" Posicao ", Position, true},
		{"position", Position, true},
		{"ambiente", Ambient, true},
		{"AMBIENT", Ambient, true},
		{"implemento", Implement, true},
		{"implement", Implement, true},
		{"transmissao", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseCategory(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseCategory(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		query          string
		wantCategories []Category
		wantHistory    []Category
		wantStats      bool
	}{
		{
			name:  "no parameters",
			query: "",
		},
		{
			name:           "legacy category list",
			query:          "categoria=motor,posicao",
			wantCategories: []Category{Engine, Position},
		},
		{
			name:           "unknown names ignored",
			query:          "categoria=motor,transmissao,,ambiente",
			wantCategories: []Category{Engine, Ambient},
		},
		{
			name:           "only unknown names selects nothing",
			query:          "categoria=foo",
			wantCategories: []Category{},
		},
		{
			name:           "duplicates collapse across repeats",
			query:          "categoria=motor&category=engine,implement",
			wantCategories: []Category{Engine, Implement},
		},
		{
			name:        "history list",
			query:       "historico=ambiente,motor",
			wantHistory: []Category{Ambient, Engine},
		},
		{
			name:        "empty history still present",
			query:       "historico=",
			wantHistory: []Category{},
		},
		{
			name:      "statistics presence flag",
			query:     "estatisticas",
			wantStats: true,
		},
		{
			name:      "english statistics alias",
			query:     "stats=1",
			wantStats: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("url.ParseQuery: %v", err)
			}
			spec := ParseQuery(values)

			if (spec.Categories == nil) != (tt.wantCategories == nil) || !slices.Equal(spec.Categories, tt.wantCategories) {
				t.Errorf("Categories = %#v, want %#v", spec.Categories, tt.wantCategories)
			}
			if (spec.History == nil) != (tt.wantHistory == nil) || !slices.Equal(spec.History, tt.wantHistory) {
				t.Errorf("History = %#v, want %#v", spec.History, tt.wantHistory)
			}
			if spec.Stats != tt.wantStats {
				t.Errorf("Stats = %v, want %v", spec.Stats, tt.wantStats)
			}
		})
	}
}

func TestSnapshot_JSONShape(t *testing.T) {
	t.Parallel()

	ts := time.Unix(1700000000, 500_000_000)
	agg := NewAggregator(WithClock(func() time.Time { return ts }))
	agg.Ingest(j1939.Message{PGN: 61444, Fields: map[string]float64{j1939.FieldEngineSpeed: 250}})
	agg.Ingest(j1939.Message{PGN: 65097, Fields: map[string]float64{"Hitch_Position": 12}})
	agg.Ingest(j1939.Message{PGN: 65265})

	snap := agg.Query(QuerySpec{
		Categories: []Category{Engine, Implement},
		History:    []Category{Engine},
		Stats:      true,
	})
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"engine_data", "implement_data", "historico", "estatisticas"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	for _, key := range []string{"position_data", "ambient_data"} {
		if _, ok := doc[key]; ok {
			t.Errorf("unexpected key %q in %s", key, data)
		}
	}

	var engine map[string]float64
	if err := json.Unmarshal(doc["engine_data"], &engine); err != nil {
		t.Fatalf("engine_data: %v", err)
	}
	if engine[j1939.FieldEngineSpeed] != 250 || engine["last_updated"] != 1700000000.5 {
		t.Errorf("engine_data = %v", engine)
	}

	var implement struct {
		Status      map[string]float64 `json:"status"`
		LastUpdated float64            `json:"last_updated"`
	}
	if err := json.Unmarshal(doc["implement_data"], &implement); err != nil {
		t.Fatalf("implement_data: %v", err)
	}
	if implement.Status["Hitch_Position"] != 12 || implement.LastUpdated != 1700000000.5 {
		t.Errorf("implement_data = %+v", implement)
	}

	var hist map[string][]struct {
		Timestamp float64            `json:"timestamp"`
		Dados     map[string]float64 `json:"dados"`
	}
	if err := json.Unmarshal(doc["historico"], &hist); err != nil {
		t.Fatalf("historico: %v", err)
	}
	if len(hist["motor"]) != 1 || hist["motor"][0].Dados[j1939.FieldEngineSpeed] != 250 {
		t.Errorf("historico = %+v", hist)
	}

	if !strings.Contains(string(doc["estatisticas"]), `"mensagens_total":3`) {
		t.Errorf("estatisticas = %s", doc["estatisticas"])
	}
	if !strings.Contains(string(doc["estatisticas"]), `"65265":1`) {
		t.Errorf("uncategorized PGN missing from estatisticas: %s", doc["estatisticas"])
	}
}

func TestSnapshot_NeverUpdatedCategory(t *testing.T) {
	t.Parallel()

	snap := NewAggregator().Query(QuerySpec{Categories: []Category{Ambient}})
	doc := snap.Document()
	body, ok := doc["ambient_data"].(map[string]any)
	if !ok {
		t.Fatalf("ambient_data missing: %v", doc)
	}
	if body["last_updated"] != float64(0) {
		t.Errorf("last_updated = %v, want 0", body["last_updated"])
	}
}
