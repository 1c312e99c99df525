// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package telemetry

import (
	"net/url"
	"strings"
)

// Query parameter names understood by ParseQuery. The first of each pair is
// the name the legacy viewer sends.
var (
	categoryParams = []string{"categoria", "category"}
	historyParams  = []string{"historico", "history"}
	statsParams    = []string{"estatisticas", "stats"}
)

// QuerySpec selects what a Query returns.
//
// A nil Categories selects all four records; a non-nil empty slice selects
// none. A nil History omits history entirely; a non-nil slice includes the
// historico section with the listed categories.
type QuerySpec struct {
	Categories []Category
	History    []Category
	Stats      bool
}

// FullQuery selects every record, every history and the statistics.
func FullQuery() QuerySpec {
	return QuerySpec{History: AllCategories(), Stats: true}
}

func (q QuerySpec) selection() (records, history [numCategories]bool) {
	if q.Categories == nil {
		for i := range records {
			records[i] = true
		}
	}
	for _, c := range q.Categories {
		if c.Valid() {
			records[c] = true
		}
	}
	for _, c := range q.History {
		if c.Valid() {
			history[c] = true
		}
	}
	return records, history
}

// ParseQuery translates URL query parameters into a QuerySpec. Lists are
// comma separated and may repeat; unknown names are dropped.
func ParseQuery(values url.Values) QuerySpec {
	var spec QuerySpec
	if raw, ok := lookup(values, categoryParams); ok {
		spec.Categories = parseCategoryList(raw)
	}
	if raw, ok := lookup(values, historyParams); ok {
		spec.History = parseCategoryList(raw)
	}
	_, spec.Stats = lookup(values, statsParams)
	return spec
}

// lookup gathers the values of every alias present. ok is true when at least
// one alias appears, even with an empty value.
func lookup(values url.Values, names []string) ([]string, bool) {
	var out []string
	found := false
	for _, name := range names {
		if vs, ok := values[name]; ok {
			found = true
			out = append(out, vs...)
		}
	}
	return out, found
}

func parseCategoryList(raw []string) []Category {
	out := []Category{}
	var seen [numCategories]bool
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			c, ok := ParseCategory(part)
			if !ok || seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
