// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/isobusd/internal/config"
	"github.com/tomtom215/isobusd/internal/intake"
	"github.com/tomtom215/isobusd/internal/j1939"
	"github.com/tomtom215/isobusd/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func TestInitNATS_Disabled(t *testing.T) {
	components, err := InitNATS(config.NATSConfig{Enabled: false})
	if err != nil {
		t.Fatalf("InitNATS: %v", err)
	}
	if components != nil {
		t.Fatal("expected nil components when disabled")
	}

	// nil receivers are safe
	if components.Publisher() != nil {
		t.Error("Publisher() on nil components")
	}
	if got := components.BreakerState(); got != "" {
		t.Errorf("BreakerState() = %q", got)
	}
	components.Close()
}

func TestInitNATS_EmbeddedPublishes(t *testing.T) {
	components, err := InitNATS(config.NATSConfig{
		Enabled:                 true,
		Embedded:                true,
		EmbeddedPort:            -1,
		SubjectPrefix:           "test.telemetry",
		MaxReconnects:           -1,
		ReconnectWait:           100 * time.Millisecond,
		BreakerFailureThreshold: 3,
	})
	if err != nil {
		t.Fatalf("InitNATS: %v", err)
	}
	t.Cleanup(func() {
		components.Close()
		components.stopServer()
	})

	if got := components.BreakerState(); got != "closed" {
		t.Errorf("BreakerState() = %q, want closed", got)
	}

	nc, err := natsgo.Connect(components.server.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(nc.Close)

	sub, err := nc.SubscribeSync("test.telemetry.>")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	id := j1939.BuildID(6, j1939.PGNAMB, 0x80)
	ev := intake.Event{
		Frame:    intake.Frame{ID: id, Data: []byte{0, 0, 0, 0x20, 0x26, 0, 0, 0}, Extended: true, Received: time.Now()},
		Header:   j1939.ParseHeader(id),
		Message:  j1939.Message{PGN: j1939.PGNAMB, Fields: map[string]float64{j1939.FieldAmbientTemperature: 32.5}},
		Known:    true,
		Category: "ambient",
	}
	if err := components.Publisher().Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msg, err := sub.NextMsg(5 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg: %v", err)
	}
	if msg.Subject != "test.telemetry.ambient" {
		t.Errorf("subject = %q", msg.Subject)
	}
	var payload struct {
		PGN    uint32             `json:"pgn"`
		Fields map[string]float64 `json:"fields"`
	}
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		t.Fatalf("payload %s: %v", msg.Data, err)
	}
	if payload.PGN != j1939.PGNAMB || payload.Fields[j1939.FieldAmbientTemperature] != 32.5 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestSourceConfig(t *testing.T) {
	got := sourceConfig(config.CANConfig{
		Source:       config.SourceReplay,
		Interface:    "can1",
		ReplayFile:   "field.log",
		ReplayLoop:   true,
		ReplayRate:   50,
		SimulateRate: 10,
	})
	want := intake.SourceConfig{
		Kind:         intake.KindReplay,
		Interface:    "can1",
		ReplayFile:   "field.log",
		ReplayLoop:   true,
		ReplayRate:   50,
		SimulateRate: 10,
	}
	if got != want {
		t.Errorf("sourceConfig = %+v, want %+v", got, want)
	}
}
