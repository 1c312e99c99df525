// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// Layer selects one of the child supervisors under the root.
type Layer int

const (
	// LayerData holds the CAN frame intake pipeline.
	LayerData Layer = iota
	// LayerMessaging holds the WebSocket hub and the embedded NATS server.
	LayerMessaging
	// LayerAPI holds the HTTP server.
	LayerAPI

	numLayers
)

var layerNames = [numLayers]string{"data-layer", "messaging-layer", "api-layer"}

func (l Layer) String() string {
	if l < 0 || l >= numLayers {
		return fmt.Sprintf("layer(%d)", int(l))
	}
	return layerNames[l]
}

// TreeConfig holds supervisor tree configuration. Zero fields take the
// values from DefaultTreeConfig.
type TreeConfig struct {
	// FailureThreshold is the failure count that triggers backoff.
	FailureThreshold float64

	// FailureDecay is the failure half-life in seconds.
	FailureDecay float64

	// FailureBackoff is the pause once the threshold is crossed.
	FailureBackoff time.Duration

	// IntakeBackoff replaces FailureBackoff for the data layer. A CAN
	// adapter that is unplugged and replugged should be picked up within
	// a couple of seconds.
	IntakeBackoff time.Duration

	// ShutdownTimeout bounds how long each service gets to stop.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns the production settings.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		IntakeBackoff:    2 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.IntakeBackoff == 0 {
		c.IntakeBackoff = d.IntakeBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

// SupervisorTree is the process tree of the gateway:
//
//	isobusd
//	├── data-layer       frame intake
//	├── messaging-layer  websocket hub, embedded NATS
//	└── api-layer        HTTP server
//
// A bus fault that crashes intake restarts only the data layer. The API
// keeps serving the last aggregated state while the source reopens.
type SupervisorTree struct {
	root   *suture.Supervisor
	layers [numLayers]*suture.Supervisor
	config TreeConfig
}

// NewSupervisorTree builds the root and its three layers. Supervisor events
// are logged through logger via sutureslog.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	if logger == nil {
		return nil, errors.New("supervisor: logger is required")
	}
	config = config.withDefaults()

	// MustHook has a pointer receiver.
	hook := (&sutureslog.Handler{Logger: logger}).MustHook()

	spec := func(backoff time.Duration) suture.Spec {
		return suture.Spec{
			FailureThreshold: config.FailureThreshold,
			FailureDecay:     config.FailureDecay,
			FailureBackoff:   backoff,
			Timeout:          config.ShutdownTimeout,
		}
	}

	rootSpec := spec(config.FailureBackoff)
	rootSpec.EventHook = hook // inherited by the layers
	t := &SupervisorTree{
		root:   suture.New("isobusd", rootSpec),
		config: config,
	}
	for l := Layer(0); l < numLayers; l++ {
		backoff := config.FailureBackoff
		if l == LayerData {
			backoff = config.IntakeBackoff
		}
		t.layers[l] = suture.New(l.String(), spec(backoff))
		t.root.Add(t.layers[l])
	}
	return t, nil
}

// Root returns the root supervisor.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// Add puts svc under the given layer. It panics on an unknown layer.
func (t *SupervisorTree) Add(layer Layer, svc suture.Service) suture.ServiceToken {
	return t.layer(layer).Add(svc)
}

// Remove stops and removes a service previously added to layer.
func (t *SupervisorTree) Remove(layer Layer, token suture.ServiceToken) error {
	return t.layer(layer).Remove(token)
}

func (t *SupervisorTree) layer(l Layer) *suture.Supervisor {
	if l < 0 || l >= numLayers {
		panic(fmt.Sprintf("supervisor: unknown %s", l))
	}
	return t.layers[l]
}

// Serve runs the tree until ctx is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The returned channel
// receives one value when the root stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that outlived ShutdownTimeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
