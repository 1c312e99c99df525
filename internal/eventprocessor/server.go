// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// EmbeddedServer runs an in-process NATS server for deployments without a
// broker on the network. It can be started again after Shutdown.
type EmbeddedServer struct {
	config ServerConfig

	mu        sync.Mutex
	server    *server.Server
	clientURL string
}

// NewEmbeddedServer prepares a server; call Start to listen.
func NewEmbeddedServer(cfg ServerConfig) *EmbeddedServer {
	return &EmbeddedServer{config: cfg}
}

// Start launches the server and waits until it accepts clients.
func (s *EmbeddedServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil && s.server.Running() {
		return nil
	}

	opts := &server.Options{
		ServerName: "isobusd",
		Host:       s.config.Host,
		Port:       s.config.Port,
		NoSigs:     true,
		MaxPayload: 64 * 1024,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return fmt.Errorf("create NATS server: %w", err)
	}

	ns.ConfigureLogger()
	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return errors.New("NATS server not ready within timeout")
	}

	s.server = ns
	s.clientURL = ns.ClientURL()
	return nil
}

// ClientURL returns the URL for connecting to the embedded server.
func (s *EmbeddedServer) ClientURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientURL
}

// Shutdown stops the server, waiting for it to exit unless ctx ends first.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ns := s.server
	s.mu.Unlock()
	if ns == nil {
		return nil
	}

	ns.Shutdown()

	done := make(chan struct{})
	go func() {
		ns.WaitForShutdown()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// IsRunning reports whether the server is accepting connections.
func (s *EmbeddedServer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server != nil && s.server.Running()
}
