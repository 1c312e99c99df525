// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package main

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/isobusd/internal/config"
	"github.com/tomtom215/isobusd/internal/eventprocessor"
	"github.com/tomtom215/isobusd/internal/logging"
	"github.com/tomtom215/isobusd/internal/supervisor"
	"github.com/tomtom215/isobusd/internal/supervisor/services"
)

// NATSComponents holds the optional NATS side of the gateway.
type NATSComponents struct {
	server    *eventprocessor.EmbeddedServer
	publisher *eventprocessor.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
}

// InitNATS starts the embedded server when configured and connects the
// publisher. It returns nil, nil when NATS is disabled.
func InitNATS(cfg config.NATSConfig) (*NATSComponents, error) {
	if !cfg.Enabled {
		logging.Info().Msg("NATS publishing disabled (NATS_ENABLED=false)")
		return nil, nil
	}

	components := &NATSComponents{}
	url := cfg.URL

	if cfg.Embedded {
		serverCfg := eventprocessor.DefaultServerConfig()
		serverCfg.Port = cfg.EmbeddedPort
		components.server = eventprocessor.NewEmbeddedServer(serverCfg)
		if err := components.server.Start(); err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		url = components.server.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	pubCfg := eventprocessor.DefaultPublisherConfig(url)
	if cfg.SubjectPrefix != "" {
		pubCfg.SubjectPrefix = cfg.SubjectPrefix
	}
	if cfg.MaxReconnects != 0 {
		pubCfg.MaxReconnects = cfg.MaxReconnects
	}
	if cfg.ReconnectWait > 0 {
		pubCfg.ReconnectWait = cfg.ReconnectWait
	}

	publisher, err := eventprocessor.NewPublisher(pubCfg, watermill.NewSlogLogger(logging.NewSlogLogger("nats")))
	if err != nil {
		components.stopServer()
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}
	components.publisher = publisher

	breakerCfg := eventprocessor.DefaultCircuitBreakerConfig("nats-publisher")
	if cfg.BreakerMaxRequests > 0 {
		breakerCfg.MaxRequests = cfg.BreakerMaxRequests
	}
	if cfg.BreakerInterval > 0 {
		breakerCfg.Interval = cfg.BreakerInterval
	}
	if cfg.BreakerTimeout > 0 {
		breakerCfg.Timeout = cfg.BreakerTimeout
	}
	if cfg.BreakerFailureThreshold > 0 {
		breakerCfg.FailureThreshold = cfg.BreakerFailureThreshold
	}
	components.breaker = eventprocessor.NewCircuitBreaker(breakerCfg)
	publisher.SetCircuitBreaker(components.breaker)

	logging.Info().
		Str("url", url).
		Str("subject_prefix", pubCfg.SubjectPrefix).
		Bool("embedded", cfg.Embedded).
		Msg("NATS publisher initialized")

	return components, nil
}

// Publisher returns the intake sink, or nil when NATS is disabled.
func (n *NATSComponents) Publisher() *eventprocessor.Publisher {
	if n == nil {
		return nil
	}
	return n.publisher
}

// BreakerState reports the publisher breaker for the health endpoint.
func (n *NATSComponents) BreakerState() string {
	if n == nil || n.breaker == nil {
		return ""
	}
	return eventprocessor.CircuitBreakerState(n.breaker)
}

// AddToSupervisor puts the embedded server, if any, under supervision.
func (n *NATSComponents) AddToSupervisor(tree *supervisor.SupervisorTree, shutdownTimeout time.Duration) {
	if n == nil || n.server == nil {
		return
	}
	tree.Add(supervisor.LayerMessaging, services.NewNATSServerService(n.server, shutdownTimeout))
	logging.Info().Msg("Embedded NATS server added to supervisor tree")
}

// Close closes the publisher. The embedded server is stopped by its
// supervisor service.
func (n *NATSComponents) Close() {
	if n == nil || n.publisher == nil {
		return
	}
	if err := n.publisher.Close(); err != nil {
		logging.Warn().Err(err).Msg("Error closing NATS publisher")
	}
}

func (n *NATSComponents) stopServer() {
	if n.server == nil {
		return
	}
	ctx, cancel := shutdownContext(5 * time.Second)
	defer cancel()
	if err := n.server.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Msg("Error stopping embedded NATS server")
	}
}
