// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package eventprocessor

import (
	"time"
)

// DefaultSubjectPrefix is prepended to the category of every published event.
const DefaultSubjectPrefix = "isobus.telemetry"

// PublisherConfig holds publisher configuration.
type PublisherConfig struct {
	URL             string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int
}

// DefaultPublisherConfig returns production defaults for publisher.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:             url,
		SubjectPrefix:   DefaultSubjectPrefix,
		MaxReconnects:   -1, // Unlimited
		ReconnectWait:   2 * time.Second,
		ReconnectBuffer: 1024 * 1024,
	}
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Max requests in half-open state
	Interval         time.Duration // Cyclic period for clearing counts
	Timeout          time.Duration // Duration of open state before half-open
	FailureThreshold uint32        // Consecutive failures to trip breaker
}

// DefaultCircuitBreakerConfig returns production defaults for circuit breaker.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host string
	Port int // -1 picks a free port
}

// DefaultServerConfig listens on the standard client port on all interfaces.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host: "0.0.0.0",
		Port: 4222,
	}
}
