// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package config

import (
	"time"
)

// CAN frame source kinds accepted by can.source.
const (
	SourceSocketCAN = "socketcan"
	SourceReplay    = "replay"
	SourceSimulator = "simulator"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	CAN       CANConfig       `koanf:"can"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Logging   LoggingConfig   `koanf:"logging"`
	Security  SecurityConfig  `koanf:"security"`
	NATS      NATSConfig      `koanf:"nats"`
	WebSocket WebSocketConfig `koanf:"websocket"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// CANConfig selects and tunes the frame source.
type CANConfig struct {
	// Source is one of socketcan, replay or simulator.
	// Default: socketcan
	Source string `koanf:"source" validate:"oneof=socketcan replay simulator"`

	// Interface is the SocketCAN network interface, e.g. can0 or vcan0.
	Interface string `koanf:"interface"`

	// Bitrate is informational. The interface bitrate is configured with
	// ip link before the gateway starts; ISOBUS mandates 250 kbit/s.
	Bitrate int `koanf:"bitrate" validate:"gt=0"`

	// ReplayFile is a candump -l log replayed when Source is replay.
	ReplayFile string `koanf:"replay_file"`

	// ReplayLoop restarts the replay from the beginning at EOF.
	ReplayLoop bool `koanf:"replay_loop"`

	// ReplayRate caps replayed frames per second. 0 replays unpaced.
	ReplayRate float64 `koanf:"replay_rate" validate:"gte=0"`

	// SimulateRate is the number of synthetic frames per second.
	SimulateRate float64 `koanf:"simulate_rate" validate:"gte=0"`
}

// TelemetryConfig holds aggregator settings
type TelemetryConfig struct {
	HistoryCapacity int           `koanf:"history_capacity" validate:"gte=1"`
	RateLogInterval time.Duration `koanf:"rate_log_interval" validate:"gt=0"`
}

// LoggingConfig holds logging configuration for zerolog.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`

	// Service is the "service" field on every line, e.g. a machine id.
	// Default: isobusd
	Service string `koanf:"service"`
}

// SecurityConfig holds HTTP exposure settings. The gateway has no
// authentication; it is expected to run on the tractor's local network.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// NATSConfig holds the optional NATS publisher settings.
type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`

	// Embedded starts an in-process nats-server listening on EmbeddedPort.
	Embedded     bool `koanf:"embedded"`
	EmbeddedPort int  `koanf:"embedded_port"`

	// SubjectPrefix is joined with the category name, e.g. isobus.telemetry.engine
	SubjectPrefix string `koanf:"subject_prefix"`

	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`

	// Circuit breaker around publish
	BreakerMaxRequests      uint32        `koanf:"breaker_max_requests"`
	BreakerInterval         time.Duration `koanf:"breaker_interval"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
}

// WebSocketConfig toggles the live push endpoint.
type WebSocketConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}

// Load loads configuration using Koanf with layered sources.
// See LoadWithKoanf for details on configuration precedence.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
