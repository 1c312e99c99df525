// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/isobusd/internal/telemetry"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/isobusd/config.yaml",
	"/etc/isobusd/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		CAN: CANConfig{
			Source:       SourceSocketCAN,
			Interface:    "can0",
			Bitrate:      250000,
			ReplayLoop:   false,
			ReplayRate:   0,
			SimulateRate: 50,
		},
		Telemetry: TelemetryConfig{
			HistoryCapacity: telemetry.DefaultHistoryCapacity,
			RateLogInterval: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "json",
			Caller:  false,
			Service: "isobusd",
		},
		Security: SecurityConfig{
			// The browser viewer is served from a different origin.
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     600,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		NATS: NATSConfig{
			Enabled:                 false,
			URL:                     "nats://127.0.0.1:4222",
			Embedded:                false,
			EmbeddedPort:            4222,
			SubjectPrefix:           "isobus.telemetry",
			MaxReconnects:           -1,
			ReconnectWait:           2 * time.Second,
			BreakerMaxRequests:      1,
			BreakerInterval:         time.Minute,
			BreakerTimeout:          30 * time.Second,
			BreakerFailureThreshold: 5,
		},
		WebSocket: WebSocketConfig{
			Enabled: true,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps flat environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// CAN intake
	"can_source":        "can.source",
	"can_interface":     "can.interface",
	"can_bitrate":       "can.bitrate",
	"can_replay_file":   "can.replay_file",
	"can_replay_loop":   "can.replay_loop",
	"can_replay_rate":   "can.replay_rate",
	"can_simulate_rate": "can.simulate_rate",

	// Telemetry
	"history_capacity":  "telemetry.history_capacity",
	"rate_log_interval": "telemetry.rate_log_interval",

	// Logging
	"log_level":   "logging.level",
	"log_format":  "logging.format",
	"log_caller":  "logging.caller",
	"log_service": "logging.service",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// NATS
	"nats_enabled":                   "nats.enabled",
	"nats_url":                       "nats.url",
	"nats_embedded":                  "nats.embedded",
	"nats_embedded_port":             "nats.embedded_port",
	"nats_subject_prefix":            "nats.subject_prefix",
	"nats_max_reconnects":            "nats.max_reconnects",
	"nats_reconnect_wait":            "nats.reconnect_wait",
	"nats_breaker_max_requests":      "nats.breaker_max_requests",
	"nats_breaker_interval":          "nats.breaker_interval",
	"nats_breaker_timeout":           "nats.breaker_timeout",
	"nats_breaker_failure_threshold": "nats.breaker_failure_threshold",

	// WebSocket
	"websocket_enabled": "websocket.enabled",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - CAN_INTERFACE -> can.interface
//   - NATS_SUBJECT_PREFIX -> nats.subject_prefix
//
// Unmapped variables return "" and are ignored, so the rest of the process
// environment never leaks into the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
