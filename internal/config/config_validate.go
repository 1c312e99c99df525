// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/tomtom215/isobusd/internal/logging"
	"github.com/tomtom215/isobusd/internal/validation"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	validators := []func() error{
		c.validateCAN,
		c.validateSecurity,
		c.validateNATS,
		c.validateLogging,
	}
	for _, validator := range validators {
		if err := validator(); err != nil {
			return err
		}
	}
	return nil
}

// validateCAN checks the settings the selected source depends on.
func (c *Config) validateCAN() error {
	switch c.CAN.Source {
	case SourceSocketCAN:
		if c.CAN.Interface == "" {
			return fmt.Errorf("CAN_INTERFACE is required when CAN_SOURCE=socketcan")
		}
	case SourceReplay:
		if c.CAN.ReplayFile == "" {
			return fmt.Errorf("CAN_REPLAY_FILE is required when CAN_SOURCE=replay")
		}
	case SourceSimulator:
		if c.CAN.SimulateRate <= 0 {
			return fmt.Errorf("CAN_SIMULATE_RATE must be positive when CAN_SOURCE=simulator")
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must list at least one origin")
	}
	return c.validateRateLimits()
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validateNATS validates NATS configuration (only if enabled)
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}

	if !c.NATS.Embedded {
		if err := validateNATSURL(c.NATS.URL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
	} else if c.NATS.EmbeddedPort < 1 || c.NATS.EmbeddedPort > 65535 {
		return fmt.Errorf("NATS_EMBEDDED_PORT must be between 1 and 65535")
	}

	if c.NATS.SubjectPrefix == "" {
		return fmt.Errorf("NATS_SUBJECT_PREFIX is required when NATS_ENABLED=true")
	}
	if c.NATS.BreakerFailureThreshold == 0 {
		return fmt.Errorf("NATS_BREAKER_FAILURE_THRESHOLD must be at least 1")
	}
	if c.NATS.BreakerTimeout <= 0 {
		return fmt.Errorf("NATS_BREAKER_TIMEOUT must be positive")
	}
	return nil
}

// validateNATSURL validates that the NATS URL is properly formatted
// Supports: nats://, tls://, and ws:// schemes with IP addresses/hostnames and optional ports
func validateNATSURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}

	validSchemes := map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}
	if !validSchemes[parsedURL.Scheme] {
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222, 192.168.1.100:4222)")
	}

	return nil
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if _, ok := logging.ParseLevel(c.Logging.Level); !ok || c.Logging.Level == "disabled" {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
