// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is stamped on every log line unless Config.Service overrides it.
const ServiceName = "isobusd"

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error. Default info.
	Level string

	// Format is json (default) or console.
	Format string

	// Caller adds file:line to every line.
	Caller bool

	// Timestamp adds an RFC 3339 time field.
	Timestamp bool

	// Service names the process in the "service" field. Gateways on several
	// tractors feeding one log pipeline set this to the machine id.
	Service string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the configuration used before Init is called.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Service:   ServiceName,
		Output:    os.Stderr,
	}
}

var levels = map[string]zerolog.Level{
	"trace":    zerolog.TraceLevel,
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"disabled": zerolog.Disabled,
}

// ParseLevel maps a level name to zerolog. Unknown names report false and
// fall back to info.
func ParseLevel(level string) (zerolog.Level, bool) {
	l, ok := levels[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		return zerolog.InfoLevel, false
	}
	return l, true
}

var (
	mu     sync.RWMutex
	global zerolog.Logger
)

//nolint:gochecknoinits // logging works before main calls Init
func init() {
	global = build(DefaultConfig())
}

// Init reconfigures the global logger. It may be called more than once.
func Init(cfg Config) {
	l := build(cfg)
	mu.Lock()
	global = l
	mu.Unlock()
}

func build(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.Service == "" {
		cfg.Service = ServiceName
	}
	level, _ := ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "time"

	out := cfg.Output
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05.000"}
	}

	zc := zerolog.New(out).With().Str("service", cfg.Service)
	if cfg.Timestamp {
		zc = zc.Timestamp()
	}
	if cfg.Caller {
		zc = zc.Caller()
	}
	return zc.Logger()
}

func current() *zerolog.Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	return &l
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	return *current()
}

// With starts a child logger context.
//
//	l := logging.With().Str("source", "can0").Logger()
func With() zerolog.Context {
	return current().With()
}

// WithComponent returns a child logger tagged with component.
func WithComponent(component string) zerolog.Logger {
	return current().With().Str("component", component).Logger()
}

// Debug starts a debug message.
func Debug() *zerolog.Event { return current().Debug() }

// Info starts an info message.
func Info() *zerolog.Event { return current().Info() }

// Warn starts a warning.
func Warn() *zerolog.Event { return current().Warn() }

// Error starts an error message.
func Error() *zerolog.Event { return current().Error() }

// Fatal starts a message that exits the process once sent.
func Fatal() *zerolog.Event { return current().Fatal() }

// Err starts an error-level message carrying err.
func Err(err error) *zerolog.Event { return current().Err(err) }

// NewTestLogger returns a logger writing to w, for assertions on output.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
