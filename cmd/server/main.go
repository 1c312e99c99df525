// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/isobusd/internal/api"
	"github.com/tomtom215/isobusd/internal/config"
	"github.com/tomtom215/isobusd/internal/intake"
	"github.com/tomtom215/isobusd/internal/logging"
	"github.com/tomtom215/isobusd/internal/supervisor"
	"github.com/tomtom215/isobusd/internal/supervisor/services"
	"github.com/tomtom215/isobusd/internal/telemetry"
	ws "github.com/tomtom215/isobusd/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Service:   cfg.Logging.Service,
		Timestamp: true,
	})

	logging.Info().
		Str("source", cfg.CAN.Source).
		Str("interface", cfg.CAN.Interface).
		Str("addr", cfg.Server.Addr()).
		Bool("websocket", cfg.WebSocket.Enabled).
		Bool("nats", cfg.NATS.Enabled).
		Msg("Starting isobusd")

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (RATE_LIMIT_DISABLED=true)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("isobusd stopped with error")
		stop()
		os.Exit(1)
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	aggregator := telemetry.NewAggregator(telemetry.WithHistoryCapacity(cfg.Telemetry.HistoryCapacity))

	opener, err := intake.NewOpener(sourceConfig(cfg.CAN))
	if err != nil {
		return err
	}

	var hub *ws.Hub
	var sinks intake.MultiSink
	if cfg.WebSocket.Enabled {
		hub = ws.NewHub()
		sinks = append(sinks, hub)
	}

	natsComponents, err := InitNATS(cfg.NATS)
	if err != nil {
		return err
	}
	defer natsComponents.Close()
	if pub := natsComponents.Publisher(); pub != nil {
		sinks = append(sinks, pub)
	}

	pipelineCfg := intake.PipelineConfig{
		Open:            opener,
		Aggregator:      aggregator,
		RateLogInterval: cfg.Telemetry.RateLogInterval,
	}
	if len(sinks) > 0 {
		pipelineCfg.Sink = sinks
	}
	pipeline, err := intake.NewPipeline(pipelineCfg)
	if err != nil {
		return err
	}

	handlerCfg := api.HandlerConfig{
		Aggregator:  aggregator,
		Intake:      pipeline,
		Hub:         hub,
		CORSOrigins: cfg.Security.CORSOrigins,
	}
	if natsComponents != nil {
		handlerCfg.NATSBreakerState = natsComponents.BreakerState
	}
	handler := api.NewHandler(handlerCfg)
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFromSecurity(cfg.Security))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	tree.Add(supervisor.LayerData, services.NewIntakeService(pipeline))
	if hub != nil {
		tree.Add(supervisor.LayerMessaging, services.NewWebSocketHubService(hub))
	}
	natsComponents.AddToSupervisor(tree, cfg.Server.ShutdownTimeout)
	tree.Add(supervisor.LayerAPI, services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var runErr error
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
		runErr = err
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}
	return runErr
}

func sourceConfig(c config.CANConfig) intake.SourceConfig {
	return intake.SourceConfig{
		Kind:         c.Source,
		Interface:    c.Interface,
		ReplayFile:   c.ReplayFile,
		ReplayLoop:   c.ReplayLoop,
		ReplayRate:   c.ReplayRate,
		SimulateRate: c.SimulateRate,
	}
}

func shutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
