// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/isobusd/internal/middleware"
)

// chiMiddleware adapts http.HandlerFunc middleware to chi's
// func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// compressJSON gzips JSON bodies when the client accepts it. Snapshots with
// history run to tens of kilobytes.
var compressJSON = chimiddleware.Compress(5, "application/json")

// Router owns the HTTP route table.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil middleware config uses defaults.
func NewRouter(handler *Handler, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// Setup builds the chi handler tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, ErrCodeBadRequest, "method not allowed", nil)
	})

	// Legacy viewer
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitLegacy())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(compressJSON)
		r.Get("/", h.LegacySnapshot)
		r.Get("/telemetry", h.LegacySnapshot)
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.With(compressJSON).Get("/snapshot", h.Snapshot)
		r.Get("/stats", h.Stats)
		r.Get("/pgns", h.PGNs)
		r.Get("/pgns/{pgn}", h.PGN)
		r.With(router.chiMiddleware.RateLimitWrite()).Post("/frames", h.InjectFrame)
		r.Get("/ws", h.WebSocket)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
