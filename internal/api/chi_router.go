// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	handlers   *Handlers
	middleware *Middleware
	timeout    time.Duration
}

// NewRouter creates the router. timeout bounds per-request handling.
func NewRouter(handlers *Handlers, mw *Middleware, timeout time.Duration) *Router {
	return &Router{
		handlers:   handlers,
		middleware: mw,
		timeout:    timeout,
	}
}

// Setup builds the Chi route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())
	r.Use(chimiddleware.Timeout(router.timeout))

	// Health and metrics stay outside the rate limit so probes and
	// scrapers are never throttled.
	r.Get("/health", router.handlers.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/kg", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(RequestLogging)
		r.Use(PrometheusMetrics)

		r.Get("/recommend-keyword", router.handlers.RecommendKeyword)
		r.Get("/recommend-similar", router.handlers.RecommendSimilar)
		r.Post("/multi-recommend", router.handlers.MultiRecommend)
		r.Get("/search", router.handlers.Search)
		r.Get("/movie-details", router.handlers.MovieDetails)
		r.Get("/movies/random", router.handlers.RandomMovies)
		r.Get("/graph-info", router.handlers.GraphInfo)
		r.Get("/system-info", router.handlers.SystemInfo)
	})

	return r
}
