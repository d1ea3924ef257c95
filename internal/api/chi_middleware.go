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
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/cinegraph/cinegraph/internal/logging"
	"github.com/cinegraph/cinegraph/internal/metrics"
)

// MiddlewareConfig holds the settings for the shared middleware stack.
type MiddlewareConfig struct {
	CORSAllowedOrigins []string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// Middleware provides Chi-compatible middleware factories.
type Middleware struct {
	config *MiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewMiddleware builds the middleware factory. CORS origins default to
// empty, which rejects cross-origin requests until configured.
func NewMiddleware(config *MiddlewareConfig) *Middleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	return &Middleware{
		config: config,
		cors:   corsHandler,
	}
}

// CORS returns the go-chi/cors middleware.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns an IP-keyed rate limiter using go-chi/httprate.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// RequestIDWithLogging adds an X-Request-ID header and propagates the
// id through the logging context.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		chiRequestID := chimiddleware.RequestID(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = logging.GenerateRequestID()
				r.Header.Set("X-Request-ID", requestID)
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			chiRequestID.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrometheusMetrics records request counts and latency per route.
func PrometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		// The route pattern keeps label cardinality bounded even with
		// arbitrary request paths.
		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		metrics.RecordAPIRequest(r.Method, endpoint, ww.Status(), time.Since(start))
	})
}

// RequestLogging emits one structured log line per request.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("Request handled")
	})
}
