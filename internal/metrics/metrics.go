// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package metrics provides Prometheus instrumentation for the knowledge
// graph engine and the API layer.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Graph build metrics
	GraphBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kg_build_duration_seconds",
			Help:    "Duration of knowledge graph construction in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	GraphNodes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kg_graph_nodes",
			Help: "Number of graph nodes by type",
		},
		[]string{"type"},
	)

	GraphEdges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kg_graph_edges",
			Help: "Total number of graph edges",
		},
	)

	// Normalizer metrics
	RowsNormalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kg_rows_normalized_total",
			Help: "Total number of normalized movie rows produced",
		},
	)

	RowsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kg_rows_dropped_total",
			Help: "Total number of rows dropped for missing title or id",
		},
	)

	RowCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kg_row_cache_hits_total",
			Help: "Total number of normalized-row cache hits",
		},
	)

	RowCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kg_row_cache_misses_total",
			Help: "Total number of normalized-row cache misses",
		},
	)

	// Graph store metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kg_store_operations_total",
			Help: "Total graph store save/load operations by result",
		},
		[]string{"operation", "result"},
	)

	// Query metrics
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kg_queries_total",
			Help: "Total number of knowledge graph queries by operation",
		},
		[]string{"operation"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kg_query_duration_seconds",
			Help:    "Knowledge graph query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordQuery observes one engine query with its duration.
func RecordQuery(operation string, start time.Time) {
	QueriesTotal.WithLabelValues(operation).Inc()
	QueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordAPIRequest observes one HTTP request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// SetGraphStats updates the node/edge gauges after a build or load.
func SetGraphStats(nodesByType map[string]int, edges int) {
	for typ, count := range nodesByType {
		GraphNodes.WithLabelValues(typ).Set(float64(count))
	}
	GraphEdges.Set(float64(edges))
}
