// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recommendation outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeEmpty        = "empty"
	OutcomeNotFound     = "not_found"
	OutcomeInconsistent = "inconsistent"
	OutcomeUnavailable  = "unavailable"
	OutcomeError        = "error"
)

var (
	// Recommendation pipeline
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_recommend_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinematch_recommend_duration_seconds",
			Help:    "End-to-end recommendation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinematch_recommend_results",
			Help:    "Number of records returned per recommendation request",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	RecommendCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinematch_recommend_cache_hits_total",
			Help: "Total number of recommendation result cache hits",
		},
	)

	RecommendCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinematch_recommend_cache_misses_total",
			Help: "Total number of recommendation result cache misses",
		},
	)

	// Neighbor index
	NeighborQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinematch_neighbor_query_duration_seconds",
			Help:    "Duration of nearest-neighbor queries in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"backend"},
	)

	NeighborQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_neighbor_query_errors_total",
			Help: "Total number of failed nearest-neighbor queries",
		},
		[]string{"backend", "kind"}, // kind: "no_matches", "service"
	)

	IndexProbeUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinematch_index_probe_up",
			Help: "1 if the last index health probe succeeded, 0 otherwise",
		},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinematch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Posters
	PosterLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_poster_lookups_total",
			Help: "Total number of poster lookups by result",
		},
		[]string{"result"}, // result: "cache_hit", "fetched", "missing", "error"
	)

	// Catalog
	CatalogEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinematch_catalog_entries",
			Help: "Number of movies in the loaded catalog",
		},
	)

	CatalogDuplicateTitles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinematch_catalog_duplicate_titles",
			Help: "Number of catalog rows shadowed by an earlier row with the same title",
		},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinematch_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordRecommendation records one assembler call.
func RecordRecommendation(outcome string, results int, duration time.Duration) {
	RecommendRequests.WithLabelValues(outcome).Inc()
	RecommendDuration.Observe(duration.Seconds())
	RecommendResults.Observe(float64(results))
}

// RecordNeighborQuery records a neighbor query. kind is "" on success.
func RecordNeighborQuery(backend, kind string, duration time.Duration) {
	NeighborQueryDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if kind != "" {
		NeighborQueryErrors.WithLabelValues(backend, kind).Inc()
	}
}

// RecordPosterLookup records a poster lookup result.
func RecordPosterLookup(result string) {
	PosterLookups.WithLabelValues(result).Inc()
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SetCatalogStats publishes catalog size gauges.
func SetCatalogStats(entries, duplicates int) {
	CatalogEntries.Set(float64(entries))
	CatalogDuplicateTitles.Set(float64(duplicates))
}

// SetIndexProbe publishes the result of an index health probe.
func SetIndexProbe(up bool) {
	if up {
		IndexProbeUp.Set(1)
		return
	}
	IndexProbeUp.Set(0)
}
