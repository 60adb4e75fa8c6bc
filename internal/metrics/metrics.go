// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// Prometheus metrics for:
// - DuckDB store latency and errors
// - API endpoint latency and throughput
// - Recommendation generation, lifecycle and feedback
// - Batch sweeps and cleanup
// - Upstream collaborators, caches and events

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tastegraph_db_query_duration_seconds",
			Help:    "Duration of DuckDB store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_db_query_errors_total",
			Help: "Total number of DuckDB store errors",
		},
		[]string{"operation", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tastegraph_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tastegraph_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Generation Metrics
	GenerationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_generation_runs_total",
			Help: "Total number of recommendation generation runs",
		},
		[]string{"mode", "result"}, // result: "ok", "error", "insufficient_data"
	)

	GenerationProduced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_generation_produced_total",
			Help: "Total number of recommendations returned by generation runs",
		},
		[]string{"mode"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tastegraph_generation_duration_seconds",
			Help:    "Duration of recommendation generation runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"mode"},
	)

	SourceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tastegraph_source_duration_seconds",
			Help:    "Duration of candidate source runs in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"source", "mode"},
	)

	SourceCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_source_candidates_total",
			Help: "Total number of candidates produced per source",
		},
		[]string{"source"},
	)

	SourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_source_failures_total",
			Help: "Total number of failed or timed out candidate source runs",
		},
		[]string{"source"},
	)

	// Lifecycle and Feedback Metrics
	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_lifecycle_transitions_total",
			Help: "Total number of recommendation lifecycle operations",
		},
		[]string{"operation", "kind", "result"}, // result: "ok", "noop", "not_found", "expired", "illegal", "error"
	)

	FeedbackRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_feedback_recorded_total",
			Help: "Total number of feedback records appended",
		},
		[]string{"action", "classification", "reason_code"},
	)

	// Profile Metrics
	ProfileRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tastegraph_profile_refresh_duration_seconds",
			Help:    "Duration of a full user refresh (profile and generation) in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ProfileRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_profile_refreshes_total",
			Help: "Total number of user refreshes",
		},
		[]string{"result"}, // "ok", "unavailable", "locked", "error"
	)

	// Sweep Metrics
	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_sweep_runs_total",
			Help: "Total number of batch sweeps",
		},
		[]string{"sweep", "result"},
	)

	SweepUsers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_sweep_users_total",
			Help: "Total number of users visited by batch sweeps",
		},
		[]string{"sweep", "outcome"}, // "refreshed", "skipped", "failed"
	)

	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tastegraph_sweep_duration_seconds",
			Help:    "Duration of batch sweeps in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600, 7200},
		},
		[]string{"sweep"},
	)

	SweepLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tastegraph_sweep_last_success_timestamp",
			Help: "Unix timestamp of the last completed sweep",
		},
		[]string{"sweep"},
	)

	CleanupDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tastegraph_cleanup_deleted_total",
			Help: "Total number of expired recommendations purged",
		},
	)

	// Upstream Collaborator Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_upstream_requests_total",
			Help: "Total number of requests to upstream collaborators",
		},
		[]string{"client", "operation", "result"}, // result: "ok", "error", "circuit_open"
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tastegraph_upstream_duration_seconds",
			Help:    "Duration of upstream collaborator requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"client", "operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tastegraph_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastegraph_events_published_total",
			Help: "Total number of domain events published",
		},
		[]string{"topic", "result"},
	)
)

// RecordDBQuery records a store operation.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, ErrorType(err)).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordGeneration records one generation run. A nil error with zero results
// is counted as insufficient data.
func RecordGeneration(mode string, produced int, duration time.Duration, err error) {
	GenerationDuration.WithLabelValues(mode).Observe(duration.Seconds())
	switch {
	case err != nil:
		GenerationRuns.WithLabelValues(mode, "error").Inc()
	case produced == 0:
		GenerationRuns.WithLabelValues(mode, "insufficient_data").Inc()
	default:
		GenerationRuns.WithLabelValues(mode, "ok").Inc()
	}
	GenerationProduced.WithLabelValues(mode).Add(float64(produced))
}

// RecordSource records one candidate source run. It matches
// recommend.SourceObserver.
func RecordSource(source string, mode recommend.Mode, elapsed time.Duration, produced int, err error) {
	SourceDuration.WithLabelValues(source, mode.String()).Observe(elapsed.Seconds())
	if err != nil {
		SourceFailures.WithLabelValues(source).Inc()
		return
	}
	SourceCandidates.WithLabelValues(source).Add(float64(produced))
}

// RecordTransition records a lifecycle operation.
func RecordTransition(operation string, kind recommend.Kind, changed bool, err error) {
	result := "ok"
	switch {
	case err != nil:
		result = ErrorType(err)
	case !changed:
		result = "noop"
	}
	LifecycleTransitions.WithLabelValues(operation, string(kind), result).Inc()
}

// RecordFeedback records an appended feedback record.
func RecordFeedback(fb *recommend.FeedbackRecord) {
	FeedbackRecorded.WithLabelValues(string(fb.Action), string(fb.Classification), string(fb.ReasonCode)).Inc()
}

// RecordRefresh records a user refresh.
func RecordRefresh(duration time.Duration, err error) {
	ProfileRefreshDuration.Observe(duration.Seconds())
	result := "ok"
	if err != nil {
		result = ErrorType(err)
	}
	ProfileRefreshes.WithLabelValues(result).Inc()
}

// RecordSweep records a finished sweep and its per-user outcomes.
func RecordSweep(sweep string, duration time.Duration, refreshed, skipped, failed int, err error) {
	SweepDuration.WithLabelValues(sweep).Observe(duration.Seconds())
	SweepUsers.WithLabelValues(sweep, "refreshed").Add(float64(refreshed))
	SweepUsers.WithLabelValues(sweep, "skipped").Add(float64(skipped))
	SweepUsers.WithLabelValues(sweep, "failed").Add(float64(failed))
	if err != nil {
		SweepRuns.WithLabelValues(sweep, "error").Inc()
		return
	}
	SweepRuns.WithLabelValues(sweep, "ok").Inc()
	SweepLastSuccess.WithLabelValues(sweep).Set(float64(time.Now().Unix()))
}

// RecordUpstream records a collaborator request.
func RecordUpstream(client, operation, result string, duration time.Duration) {
	UpstreamRequests.WithLabelValues(client, operation, result).Inc()
	UpstreamDuration.WithLabelValues(client, operation).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
		return
	}
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordEventPublish records a published event.
func RecordEventPublish(topic string, err error) {
	if err != nil {
		EventsPublished.WithLabelValues(topic, "error").Inc()
		return
	}
	EventsPublished.WithLabelValues(topic, "ok").Inc()
}

// ErrorType maps an error to a low-cardinality label.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, recommend.ErrExpired):
		return "expired"
	case errors.Is(err, recommend.ErrNotFound):
		return "not_found"
	case errors.Is(err, recommend.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, recommend.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, recommend.ErrConflict):
		return "conflict"
	case errors.Is(err, recommend.ErrIllegalTransition):
		return "illegal"
	default:
		return "error"
	}
}
