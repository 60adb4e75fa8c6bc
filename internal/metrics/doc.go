// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package metrics provides Prometheus instrumentation for the recommendation
// service.
//
// All collectors are package-level promauto globals registered with the
// default registry and exposed by the /metrics endpoint. Callers use the
// Record* helpers rather than touching collectors directly so label sets stay
// consistent and low-cardinality.
//
// # Metric Families
//
//   - tastegraph_db_*: DuckDB store latency and errors
//   - tastegraph_api_*: HTTP request counts, latency and rate-limit rejections
//   - tastegraph_generation_*, tastegraph_source_*: generation runs and
//     candidate sources (RecordSource doubles as a recommend.SourceObserver)
//   - tastegraph_lifecycle_*, tastegraph_feedback_*: view, dismiss, act and
//     rate operations
//   - tastegraph_profile_*, tastegraph_sweep_*, tastegraph_cleanup_*: batch work
//   - tastegraph_upstream_*, tastegraph_circuit_breaker_state: collaborator clients
//   - tastegraph_cache_*, tastegraph_events_*: caches and published events
//
// Error labels come from ErrorType, which maps the recommend error taxonomy to
// fixed strings.
package metrics
