// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package recommend defines the domain model and the generation engine for
// taste-based recommendations across movies, TV and books.
//
// # Architecture
//
// Data flows through the following components:
//
//   - Preference profiles: per-user genre/platform/era weight maps with a
//     viewing personality and a confidence score (see package preference)
//   - Compatibility: symmetric similarity between profiles and between a
//     profile and an aggregated group profile (see package compatibility)
//   - Engine: runs candidate sources in parallel, ranks the merged candidates
//     and persists them idempotently as Recommendation rows
//   - Lifecycle: an explicit state machine over the viewed, dismissed and
//     acted-upon flags plus expiry
//
// # Design Principles
//
//   - Interfaces for every collaborator (interaction history, catalog, group
//     directory, store) so this package has no dependency on other internal
//     packages
//   - Configuration validated once at construction; scoring never re-checks it
//   - A failing candidate source is logged and skipped, never fatal
//   - At most one active recommendation per user and candidate
//
// # Usage
//
//	cfg := recommend.DefaultConfig()
//	engine, err := recommend.NewEngine(cfg, recommend.EngineDeps{
//	    Store:        store,
//	    Interactions: history,
//	    Catalog:      catalog,
//	    Groups:       groups,
//	    Aggregator:   compatibility.NewScorer(cfg.Weights),
//	}, logger)
//
//	for _, src := range algorithms.Defaults(cfg, deps) {
//	    engine.RegisterSource(src)
//	}
//	for _, rr := range reranking.FromConfig(cfg) {
//	    engine.RegisterReranker(rr)
//	}
//
//	recs, err := engine.Personal(ctx, userID, 20)
//
// # Thread Safety
//
// The engine is safe for concurrent use. Per-user serialization of profile
// recalculation and generation is the caller's responsibility (see package
// service).
package recommend
