// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package database provides the DuckDB-backed recommend.Store.
//
// # Overview
//
// DB persists preference profiles, recommendations and the feedback log, and
// serves the conversion analytics used for ranking tie-breaks.
//
// Core Database Operations:
//   - database.go: Connection lifecycle and initialization
//   - database_schema.go: Table and index creation
//   - database_connection.go: Pool configuration, reconnect and error classification
//   - database_utils.go: Profiling, context management, checkpoints and counts
//   - migrations.go: Versioned schema migrations
//
// Store Operations:
//   - profiles.go: Profile upsert and lookup, neighbours by top genre
//   - recommendations.go: Upsert, lifecycle updates, listing, trimming and purge
//   - feedback.go: Append-only feedback log and conversion statistics
//
// # Uniqueness
//
// The recommendations table is keyed by (user_id, kind, candidate_id,
// group_scope). UpsertRecommendation resolves a new row against the existing
// one inside a transaction: insert when absent, overwrite when expired,
// extend when active and leave dismissed rows untouched. A duplicate insert
// from another writer fails on the primary key and surfaces as
// recommend.ErrConflict.
//
// # Usage Example
//
//	db, err := database.New(&config.DatabaseConfig{Path: "/data/tastegraph.duckdb"})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	engine, err := recommend.NewEngine(cfg, recommend.EngineDeps{Store: db, ...}, logger)
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are serialized within a
// process; reads use the connection pool.
package database
