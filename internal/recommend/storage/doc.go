// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package storage provides in-process persistence for the recommendation
// engine.
//
// # Overview
//
// The package provides:
//   - MemoryStore: an in-memory recommend.Store with the same upsert, trim
//     and purge semantics as the DuckDB store in internal/database
//   - BadgerCheckpoints: sweep checkpoints in BadgerDB with a TTL
//   - Fixture: in-memory collaborators (history, catalog, groups) loaded
//     from a JSON document
//
// # Upsert Semantics
//
// Recommendations are unique per (user, kind, candidate, group scope) while
// active. Upserting a candidate resolves against the existing row:
//
//	no row            -> insert
//	expired row       -> replace in place (new id)
//	dismissed row     -> untouched until it expires
//	active row        -> ExpiresAt = max(old, new), score refreshed
//
// # Checkpoints
//
// A full sweep can take hours. Each refreshed user is recorded under the
// sweep cycle id:
//
//	cp, err := storage.OpenBadgerCheckpoints("/data/checkpoints", 20*time.Hour)
//	if err != nil {
//	    return err
//	}
//	defer cp.Close()
//
//	done, _ := cp.Done(ctx, "full-2026-03-01", userID)
//	if !done {
//	    // refresh user
//	    _ = cp.Mark(ctx, "full-2026-03-01", userID)
//	}
//
// Entries expire through Badger's TTL, so old cycles need no cleanup.
// An empty path opens an in-memory database, which is what tests use.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use.
package storage
