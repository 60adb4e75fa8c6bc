// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

/*
database_schema.go - Database Schema Management

Tables:
  - preference_profiles: One row per user with the scalar profile fields
  - profile_weights: Category weights per user, dimension and label
  - recommendations: Content and group recommendations with lifecycle flags
  - recommendation_feedback: Append-only feedback log, outlives the
    recommendation it references

Uniqueness:
The recommendations primary key is the natural key (user_id, kind,
candidate_id, group_scope). group_scope is 0 for personal rows and the group
id for group-scoped content rows. An expired row is overwritten in place,
never duplicated, so at most one row exists per key and the storage
constraint rejects a concurrent duplicate insert.

Index Strategy:
DuckDB rewrites updates of indexed columns as delete plus insert, which
trips the primary key on tables updated in place. Only columns that are
never updated are indexed.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute table creation query: %w", err)
		}
	}
	return nil
}

// getTableCreationQueries returns table creation SQL statements
func (db *DB) getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS preference_profiles (
			user_id BIGINT PRIMARY KEY,
			average_rating DOUBLE NOT NULL DEFAULT 0,
			rating_variance DOUBLE NOT NULL DEFAULT 0,
			total_interactions INTEGER NOT NULL DEFAULT 0,
			total_completed INTEGER NOT NULL DEFAULT 0,
			completion_rate DOUBLE NOT NULL DEFAULT 0,
			viewing_personality TEXT,
			confidence_score DOUBLE NOT NULL DEFAULT 0,
			last_calculated_at TIMESTAMP NOT NULL,
			last_interaction_at TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS profile_weights (
			user_id BIGINT NOT NULL,
			dimension TEXT NOT NULL,
			label TEXT NOT NULL,
			weight DOUBLE NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS recommendations (
			user_id BIGINT NOT NULL,
			kind TEXT NOT NULL,
			candidate_id BIGINT NOT NULL,
			group_scope BIGINT NOT NULL DEFAULT 0,
			id TEXT NOT NULL,
			score DOUBLE NOT NULL,
			reason_code TEXT NOT NULL,
			explanation TEXT NOT NULL,
			source_media_id BIGINT,
			source_group_id BIGINT,
			source_user_id BIGINT,
			viewed BOOLEAN NOT NULL DEFAULT FALSE,
			dismissed BOOLEAN NOT NULL DEFAULT FALSE,
			acted_upon BOOLEAN NOT NULL DEFAULT FALSE,
			user_feedback INTEGER,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, kind, candidate_id, group_scope)
		);`,

		`CREATE TABLE IF NOT EXISTS recommendation_feedback (
			id TEXT PRIMARY KEY,
			recommendation_id TEXT NOT NULL,
			user_id BIGINT NOT NULL,
			kind TEXT NOT NULL,
			candidate_id BIGINT NOT NULL,
			reason_code TEXT NOT NULL,
			classification TEXT NOT NULL,
			rating INTEGER,
			comment TEXT,
			action TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
	}
}

// createIndexes creates all database indexes unless disabled for tests.
func (db *DB) createIndexes() error {
	if db.cfg != nil && db.cfg.SkipIndexes {
		return nil
	}

	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getIndexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}
	return nil
}

// getIndexQueries returns index creation SQL statements
func (db *DB) getIndexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_profile_weights_user ON profile_weights(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_profile_weights_label ON profile_weights(dimension, label);`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_user ON recommendation_feedback(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_created ON recommendation_feedback(created_at);`,
	}
}
