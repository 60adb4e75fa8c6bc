// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

var profileDimensions = []recommend.Dimension{
	recommend.DimensionGenre,
	recommend.DimensionPlatform,
	recommend.DimensionEra,
}

const profileColumns = `user_id, average_rating, rating_variance, total_interactions, total_completed,
	completion_rate, viewing_personality, confidence_score, last_calculated_at, last_interaction_at`

// GetProfile implements recommend.ProfileStore.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*recommend.PreferenceProfile, error) {
	profiles, err := db.loadProfiles(ctx, []int64{userID})
	if err != nil {
		return nil, err
	}
	p, ok := profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile for user %d: %w", userID, recommend.ErrNotFound)
	}
	return p, nil
}

// SaveProfile implements recommend.ProfileStore. The scalar row is upserted
// and the category weights are replaced.
func (db *DB) SaveProfile(ctx context.Context, p *recommend.PreferenceProfile) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	return db.withReconnect(ctx, func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin save profile: %w", err)
		}
		defer rollback(tx)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO preference_profiles (`+profileColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE SET
				average_rating = EXCLUDED.average_rating,
				rating_variance = EXCLUDED.rating_variance,
				total_interactions = EXCLUDED.total_interactions,
				total_completed = EXCLUDED.total_completed,
				completion_rate = EXCLUDED.completion_rate,
				viewing_personality = EXCLUDED.viewing_personality,
				confidence_score = EXCLUDED.confidence_score,
				last_calculated_at = EXCLUDED.last_calculated_at,
				last_interaction_at = EXCLUDED.last_interaction_at`,
			p.UserID, p.AverageRating, p.RatingVariance, p.TotalInteractions, p.TotalCompleted,
			p.CompletionRate, nullString(string(p.ViewingPersonality)), p.ConfidenceScore,
			p.LastCalculatedAt.UTC(), nullTime(p.LastInteractionAt))
		if err != nil {
			return fmt.Errorf("upsert profile %d: %w", p.UserID, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM profile_weights WHERE user_id = ?`, p.UserID); err != nil {
			return fmt.Errorf("clear weights for profile %d: %w", p.UserID, err)
		}

		for _, dim := range profileDimensions {
			for label, weight := range p.Weights(dim) {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO profile_weights (user_id, dimension, label, weight) VALUES (?, ?, ?, ?)`,
					p.UserID, string(dim), label, weight)
				if err != nil {
					return fmt.Errorf("insert %s weight for profile %d: %w", dim, p.UserID, err)
				}
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit profile %d: %w", p.UserID, err)
		}
		return nil
	})
}

// ProfilesByTopGenre implements recommend.ProfileStore.
func (db *DB) ProfilesByTopGenre(ctx context.Context, genre string, excludeUserID int64, limit int) ([]*recommend.PreferenceProfile, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT user_id FROM profile_weights
		WHERE dimension = ? AND label = ? AND weight > 0 AND user_id <> ?
		ORDER BY weight DESC, user_id ASC`
	args := []any{string(recommend.DimensionGenre), recommend.NormalizeCategory(genre), excludeUserID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles by genre %q: %w", genre, err)
	}
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			closeQuietly(rows)
			return nil, fmt.Errorf("scan profile id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		closeQuietly(rows)
		return nil, fmt.Errorf("iterate profile ids: %w", err)
	}
	closeQuietly(rows)

	profiles, err := db.loadProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*recommend.PreferenceProfile, 0, len(ids))
	for _, id := range ids {
		if p, ok := profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// loadProfiles reads the profiles and weights of ids.
func (db *DB) loadProfiles(ctx context.Context, ids []int64) (map[int64]*recommend.PreferenceProfile, error) {
	out := make(map[int64]*recommend.PreferenceProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	placeholders, args := inClause(ids)

	//nolint:gosec // placeholders are generated, values are bound
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM preference_profiles WHERE user_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			closeQuietly(rows)
			return nil, err
		}
		out[p.UserID] = p
	}
	if err := rows.Err(); err != nil {
		closeQuietly(rows)
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	closeQuietly(rows)

	//nolint:gosec // placeholders are generated, values are bound
	rows, err = db.conn.QueryContext(ctx,
		`SELECT user_id, dimension, label, weight FROM profile_weights WHERE user_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query profile weights: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID    int64
			dimension string
			label     string
			weight    float64
		)
		if err := rows.Scan(&userID, &dimension, &label, &weight); err != nil {
			return nil, fmt.Errorf("scan profile weight: %w", err)
		}
		p, ok := out[userID]
		if !ok {
			continue
		}
		if w := p.Weights(recommend.Dimension(dimension)); w != nil {
			w[label] = weight
		}
	}
	return out, rows.Err()
}

func scanProfile(rows *sql.Rows) (*recommend.PreferenceProfile, error) {
	var (
		p               recommend.PreferenceProfile
		personality     sql.NullString
		lastCalculated  time.Time
		lastInteraction sql.NullTime
	)
	err := rows.Scan(&p.UserID, &p.AverageRating, &p.RatingVariance, &p.TotalInteractions, &p.TotalCompleted,
		&p.CompletionRate, &personality, &p.ConfidenceScore, &lastCalculated, &lastInteraction)
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.ViewingPersonality = recommend.Personality(personality.String)
	p.LastCalculatedAt = lastCalculated.UTC()
	if lastInteraction.Valid {
		p.LastInteractionAt = lastInteraction.Time.UTC()
	}
	p.GenreWeights = recommend.CategoryWeights{}
	p.PlatformWeights = recommend.CategoryWeights{}
	p.EraWeights = recommend.CategoryWeights{}
	return &p, nil
}

// inClause returns "?, ?, ?" with the matching arguments.
func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

// isNoRows reports whether err is sql.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
