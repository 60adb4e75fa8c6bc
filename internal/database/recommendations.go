// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

const recommendationColumns = `id, user_id, kind, candidate_id, group_scope, score, reason_code, explanation,
	source_media_id, source_group_id, source_user_id, viewed, dismissed, acted_upon, user_feedback,
	created_at, expires_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// UpsertRecommendation implements recommend.RecommendationStore. The check
// and the write run in one transaction; a concurrent writer that inserted
// the same key first makes the insert fail with recommend.ErrConflict.
func (db *DB) UpsertRecommendation(ctx context.Context, rec *recommend.Recommendation, now time.Time) (*recommend.Recommendation, recommend.UpsertOutcome, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	var (
		result  *recommend.Recommendation
		outcome recommend.UpsertOutcome
	)
	err := db.withReconnect(ctx, func() error {
		var err error
		result, outcome, err = db.upsertTx(ctx, rec, now)
		return err
	})
	if err != nil {
		return nil, recommend.UpsertUnchanged, err
	}
	return result, outcome, nil
}

func (db *DB) upsertTx(ctx context.Context, rec *recommend.Recommendation, now time.Time) (*recommend.Recommendation, recommend.UpsertOutcome, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, recommend.UpsertUnchanged, fmt.Errorf("begin upsert: %w", err)
	}
	defer rollback(tx)

	key := rec.Key()
	existing, err := scanRecommendation(tx.QueryRowContext(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations
		WHERE user_id = ? AND kind = ? AND candidate_id = ? AND group_scope = ?`,
		key.UserID, string(key.Kind), key.CandidateID, key.GroupID))

	var (
		result  *recommend.Recommendation
		outcome recommend.UpsertOutcome
	)
	switch {
	case isNoRows(err):
		if err := insertRecommendation(ctx, tx, rec); err != nil {
			return nil, recommend.UpsertUnchanged, mapWriteError("insert recommendation", err)
		}
		result, outcome = rec.Clone(), recommend.UpsertInserted

	case err != nil:
		return nil, recommend.UpsertUnchanged, fmt.Errorf("load recommendation: %w", err)

	case existing.Expired(now):
		if err := replaceRecommendation(ctx, tx, rec); err != nil {
			return nil, recommend.UpsertUnchanged, mapWriteError("replace recommendation", err)
		}
		result, outcome = rec.Clone(), recommend.UpsertReplaced

	case existing.Dismissed:
		return existing, recommend.UpsertUnchanged, nil

	default:
		if rec.ExpiresAt.After(existing.ExpiresAt) {
			existing.ExpiresAt = rec.ExpiresAt
		}
		existing.UpdatedAt = now
		// Only the expiry moves; score and reason stay as first stored.
		_, err := tx.ExecContext(ctx,
			`UPDATE recommendations SET expires_at = ?, updated_at = ?
			WHERE user_id = ? AND kind = ? AND candidate_id = ? AND group_scope = ?`,
			existing.ExpiresAt.UTC(), now.UTC(),
			key.UserID, string(key.Kind), key.CandidateID, key.GroupID)
		if err != nil {
			return nil, recommend.UpsertUnchanged, mapWriteError("extend recommendation", err)
		}
		result, outcome = existing, recommend.UpsertExtended
	}

	if err := tx.Commit(); err != nil {
		return nil, recommend.UpsertUnchanged, mapWriteError("commit recommendation", err)
	}
	return result, outcome, nil
}

func insertRecommendation(ctx context.Context, tx *sql.Tx, rec *recommend.Recommendation) error {
	key := rec.Key()
	_, err := tx.ExecContext(ctx,
		`INSERT INTO recommendations (`+recommendationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, key.UserID, string(key.Kind), key.CandidateID, key.GroupID, rec.Score,
		string(rec.ReasonCode), rec.Explanation,
		nullInt64(rec.SourceMediaID), nullInt64(rec.SourceGroupID), nullInt64(rec.SourceUserID),
		rec.Viewed, rec.Dismissed, rec.ActedUpon, nullFeedback(rec.UserFeedback),
		rec.CreatedAt.UTC(), rec.ExpiresAt.UTC(), rec.UpdatedAt.UTC())
	return err
}

// replaceRecommendation overwrites every non-key column of an expired row.
func replaceRecommendation(ctx context.Context, tx *sql.Tx, rec *recommend.Recommendation) error {
	key := rec.Key()
	_, err := tx.ExecContext(ctx,
		`UPDATE recommendations SET
			id = ?, score = ?, reason_code = ?, explanation = ?,
			source_media_id = ?, source_group_id = ?, source_user_id = ?,
			viewed = ?, dismissed = ?, acted_upon = ?, user_feedback = ?,
			created_at = ?, expires_at = ?, updated_at = ?
		WHERE user_id = ? AND kind = ? AND candidate_id = ? AND group_scope = ?`,
		rec.ID, rec.Score, string(rec.ReasonCode), rec.Explanation,
		nullInt64(rec.SourceMediaID), nullInt64(rec.SourceGroupID), nullInt64(rec.SourceUserID),
		rec.Viewed, rec.Dismissed, rec.ActedUpon, nullFeedback(rec.UserFeedback),
		rec.CreatedAt.UTC(), rec.ExpiresAt.UTC(), rec.UpdatedAt.UTC(),
		key.UserID, string(key.Kind), key.CandidateID, key.GroupID)
	return err
}

// GetRecommendation implements recommend.RecommendationStore.
func (db *DB) GetRecommendation(ctx context.Context, id string) (*recommend.Recommendation, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rec, err := scanRecommendation(db.conn.QueryRowContext(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations WHERE id = ?`, id))
	if isNoRows(err) {
		return nil, fmt.Errorf("recommendation %s: %w", id, recommend.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get recommendation %s: %w", id, err)
	}
	return rec, nil
}

// UpdateRecommendationStatus implements recommend.RecommendationStore.
func (db *DB) UpdateRecommendationStatus(ctx context.Context, rec *recommend.Recommendation) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE recommendations SET
			viewed = ?, dismissed = ?, acted_upon = ?,
			user_feedback = COALESCE(?, user_feedback), updated_at = ?
		WHERE id = ?`,
		rec.Viewed, rec.Dismissed, rec.ActedUpon, nullFeedback(rec.UserFeedback), rec.UpdatedAt.UTC(), rec.ID)
	if err != nil {
		return mapWriteError("update recommendation status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update recommendation status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recommendation %s: %w", rec.ID, recommend.ErrNotFound)
	}
	return nil
}

// ListActionable implements recommend.RecommendationStore.
func (db *DB) ListActionable(ctx context.Context, q recommend.ListQuery) ([]*recommend.Recommendation, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var scope int64
	if q.GroupID != nil {
		scope = *q.GroupID
	}

	query := `SELECT ` + recommendationColumns + ` FROM recommendations
		WHERE user_id = ? AND kind = ? AND group_scope = ?
		  AND NOT dismissed AND NOT acted_upon AND expires_at > ?
		ORDER BY score DESC, created_at DESC, id ASC`
	args := []any{q.UserID, string(q.Kind), scope, q.Now.UTC()}
	skip := q.Offset
	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, max(q.Offset, 0))
		skip = 0
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list actionable recommendations: %w", err)
	}
	defer rows.Close()

	out := make([]*recommend.Recommendation, 0)
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// TrimRecommendations implements recommend.RecommendationStore. Expired rows
// go first, then the lowest scores. Unexpired dismissed and acted-upon rows
// are not candidates for trimming.
func (db *DB) TrimRecommendations(ctx context.Context, userID int64, kind recommend.Kind, keep int, now time.Time) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin trim: %w", err)
	}
	defer rollback(tx)

	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM recommendations
		WHERE user_id = ? AND kind = ?
		  AND (expires_at <= ? OR (NOT dismissed AND NOT acted_upon))
		ORDER BY CASE WHEN expires_at <= ? THEN 0 ELSE 1 END, score ASC, created_at ASC`,
		userID, string(kind), now.UTC(), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("select trimmable recommendations: %w", err)
	}
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			closeQuietly(rows)
			return 0, fmt.Errorf("scan trimmable id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		closeQuietly(rows)
		return 0, fmt.Errorf("iterate trimmable ids: %w", err)
	}
	closeQuietly(rows)

	if len(ids) <= keep {
		return 0, nil
	}

	victims := ids[:len(ids)-keep]
	for _, id := range victims {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recommendations WHERE id = ?`, id); err != nil {
			return 0, mapWriteError("trim recommendation", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, mapWriteError("commit trim", err)
	}
	return len(victims), nil
}

// DeleteExpired implements recommend.RecommendationStore.
func (db *DB) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM recommendations WHERE expires_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired recommendations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired recommendations: %w", err)
	}
	return int(n), nil
}

func scanRecommendation(row rowScanner) (*recommend.Recommendation, error) {
	var (
		rec                      recommend.Recommendation
		kind, reason             string
		groupScope               int64
		sourceMedia, sourceGroup sql.NullInt64
		sourceUser               sql.NullInt64
		feedback                 sql.NullInt32
	)
	err := row.Scan(&rec.ID, &rec.UserID, &kind, &rec.CandidateID, &groupScope, &rec.Score, &reason, &rec.Explanation,
		&sourceMedia, &sourceGroup, &sourceUser, &rec.Viewed, &rec.Dismissed, &rec.ActedUpon, &feedback,
		&rec.CreatedAt, &rec.ExpiresAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rec.Kind = recommend.Kind(kind)
	rec.ReasonCode = recommend.ReasonCode(reason)
	rec.SourceMediaID = int64Ptr(sourceMedia)
	rec.SourceGroupID = int64Ptr(sourceGroup)
	rec.SourceUserID = int64Ptr(sourceUser)
	if groupScope != 0 {
		rec.GroupID = &groupScope
	}
	if feedback.Valid {
		v := int(feedback.Int32)
		rec.UserFeedback = &v
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.ExpiresAt = rec.ExpiresAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return &rec, nil
}

func nullFeedback(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true} //nolint:gosec // rating is validated to [1,5]
}
