// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// AppendFeedback implements recommend.FeedbackStore.
func (db *DB) AppendFeedback(ctx context.Context, fb *recommend.FeedbackRecord) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	return db.withReconnect(ctx, func() error {
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO recommendation_feedback
				(id, recommendation_id, user_id, kind, candidate_id, reason_code,
				 classification, rating, comment, action, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			fb.ID, fb.RecommendationID, fb.UserID, string(fb.Kind), fb.CandidateID, string(fb.ReasonCode),
			string(fb.Classification), nullFeedback(fb.Rating), fb.Comment, string(fb.Action), fb.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("append feedback for %s: %w", fb.RecommendationID, err)
		}
		return nil
	})
}

// ListFeedback implements recommend.FeedbackStore.
func (db *DB) ListFeedback(ctx context.Context, userID int64, since time.Time) ([]*recommend.FeedbackRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, recommendation_id, user_id, kind, candidate_id, reason_code,
		       classification, rating, COALESCE(comment, ''), action, created_at
		FROM recommendation_feedback
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at ASC, id ASC`, userID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("list feedback for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]*recommend.FeedbackRecord, 0)
	for rows.Next() {
		var (
			fb                                   recommend.FeedbackRecord
			kind, reason, classification, action string
			rating                               sql.NullInt32
		)
		if err := rows.Scan(&fb.ID, &fb.RecommendationID, &fb.UserID, &kind, &fb.CandidateID, &reason,
			&classification, &rating, &fb.Comment, &action, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		fb.Kind = recommend.Kind(kind)
		fb.ReasonCode = recommend.ReasonCode(reason)
		fb.Classification = recommend.Classification(classification)
		fb.Action = recommend.FeedbackAction(action)
		if rating.Valid {
			v := int(rating.Int32)
			fb.Rating = &v
		}
		fb.CreatedAt = fb.CreatedAt.UTC()
		out = append(out, &fb)
	}
	return out, rows.Err()
}

// ReasonStats summarizes feedback for one reason code.
type ReasonStats struct {
	ReasonCode     recommend.ReasonCode `json:"reason_code"`
	Total          int64                `json:"total"`
	Positive       int64                `json:"positive"`
	Negative       int64                `json:"negative"`
	ConversionRate float64              `json:"conversion_rate"`
}

// FeedbackStats aggregates feedback created at or after since by reason
// code, highest conversion first.
func (db *DB) FeedbackStats(ctx context.Context, since time.Time) ([]ReasonStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT
			reason_code,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE classification = ?) AS positive,
			COUNT(*) FILTER (WHERE classification = ?) AS negative
		FROM recommendation_feedback
		WHERE created_at >= ?
		GROUP BY reason_code`,
		string(recommend.FeedbackPositive), string(recommend.FeedbackNegative), since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query feedback stats: %w", err)
	}
	defer rows.Close()

	out := make([]ReasonStats, 0)
	for rows.Next() {
		var (
			s      ReasonStats
			reason string
		)
		if err := rows.Scan(&reason, &s.Total, &s.Positive, &s.Negative); err != nil {
			return nil, fmt.Errorf("scan feedback stats: %w", err)
		}
		s.ReasonCode = recommend.ReasonCode(reason)
		if s.Total > 0 {
			s.ConversionRate = float64(s.Positive) / float64(s.Total)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback stats: %w", err)
	}

	sortReasonStats(out)
	return out, nil
}

// ConversionRates implements recommend.RecommendationStore.
func (db *DB) ConversionRates(ctx context.Context, since time.Time) (map[recommend.ReasonCode]float64, error) {
	stats, err := db.FeedbackStats(ctx, since)
	if err != nil {
		return nil, err
	}
	rates := make(map[recommend.ReasonCode]float64, len(stats))
	for _, s := range stats {
		rates[s.ReasonCode] = s.ConversionRate
	}
	return rates, nil
}

func sortReasonStats(stats []ReasonStats) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].ConversionRate != stats[j].ConversionRate {
			return stats[i].ConversionRate > stats[j].ConversionRate
		}
		return stats[i].ReasonCode < stats[j].ReasonCode
	})
}
