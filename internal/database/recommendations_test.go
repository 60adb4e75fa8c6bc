// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

const day = 24 * time.Hour

func newRec(userID, candidateID int64, score float64, created time.Time) *recommend.Recommendation {
	src := int64(7)
	return &recommend.Recommendation{
		ID:            uuid.NewString(),
		UserID:        userID,
		CandidateID:   candidateID,
		Kind:          recommend.KindContent,
		Score:         score,
		ReasonCode:    recommend.ReasonGenreMatch,
		Explanation:   recommend.Explain(recommend.ReasonGenreMatch, "Heat"),
		SourceMediaID: &src,
		CreatedAt:     created,
		ExpiresAt:     created.Add(14 * day),
		UpdatedAt:     created,
	}
}

func mustUpsert(t *testing.T, db *DB, rec *recommend.Recommendation, now time.Time) (*recommend.Recommendation, recommend.UpsertOutcome) {
	t.Helper()
	stored, outcome, err := db.UpsertRecommendation(context.Background(), rec, now)
	if err != nil {
		t.Fatalf("UpsertRecommendation() error = %v", err)
	}
	return stored, outcome
}

func TestUpsertRecommendation_Outcomes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := newRec(1, 100, 0.8, baseTime)
	stored, outcome := mustUpsert(t, db, first, baseTime)
	if outcome != recommend.UpsertInserted {
		t.Fatalf("first upsert outcome = %s, want inserted", outcome)
	}
	if stored.ID != first.ID {
		t.Errorf("stored id = %s, want %s", stored.ID, first.ID)
	}

	got, err := db.GetRecommendation(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetRecommendation() error = %v", err)
	}
	if got.Explanation != "Because you enjoyed Heat" {
		t.Errorf("Explanation = %q", got.Explanation)
	}
	if got.SourceMediaID == nil || *got.SourceMediaID != 7 {
		t.Errorf("SourceMediaID = %v, want 7", got.SourceMediaID)
	}
	if got.GroupID != nil {
		t.Errorf("GroupID = %v, want nil", *got.GroupID)
	}
	if !got.ExpiresAt.Equal(first.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, first.ExpiresAt)
	}

	// Day 13: regenerate extends the active row.
	day13 := baseTime.Add(13 * day)
	again := newRec(1, 100, 0.6, day13)
	stored, outcome = mustUpsert(t, db, again, day13)
	if outcome != recommend.UpsertExtended {
		t.Fatalf("active upsert outcome = %s, want extended", outcome)
	}
	if stored.ID != first.ID {
		t.Errorf("extended row id = %s, want original %s", stored.ID, first.ID)
	}
	if !stored.ExpiresAt.Equal(day13.Add(14 * day)) {
		t.Errorf("extended ExpiresAt = %v, want %v", stored.ExpiresAt, day13.Add(14*day))
	}
	if stored.Score != 0.8 {
		t.Errorf("extended Score = %f, want 0.8 from the first insert", stored.Score)
	}

	// Past expiry: regenerate replaces in place with a new id.
	later := day13.Add(15 * day)
	fresh := newRec(1, 100, 0.9, later)
	stored, outcome = mustUpsert(t, db, fresh, later)
	if outcome != recommend.UpsertReplaced {
		t.Fatalf("expired upsert outcome = %s, want replaced", outcome)
	}
	if stored.ID != fresh.ID {
		t.Errorf("replaced id = %s, want %s", stored.ID, fresh.ID)
	}
	if _, err := db.GetRecommendation(ctx, first.ID); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("old id lookup error = %v, want ErrNotFound", err)
	}

	counts, err := db.GetRecordCounts(ctx)
	if err != nil {
		t.Fatalf("GetRecordCounts() error = %v", err)
	}
	if counts.Recommendations != 1 {
		t.Errorf("recommendations = %d, want 1", counts.Recommendations)
	}
}

func TestUpsertRecommendation_ExtendOnlyMovesExpiry(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := newRec(1, 100, 0.9, baseTime)
	first.Viewed = true
	mustUpsert(t, db, first, baseTime)

	later := baseTime.Add(time.Hour)
	again := newRec(1, 100, 0.31, later)
	again.ReasonCode = recommend.ReasonTrending
	again.Explanation = "Trending now"
	again.SourceMediaID = nil
	if _, outcome := mustUpsert(t, db, again, later); outcome != recommend.UpsertExtended {
		t.Fatalf("outcome = %s, want extended", outcome)
	}

	got, err := db.GetRecommendation(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetRecommendation() error = %v", err)
	}
	if !got.ExpiresAt.Equal(again.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, again.ExpiresAt)
	}
	if got.Score != first.Score {
		t.Errorf("Score = %f, want %f", got.Score, first.Score)
	}
	if got.ReasonCode != first.ReasonCode || got.Explanation != first.Explanation {
		t.Errorf("reason = %s %q, want %s %q", got.ReasonCode, got.Explanation, first.ReasonCode, first.Explanation)
	}
	if got.SourceMediaID == nil || *got.SourceMediaID != *first.SourceMediaID {
		t.Errorf("SourceMediaID = %v, want %d", got.SourceMediaID, *first.SourceMediaID)
	}
	if !got.Viewed || got.Dismissed || got.ActedUpon {
		t.Errorf("flags = viewed:%t dismissed:%t acted:%t, want viewed only", got.Viewed, got.Dismissed, got.ActedUpon)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, first.CreatedAt)
	}
}

func TestUpsertRecommendation_DismissedUntouched(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rec := newRec(1, 100, 0.8, baseTime)
	mustUpsert(t, db, rec, baseTime)

	now := baseTime.Add(time.Hour)
	if _, err := rec.Transition(recommend.StatusDismissed, now); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if err := db.UpdateRecommendationStatus(ctx, rec); err != nil {
		t.Fatalf("UpdateRecommendationStatus() error = %v", err)
	}

	stored, outcome := mustUpsert(t, db, newRec(1, 100, 0.99, now), now)
	if outcome != recommend.UpsertUnchanged {
		t.Fatalf("outcome = %s, want unchanged", outcome)
	}
	if !stored.Dismissed || stored.ID != rec.ID || stored.Score != 0.8 {
		t.Errorf("dismissed row modified: %+v", stored)
	}
}

func TestUpsertRecommendation_GroupScope(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	personal := newRec(1, 100, 0.5, baseTime)
	mustUpsert(t, db, personal, baseTime)

	groupID := int64(42)
	scoped := newRec(1, 100, 0.7, baseTime)
	scoped.GroupID = &groupID
	if _, outcome := mustUpsert(t, db, scoped, baseTime); outcome != recommend.UpsertInserted {
		t.Fatalf("group-scoped outcome = %s, want inserted", outcome)
	}

	rows, err := db.ListActionable(ctx, recommend.ListQuery{UserID: 1, Kind: recommend.KindContent, GroupID: &groupID, Now: baseTime})
	if err != nil {
		t.Fatalf("ListActionable() error = %v", err)
	}
	if len(rows) != 1 || rows[0].ID != scoped.ID {
		t.Fatalf("group rows = %v, want only %s", rows, scoped.ID)
	}
	if rows[0].GroupID == nil || *rows[0].GroupID != groupID {
		t.Errorf("GroupID = %v, want %d", rows[0].GroupID, groupID)
	}

	rows, err = db.ListActionable(ctx, recommend.ListQuery{UserID: 1, Kind: recommend.KindContent, Now: baseTime})
	if err != nil {
		t.Fatalf("ListActionable() error = %v", err)
	}
	if len(rows) != 1 || rows[0].ID != personal.ID {
		t.Fatalf("personal rows = %v, want only %s", rows, personal.ID)
	}
}

func TestUpdateRecommendationStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rec := newRec(1, 100, 0.8, baseTime)
	mustUpsert(t, db, rec, baseTime)

	now := baseTime.Add(time.Hour)
	if _, err := rec.Transition(recommend.StatusActedUpon, now); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if err := rec.ApplyRating(5, now); err != nil {
		t.Fatalf("ApplyRating() error = %v", err)
	}
	if err := db.UpdateRecommendationStatus(ctx, rec); err != nil {
		t.Fatalf("UpdateRecommendationStatus() error = %v", err)
	}

	got, err := db.GetRecommendation(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetRecommendation() error = %v", err)
	}
	if !got.Viewed || !got.ActedUpon || got.Dismissed {
		t.Errorf("flags = viewed:%v acted:%v dismissed:%v", got.Viewed, got.ActedUpon, got.Dismissed)
	}
	if got.UserFeedback == nil || *got.UserFeedback != 5 {
		t.Errorf("UserFeedback = %v, want 5", got.UserFeedback)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, now)
	}

	// A nil rating keeps the stored one.
	got.UserFeedback = nil
	if err := db.UpdateRecommendationStatus(ctx, got); err != nil {
		t.Fatalf("UpdateRecommendationStatus() error = %v", err)
	}
	again, _ := db.GetRecommendation(ctx, rec.ID)
	if again.UserFeedback == nil || *again.UserFeedback != 5 {
		t.Errorf("UserFeedback after nil update = %v, want 5", again.UserFeedback)
	}

	missing := newRec(1, 999, 0.1, baseTime)
	if err := db.UpdateRecommendationStatus(ctx, missing); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("unknown id error = %v, want ErrNotFound", err)
	}
}

func TestListActionable_OrderAndWindow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	scores := map[int64]float64{101: 0.3, 102: 0.9, 103: 0.6, 104: 0.6, 105: 0.1}
	for id, score := range scores {
		created := baseTime
		if id == 104 {
			created = baseTime.Add(time.Minute)
		}
		mustUpsert(t, db, newRec(1, id, score, created), created)
	}

	// 106 outranks everything but is dismissed.
	dismissed := newRec(1, 106, 0.95, baseTime)
	mustUpsert(t, db, dismissed, baseTime)
	dismissed.Dismissed = true
	dismissed.UpdatedAt = baseTime
	if err := db.UpdateRecommendationStatus(ctx, dismissed); err != nil {
		t.Fatalf("UpdateRecommendationStatus() error = %v", err)
	}

	now := baseTime.Add(time.Hour)
	tests := []struct {
		name   string
		offset int
		limit  int
		want   []int64
	}{
		{"all", 0, 0, []int64{102, 104, 103, 101, 105}},
		{"first page", 0, 2, []int64{102, 104}},
		{"second page", 2, 2, []int64{103, 101}},
		{"offset without limit", 3, 0, []int64{101, 105}},
		{"past the end", 10, 2, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := db.ListActionable(ctx, recommend.ListQuery{
				UserID: 1, Kind: recommend.KindContent, Now: now, Offset: tt.offset, Limit: tt.limit,
			})
			if err != nil {
				t.Fatalf("ListActionable() error = %v", err)
			}
			got := make([]int64, len(rows))
			for i, r := range rows {
				got[i] = r.CandidateID
			}
			if len(got) != len(tt.want) {
				t.Fatalf("candidates = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("candidates = %v, want %v", got, tt.want)
				}
			}
		})
	}

	expiredView, err := db.ListActionable(ctx, recommend.ListQuery{UserID: 1, Kind: recommend.KindContent, Now: baseTime.Add(14 * day)})
	if err != nil {
		t.Fatalf("ListActionable() error = %v", err)
	}
	// 104 was created a minute later and is the only row still valid.
	if len(expiredView) != 1 || expiredView[0].CandidateID != 104 {
		t.Errorf("rows at expiry boundary = %d, want only 104", len(expiredView))
	}
}

func TestTrimRecommendations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// 201 expires early, 202 is acted upon, the rest are actionable.
	expired := newRec(1, 201, 0.99, baseTime)
	expired.ExpiresAt = baseTime.Add(time.Hour)
	mustUpsert(t, db, expired, baseTime)

	acted := newRec(1, 202, 0.01, baseTime)
	mustUpsert(t, db, acted, baseTime)
	acted.ActedUpon, acted.Viewed = true, true
	if err := db.UpdateRecommendationStatus(ctx, acted); err != nil {
		t.Fatalf("UpdateRecommendationStatus() error = %v", err)
	}

	for i, score := range []float64{0.5, 0.2, 0.8} {
		mustUpsert(t, db, newRec(1, int64(203+i), score, baseTime), baseTime)
	}

	now := baseTime.Add(2 * time.Hour)
	n, err := db.TrimRecommendations(ctx, 1, recommend.KindContent, 2, now)
	if err != nil {
		t.Fatalf("TrimRecommendations() error = %v", err)
	}
	// Trimmable: 201 (expired), 203, 204, 205. Keep 2 removes 201 and 204.
	if n != 2 {
		t.Fatalf("trimmed = %d, want 2", n)
	}
	if _, err := db.GetRecommendation(ctx, acted.ID); err != nil {
		t.Errorf("acted-upon row trimmed: %v", err)
	}
	if _, err := db.GetRecommendation(ctx, expired.ID); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("expired row survived trim")
	}

	rows, _ := db.ListActionable(ctx, recommend.ListQuery{UserID: 1, Kind: recommend.KindContent, Now: now})
	if len(rows) != 2 || rows[0].CandidateID != 205 || rows[1].CandidateID != 203 {
		t.Errorf("remaining rows unexpected: %d", len(rows))
	}

	if n, _ := db.TrimRecommendations(ctx, 1, recommend.KindContent, 2, now); n != 0 {
		t.Errorf("second trim = %d, want 0", n)
	}
}

func TestDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	old := newRec(1, 301, 0.5, baseTime.Add(-30*day))
	recent := newRec(1, 302, 0.5, baseTime)
	mustUpsert(t, db, old, old.CreatedAt)
	mustUpsert(t, db, recent, recent.CreatedAt)

	n, err := db.DeleteExpired(ctx, baseTime.Add(-7*day))
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("DeleteExpired() = %d, want 1", n)
	}
	if _, err := db.GetRecommendation(ctx, old.ID); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("purged row still present")
	}
	if _, err := db.GetRecommendation(ctx, recent.ID); err != nil {
		t.Errorf("recent row purged: %v", err)
	}
}
