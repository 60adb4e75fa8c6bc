// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package database

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

func feedback(userID int64, reason recommend.ReasonCode, class recommend.Classification, at time.Time) *recommend.FeedbackRecord {
	return &recommend.FeedbackRecord{
		ID:               uuid.NewString(),
		RecommendationID: uuid.NewString(),
		UserID:           userID,
		Kind:             recommend.KindContent,
		CandidateID:      100,
		ReasonCode:       reason,
		Classification:   class,
		Action:           recommend.ActionActedUpon,
		CreatedAt:        at,
	}
}

func TestFeedback_AppendAndList(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rating := 2
	rated := feedback(1, recommend.ReasonTrending, recommend.FeedbackNegative, baseTime)
	rated.Action = recommend.ActionRated
	rated.Rating = &rating
	rated.Comment = "not for me"

	records := []*recommend.FeedbackRecord{
		feedback(1, recommend.ReasonGenreMatch, recommend.FeedbackPositive, baseTime.Add(-48*time.Hour)),
		rated,
		feedback(2, recommend.ReasonGenreMatch, recommend.FeedbackPositive, baseTime),
	}
	for _, fb := range records {
		if err := db.AppendFeedback(ctx, fb); err != nil {
			t.Fatalf("AppendFeedback() error = %v", err)
		}
	}

	got, err := db.ListFeedback(ctx, 1, baseTime.Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListFeedback() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListFeedback() returned %d records, want 1", len(got))
	}
	fb := got[0]
	if fb.ID != rated.ID || fb.Action != recommend.ActionRated || fb.Comment != "not for me" {
		t.Errorf("record = %+v", fb)
	}
	if fb.Rating == nil || *fb.Rating != 2 {
		t.Errorf("Rating = %v, want 2", fb.Rating)
	}

	all, err := db.ListFeedback(ctx, 1, time.Time{})
	if err != nil {
		t.Fatalf("ListFeedback() error = %v", err)
	}
	if len(all) != 2 || all[0].Rating != nil {
		t.Errorf("ListFeedback(all) = %d records, first rating %v", len(all), all[0].Rating)
	}
}

func TestConversionRates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	since := baseTime.Add(-7 * day)
	records := []*recommend.FeedbackRecord{
		feedback(1, recommend.ReasonGenreMatch, recommend.FeedbackPositive, baseTime),
		feedback(2, recommend.ReasonGenreMatch, recommend.FeedbackPositive, baseTime),
		feedback(3, recommend.ReasonGenreMatch, recommend.FeedbackNegative, baseTime),
		feedback(1, recommend.ReasonTrending, recommend.FeedbackNeutral, baseTime),
		feedback(1, recommend.ReasonTrending, recommend.FeedbackPositive, baseTime),
		// Outside the window.
		feedback(1, recommend.ReasonExploration, recommend.FeedbackPositive, since.Add(-time.Hour)),
	}
	for _, fb := range records {
		if err := db.AppendFeedback(ctx, fb); err != nil {
			t.Fatalf("AppendFeedback() error = %v", err)
		}
	}

	rates, err := db.ConversionRates(ctx, since)
	if err != nil {
		t.Fatalf("ConversionRates() error = %v", err)
	}
	want := map[recommend.ReasonCode]float64{
		recommend.ReasonGenreMatch: 2.0 / 3,
		recommend.ReasonTrending:   0.5,
	}
	if len(rates) != len(want) {
		t.Fatalf("ConversionRates() = %v, want %v", rates, want)
	}
	for rc, w := range want {
		if math.Abs(rates[rc]-w) > 1e-9 {
			t.Errorf("rate[%s] = %f, want %f", rc, rates[rc], w)
		}
	}

	stats, err := db.FeedbackStats(ctx, since)
	if err != nil {
		t.Fatalf("FeedbackStats() error = %v", err)
	}
	if len(stats) != 2 || stats[0].ReasonCode != recommend.ReasonGenreMatch {
		t.Fatalf("FeedbackStats() order = %+v", stats)
	}
	if stats[0].Total != 3 || stats[0].Positive != 2 || stats[0].Negative != 1 {
		t.Errorf("genre stats = %+v", stats[0])
	}
}
