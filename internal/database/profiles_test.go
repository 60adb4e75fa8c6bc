// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

func testProfile(userID int64, genres recommend.CategoryWeights) *recommend.PreferenceProfile {
	return &recommend.PreferenceProfile{
		UserID:             userID,
		GenreWeights:       genres,
		PlatformWeights:    recommend.CategoryWeights{"netflix": 1},
		EraWeights:         recommend.CategoryWeights{"1990s": 0.5},
		AverageRating:      4.2,
		RatingVariance:     0.3,
		TotalInteractions:  25,
		TotalCompleted:     20,
		CompletionRate:     0.8,
		ViewingPersonality: recommend.PersonalityEnthusiast,
		ConfidenceScore:    0.9,
		LastCalculatedAt:   baseTime,
		LastInteractionAt:  baseTime.Add(-day),
	}
}

func TestProfiles_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetProfile(ctx, 1); !errors.Is(err, recommend.ErrNotFound) {
		t.Fatalf("GetProfile(missing) error = %v, want ErrNotFound", err)
	}

	want := testProfile(1, recommend.CategoryWeights{"action": 1, "drama": 0.25})
	if err := db.SaveProfile(ctx, want); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	got, err := db.GetProfile(ctx, 1)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.GenreWeights["action"] != 1 || got.GenreWeights["drama"] != 0.25 || len(got.GenreWeights) != 2 {
		t.Errorf("GenreWeights = %v", got.GenreWeights)
	}
	if got.PlatformWeights["netflix"] != 1 || got.EraWeights["1990s"] != 0.5 {
		t.Errorf("PlatformWeights = %v, EraWeights = %v", got.PlatformWeights, got.EraWeights)
	}
	if got.ViewingPersonality != recommend.PersonalityEnthusiast {
		t.Errorf("ViewingPersonality = %s", got.ViewingPersonality)
	}
	if got.TotalInteractions != 25 || got.TotalCompleted != 20 || got.ConfidenceScore != 0.9 {
		t.Errorf("counters = %d/%d confidence %f", got.TotalInteractions, got.TotalCompleted, got.ConfidenceScore)
	}
	if !got.LastCalculatedAt.Equal(baseTime) || !got.LastInteractionAt.Equal(baseTime.Add(-day)) {
		t.Errorf("timestamps = %v, %v", got.LastCalculatedAt, got.LastInteractionAt)
	}

	// Saving again replaces the weights instead of merging them.
	want.GenreWeights = recommend.CategoryWeights{"comedy": 0.7}
	want.ViewingPersonality = ""
	want.LastInteractionAt = got.LastInteractionAt.Add(day)
	if err := db.SaveProfile(ctx, want); err != nil {
		t.Fatalf("SaveProfile() second error = %v", err)
	}
	got, err = db.GetProfile(ctx, 1)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if len(got.GenreWeights) != 1 || got.GenreWeights["comedy"] != 0.7 {
		t.Errorf("GenreWeights after replace = %v", got.GenreWeights)
	}
	if got.ViewingPersonality != "" {
		t.Errorf("ViewingPersonality = %q, want empty", got.ViewingPersonality)
	}
}

func TestProfiles_DefaultProfile(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SaveProfile(ctx, recommend.NewDefaultProfile(9, baseTime)); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}
	got, err := db.GetProfile(ctx, 9)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.GenreWeights == nil || len(got.GenreWeights) != 0 {
		t.Errorf("GenreWeights = %v, want empty non-nil map", got.GenreWeights)
	}
	if !got.LastInteractionAt.IsZero() {
		t.Errorf("LastInteractionAt = %v, want zero", got.LastInteractionAt)
	}
}

func TestProfilesByTopGenre(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	profiles := []*recommend.PreferenceProfile{
		testProfile(1, recommend.CategoryWeights{"action": 1}),
		testProfile(2, recommend.CategoryWeights{"action": 0.4, "drama": 1}),
		testProfile(3, recommend.CategoryWeights{"action": 0.9}),
		testProfile(4, recommend.CategoryWeights{"romance": 1}),
		testProfile(5, recommend.CategoryWeights{"action": 0.9}),
	}
	for _, p := range profiles {
		if err := db.SaveProfile(ctx, p); err != nil {
			t.Fatalf("SaveProfile(%d) error = %v", p.UserID, err)
		}
	}

	tests := []struct {
		name    string
		genre   string
		exclude int64
		limit   int
		want    []int64
	}{
		{"excludes requester", "action", 1, 0, []int64{3, 5, 2}},
		{"limited", "Action", 1, 2, []int64{3, 5}},
		{"other genre", "romance", 1, 10, []int64{4}},
		{"no match", "western", 1, 10, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ProfilesByTopGenre(ctx, tt.genre, tt.exclude, tt.limit)
			if err != nil {
				t.Fatalf("ProfilesByTopGenre() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d profiles, want %v", len(got), tt.want)
			}
			for i, p := range got {
				if p.UserID != tt.want[i] {
					t.Errorf("position %d = user %d, want %d", i, p.UserID, tt.want[i])
				}
				if len(p.GenreWeights) == 0 {
					t.Errorf("user %d loaded without weights", p.UserID)
				}
			}
		})
	}
}
