// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package recommend

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"CONTENT", KindContent, false},
		{"content", KindContent, false},
		{" group ", KindGroup, false},
		{"person", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("ParseKind(%q) error = %v, want ErrInvalidArgument", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKind(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseReasonCode(t *testing.T) {
	for _, rc := range ReasonCodes {
		got, err := ParseReasonCode(string(rc))
		if err != nil || got != rc {
			t.Errorf("ParseReasonCode(%q) = %q, %v", rc, got, err)
		}
	}

	if _, err := ParseReasonCode("genre_match"); err != nil {
		t.Errorf("lower case reason code rejected: %v", err)
	}
	if _, err := ParseReasonCode("MOOD_MATCH"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unknown reason code error = %v, want ErrInvalidArgument", err)
	}
}

func TestEraLabel(t *testing.T) {
	tests := []struct {
		year int
		want string
	}{
		{1994, "1990s"},
		{2000, "2000s"},
		{2019, "2010s"},
		{0, ""},
		{-5, ""},
	}
	for _, tt := range tests {
		if got := EraLabel(tt.year); got != tt.want {
			t.Errorf("EraLabel(%d) = %q, want %q", tt.year, got, tt.want)
		}
	}
}

func TestCategoryWeights_Top(t *testing.T) {
	w := CategoryWeights{"drama": 0.4, "action": 1.0, "comedy": 1.0}
	label, weight := w.Top()
	if label != "action" || weight != 1.0 {
		t.Errorf("Top() = %q, %f, want action, 1.0", label, weight)
	}

	if label, _ := (CategoryWeights{}).Top(); label != "" {
		t.Errorf("Top() on empty = %q, want empty", label)
	}

	top := w.TopN(2)
	if len(top) != 2 || top[0] != "action" || top[1] != "comedy" {
		t.Errorf("TopN(2) = %v", top)
	}
}

func TestPreferenceProfile_TopCategory(t *testing.T) {
	p := &PreferenceProfile{
		GenreWeights:    CategoryWeights{"drama": 0.4, "noir": 1},
		PlatformWeights: CategoryWeights{},
		EraWeights:      CategoryWeights{"1990s": 0.2},
	}
	tests := []struct {
		dim  Dimension
		want string
	}{
		{DimensionGenre, "noir"},
		{DimensionPlatform, ""},
		{DimensionEra, "1990s"},
		{DimensionRating, ""},
	}
	for _, tt := range tests {
		if got, _ := p.TopCategory(tt.dim); got != tt.want {
			t.Errorf("TopCategory(%s) = %q, want %q", tt.dim, got, tt.want)
		}
	}
	var nilProfile *PreferenceProfile
	if got, _ := nilProfile.TopCategory(DimensionGenre); got != "" {
		t.Errorf("nil TopCategory() = %q", got)
	}
}

func TestCategoryWeights_GetNormalizes(t *testing.T) {
	w := CategoryWeights{"sci-fi": 0.7}
	if got := w.Get("  Sci-Fi "); got != 0.7 {
		t.Errorf("Get() = %f, want 0.7", got)
	}
}

func TestPreferenceProfile_EffectiveConfidence(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	stale := 30 * 24 * time.Hour

	tests := []struct {
		name    string
		profile *PreferenceProfile
		want    float64
	}{
		{"nil profile", nil, 0},
		{"no interactions", &PreferenceProfile{ConfidenceScore: 0.9}, 0},
		{
			"fresh profile",
			&PreferenceProfile{TotalInteractions: 10, ConfidenceScore: 0.8, LastCalculatedAt: now.Add(-time.Hour)},
			0.8,
		},
		{
			"one period past stale",
			&PreferenceProfile{TotalInteractions: 10, ConfidenceScore: 0.8, LastCalculatedAt: now.Add(-2 * stale)},
			0.4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.profile.EffectiveConfidence(now, stale)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EffectiveConfidence() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestPreferenceProfile_Clone(t *testing.T) {
	p := &PreferenceProfile{UserID: 1, GenreWeights: CategoryWeights{"drama": 1}}
	c := p.Clone()
	c.GenreWeights["drama"] = 0.1
	if p.GenreWeights["drama"] != 1 {
		t.Error("Clone() shares the genre map")
	}
}

func TestClassifyRating(t *testing.T) {
	tests := []struct {
		rating int
		want   Classification
	}{
		{1, FeedbackNegative},
		{2, FeedbackNegative},
		{3, FeedbackNeutral},
		{4, FeedbackPositive},
		{5, FeedbackPositive},
	}
	for _, tt := range tests {
		if got := ClassifyRating(tt.rating); got != tt.want {
			t.Errorf("ClassifyRating(%d) = %s, want %s", tt.rating, got, tt.want)
		}
	}
}

func TestRecommendation_Key(t *testing.T) {
	personal := &Recommendation{UserID: 1, Kind: KindContent, CandidateID: 9}
	scoped := &Recommendation{UserID: 1, Kind: KindContent, CandidateID: 9, GroupID: Int64Ptr(4)}

	if personal.Key() == scoped.Key() {
		t.Error("group-scoped and personal rows must not share a key")
	}
	if personal.Key().GroupID != 0 {
		t.Errorf("personal key GroupID = %d, want 0", personal.Key().GroupID)
	}
}

func TestPage_Offset(t *testing.T) {
	if got := (Page{Number: 3, Size: 20}).Offset(); got != 60 {
		t.Errorf("Offset() = %d, want 60", got)
	}
}
