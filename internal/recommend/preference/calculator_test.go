// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package preference

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/recommend/storage"
)

var calcNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func rating(v float64) *float64 { return &v }

func newTestCalculator(f *storage.Fixture, fb recommend.FeedbackStore) *Calculator {
	c := NewCalculator(recommend.DefaultConfig(), f, f, fb, zerolog.Nop())
	c.SetClock(func() time.Time { return calcNow })
	return c
}

func actionFixture(movies int) *storage.Fixture {
	f := storage.NewFixture()
	f.AddMedia(&recommend.MediaMetadata{ID: 900, Title: "Untouched", Genres: []string{"Romance"}, ReleaseYear: 2005})
	for i := 1; i <= movies; i++ {
		f.AddMedia(&recommend.MediaMetadata{ID: int64(i), Title: "Action", Genres: []string{"Action"}, Platform: "Cinema", ReleaseYear: 1990 + i})
		f.AddInteraction(recommend.Interaction{
			UserID:    1,
			MediaID:   int64(i),
			Rating:    rating(5),
			Status:    recommend.StatusCompleted,
			Timestamp: calcNow.Add(-time.Duration(i) * 24 * time.Hour),
		})
	}
	return f
}

func TestCalculate_EmptyHistory(t *testing.T) {
	c := newTestCalculator(storage.NewFixture(), nil)

	p, err := c.Calculate(context.Background(), 42)
	if err != nil {
		t.Fatalf("Calculate() error: %v", err)
	}
	if p.ConfidenceScore != 0 || p.TotalInteractions != 0 {
		t.Errorf("profile = %+v, want zero confidence default", p)
	}
	if c.HasSufficientData(p) {
		t.Error("empty profile must not have sufficient data")
	}
	if p.ViewingPersonality != "" {
		t.Errorf("personality = %s, want undetermined", p.ViewingPersonality)
	}
}

func TestCalculate_ActionMovies(t *testing.T) {
	c := newTestCalculator(actionFixture(3), nil)

	p, err := c.Calculate(context.Background(), 1)
	if err != nil {
		t.Fatalf("Calculate() error: %v", err)
	}

	action := p.GenreWeights.Get("action")
	if action <= p.GenreWeights.Get("romance") || action <= p.GenreWeights.Get("drama") {
		t.Errorf("action weight %f not above untouched genres", action)
	}
	if action != 1 {
		t.Errorf("dominant genre weight = %f, want 1", action)
	}
	if p.ViewingPersonality != "" {
		t.Errorf("personality assigned below the minimum interactions: %s", p.ViewingPersonality)
	}
	if p.TotalCompleted != 3 || p.CompletionRate != 1 {
		t.Errorf("completion stats = %d, %f", p.TotalCompleted, p.CompletionRate)
	}
}

func TestCalculate_PersonalityOnceEnoughInteractions(t *testing.T) {
	c := newTestCalculator(actionFixture(5), nil)

	p, err := c.Calculate(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.ViewingPersonality == "" {
		t.Error("personality must be set once interactions reach the minimum")
	}
	if p.GenreWeights.Get("action") <= p.GenreWeights.Get("romance") {
		t.Error("action must dominate")
	}
}

type failingSource struct{ storage.Fixture }

func (f *failingSource) History(context.Context, int64) ([]recommend.Interaction, error) {
	return nil, errors.New("connection reset")
}

func TestCalculate_UpstreamFailure(t *testing.T) {
	src := &failingSource{}
	c := NewCalculator(recommend.DefaultConfig(), src, storage.NewFixture(), nil, zerolog.Nop())

	_, err := c.Calculate(context.Background(), 1)
	if !errors.Is(err, recommend.ErrUnavailable) {
		t.Errorf("Calculate() error = %v, want ErrUnavailable", err)
	}
}

func TestCalculate_FeedbackLearning(t *testing.T) {
	ctx := context.Background()
	f := actionFixture(5)
	f.AddMedia(&recommend.MediaMetadata{ID: 50, Title: "Drama Pick", Genres: []string{"Drama"}, ReleaseYear: 2010})

	store := storage.NewMemoryStore()
	_ = store.AppendFeedback(ctx, &recommend.FeedbackRecord{
		ID: "f1", UserID: 1, Kind: recommend.KindContent, CandidateID: 50,
		Classification: recommend.FeedbackPositive, Action: recommend.ActionActedUpon, CreatedAt: calcNow.Add(-time.Hour),
	})

	without, _ := newTestCalculator(f, nil).Calculate(ctx, 1)
	with, err := newTestCalculator(f, store).Calculate(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := with.GenreWeights.Get("drama"), without.GenreWeights.Get("drama")+0.05; math.Abs(got-want) > 1e-9 {
		t.Errorf("drama weight = %f, want %f", got, want)
	}
	if with.GenreWeights.Get("action") != 1 {
		t.Errorf("action weight = %f, must stay clamped at 1", with.GenreWeights.Get("action"))
	}
}

func TestApplyFeedback_NegativeRemovesAtZero(t *testing.T) {
	c := newTestCalculator(storage.NewFixture(), nil)
	p := recommend.NewDefaultProfile(1, calcNow)
	p.GenreWeights["horror"] = 0.03

	c.ApplyFeedback(p, &recommend.MediaMetadata{Genres: []string{"Horror"}}, recommend.FeedbackNegative)
	if _, ok := p.GenreWeights["horror"]; ok {
		t.Error("weight nudged to zero must be removed")
	}

	c.ApplyFeedback(p, &recommend.MediaMetadata{Genres: []string{"Horror"}}, recommend.FeedbackNeutral)
	if len(p.GenreWeights) != 0 {
		t.Error("neutral feedback must not change weights")
	}
}

func TestRatingContribution(t *testing.T) {
	tests := []struct {
		name         string
		rating, mean float64
		want         float64
	}{
		{"top rating above mean", 5, 3, 0.8},
		{"bottom rating below mean", 1, 3, -0.8},
		{"at a neutral mean", 3, 3, 0},
		{"consistently high rater", 5, 5, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RatingContribution(tt.rating, tt.mean); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RatingContribution(%v, %v) = %f, want %f", tt.rating, tt.mean, got, tt.want)
			}
		})
	}
}

func TestConfidence_MonotonicInInteractions(t *testing.T) {
	c := newTestCalculator(storage.NewFixture(), nil)
	last := calcNow.Add(-time.Hour)

	prev := 0.0
	for n := 0; n <= 200; n++ {
		got := c.confidence(n, last, calcNow)
		if got < prev {
			t.Fatalf("confidence(%d) = %f < confidence(%d) = %f", n, got, n-1, prev)
		}
		if got < 0 || got > 1 {
			t.Fatalf("confidence(%d) = %f out of [0,1]", n, got)
		}
		prev = got
	}
	if c.confidence(0, last, calcNow) != 0 {
		t.Error("confidence(0) must be 0")
	}
	if c.confidence(50, last, calcNow) < 0.9 {
		t.Error("confidence at the high-confidence threshold must be high")
	}
}

func TestConfidence_StaleDiscountFloor(t *testing.T) {
	c := newTestCalculator(storage.NewFixture(), nil)
	fresh := c.confidence(40, calcNow, calcNow)
	ancient := c.confidence(40, calcNow.Add(-5*365*24*time.Hour), calcNow)

	if math.Abs(ancient-fresh*0.5) > 1e-9 {
		t.Errorf("stale confidence = %f, want floor %f", ancient, fresh*0.5)
	}
}

// TestCompute_WeightsInUnitInterval checks random histories with a fixed
// seed: every weight stays in [0,1].
func TestCompute_WeightsInUnitInterval(t *testing.T) {
	faker := gofakeit.New(7)
	c := newTestCalculator(storage.NewFixture(), nil)
	genres := []string{"action", "drama", "comedy", "horror", "sci-fi", "romance", "documentary"}
	statuses := []recommend.InteractionStatus{recommend.StatusPlanned, recommend.StatusInProgress, recommend.StatusCompleted, recommend.StatusDropped}

	for run := 0; run < 50; run++ {
		meta := map[int64]*recommend.MediaMetadata{}
		var history []recommend.Interaction
		n := faker.IntRange(1, 60)
		for i := 0; i < n; i++ {
			id := int64(faker.IntRange(1, 40))
			meta[id] = &recommend.MediaMetadata{
				ID:          id,
				Genres:      []string{faker.RandomString(genres), faker.RandomString(genres)},
				Platform:    faker.RandomString([]string{"netflix", "hulu", "kindle"}),
				ReleaseYear: faker.IntRange(1950, 2026),
			}
			in := recommend.Interaction{
				UserID:    1,
				MediaID:   id,
				Status:    statuses[faker.IntRange(0, len(statuses)-1)],
				Favorite:  faker.Bool(),
				Timestamp: calcNow.Add(-time.Duration(faker.IntRange(0, 800)) * 24 * time.Hour),
			}
			if faker.Bool() {
				in.Rating = rating(float64(faker.IntRange(1, 5)))
			}
			history = append(history, in)
		}

		p := c.Compute(1, history, meta, nil, calcNow)
		for _, dim := range []recommend.Dimension{recommend.DimensionGenre, recommend.DimensionPlatform, recommend.DimensionEra} {
			for label, w := range p.Weights(dim) {
				if w < 0 || w > 1 || math.IsNaN(w) {
					t.Fatalf("run %d: %s weight %s = %f out of [0,1]", run, dim, label, w)
				}
			}
		}
		if p.ConfidenceScore < 0 || p.ConfidenceScore > 1 {
			t.Fatalf("run %d: confidence %f out of [0,1]", run, p.ConfidenceScore)
		}
	}
}

func TestSummary(t *testing.T) {
	p := &recommend.PreferenceProfile{UserID: 3, TotalInteractions: 7, ConfidenceScore: 0.5, GenreWeights: recommend.CategoryWeights{"noir": 1}}
	want := "user=3 interactions=7 confidence=0.50 personality= top_genre=noir"
	if got := Summary(p); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
