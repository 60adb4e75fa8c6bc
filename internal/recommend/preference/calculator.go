// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package preference

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// feedbackWindow bounds the feedback records replayed on recalculation.
const feedbackWindow = 90 * 24 * time.Hour

// Engagement contributions by interaction status and favorite flag.
const (
	engagementCompleted = 0.3
	engagementFavorite  = 0.5
	engagementDropped   = -0.3
	engagementPlanned   = 0.1
)

// Calculator derives preference profiles from interaction history.
// It is safe for concurrent use.
type Calculator struct {
	cfg          *recommend.Config
	interactions recommend.InteractionSource
	catalog      recommend.Catalog
	feedback     recommend.FeedbackStore
	logger       zerolog.Logger
	now          func() time.Time
}

// NewCalculator creates a calculator. feedback may be nil, in which case no
// feedback learning is applied.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCalculator(cfg *recommend.Config, interactions recommend.InteractionSource, catalog recommend.Catalog, feedback recommend.FeedbackStore, logger zerolog.Logger) *Calculator {
	return &Calculator{
		cfg:          cfg,
		interactions: interactions,
		catalog:      catalog,
		feedback:     feedback,
		logger:       logger.With().Str("component", "preference").Logger(),
		now:          time.Now,
	}
}

// SetClock replaces the wall clock. Intended for tests.
func (c *Calculator) SetClock(now func() time.Time) {
	c.now = now
}

// Calculate loads the user's history and derives a fresh profile. Empty
// history yields a zero-confidence default profile.
func (c *Calculator) Calculate(ctx context.Context, userID int64) (*recommend.PreferenceProfile, error) {
	now := c.now()

	hctx, cancel := context.WithTimeout(ctx, c.cfg.Limits.UpstreamTimeout)
	history, err := c.interactions.History(hctx, userID)
	cancel()
	if err != nil {
		return nil, recommend.Unavailable("load history", err)
	}
	if len(history) == 0 {
		return recommend.NewDefaultProfile(userID, now), nil
	}

	var feedback []*recommend.FeedbackRecord
	if c.feedback != nil {
		feedback, err = c.feedback.ListFeedback(ctx, userID, now.Add(-feedbackWindow))
		if err != nil {
			// Feedback learning is a refinement; the profile is still valid without it.
			c.logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to load feedback, skipping feedback learning")
			feedback = nil
		}
	}

	ids := mediaIDs(history, feedback)
	mctx, cancel := context.WithTimeout(ctx, c.cfg.Limits.UpstreamTimeout)
	meta, err := c.catalog.Metadata(mctx, ids)
	cancel()
	if err != nil {
		return nil, recommend.Unavailable("load metadata", err)
	}

	profile := c.Compute(userID, history, meta, feedback, now)

	c.logger.Debug().
		Int64("user_id", userID).
		Int("interactions", profile.TotalInteractions).
		Float64("confidence", profile.ConfidenceScore).
		Str("personality", string(profile.ViewingPersonality)).
		Msg("profile calculated")

	return profile, nil
}

// HasSufficientData reports whether profile is reliable enough to rank with.
func (c *Calculator) HasSufficientData(profile *recommend.PreferenceProfile) bool {
	return c.cfg.HasSufficientData(profile, c.now())
}

// Compute derives a profile from already loaded data. It performs no I/O.
func (c *Calculator) Compute(userID int64, history []recommend.Interaction, meta map[int64]*recommend.MediaMetadata, feedback []*recommend.FeedbackRecord, now time.Time) *recommend.PreferenceProfile {
	profile := recommend.NewDefaultProfile(userID, now)
	if len(history) == 0 {
		return profile
	}

	stats := summarize(history, meta, now)

	genres := map[string]float64{}
	platforms := map[string]float64{}
	eras := map[string]float64{}

	for i := range history {
		in := &history[i]
		m, ok := meta[in.MediaID]
		if !ok {
			continue
		}

		w := c.contribution(in, stats.meanRating) * c.timeWeight(in.Timestamp, now)
		if w == 0 {
			continue
		}

		for _, g := range m.Genres {
			if label := recommend.NormalizeCategory(g); label != "" {
				genres[label] += w
			}
		}
		if label := recommend.NormalizeCategory(m.Platform); label != "" {
			platforms[label] += w
		}
		if label := m.Era(); label != "" {
			eras[label] += w
		}
	}

	profile.GenreWeights = normalize(genres)
	profile.PlatformWeights = normalize(platforms)
	profile.EraWeights = normalize(eras)

	for _, fb := range feedback {
		if fb.Kind != recommend.KindContent {
			continue
		}
		if m, ok := meta[fb.CandidateID]; ok {
			c.ApplyFeedback(profile, m, fb.Classification)
		}
	}

	profile.TotalInteractions = len(history)
	profile.TotalCompleted = stats.completed
	profile.CompletionRate = stats.completionRate()
	profile.AverageRating = stats.meanRating
	profile.RatingVariance = stats.ratingVariance
	profile.LastInteractionAt = stats.lastInteraction

	if profile.TotalInteractions >= c.cfg.Thresholds.MinInteractionsForRecommendations {
		profile.ViewingPersonality = classify(stats)
	}
	profile.ConfidenceScore = c.confidence(profile.TotalInteractions, stats.lastInteraction, now)

	return profile
}

// ApplyFeedback nudges the categories of a media item by the learning rate in
// the direction of the classification. Weights stay in [0,1].
func (c *Calculator) ApplyFeedback(profile *recommend.PreferenceProfile, m *recommend.MediaMetadata, class recommend.Classification) {
	delta := c.cfg.Profile.LearningRate * class.Sign()
	if delta == 0 {
		return
	}

	for _, g := range m.Genres {
		nudge(profile.GenreWeights, recommend.NormalizeCategory(g), delta)
	}
	nudge(profile.PlatformWeights, recommend.NormalizeCategory(m.Platform), delta)
	nudge(profile.EraWeights, m.Era(), delta)
}

func nudge(w recommend.CategoryWeights, label string, delta float64) {
	if label == "" {
		return
	}
	v := clamp01(w[label] + delta)
	if v == 0 {
		delete(w, label)
		return
	}
	w[label] = v
}

// contribution is the signed per-interaction signal in [-1.5, 1.5] before
// time weighting.
func (c *Calculator) contribution(in *recommend.Interaction, mean float64) float64 {
	var v float64
	if in.Rating != nil {
		v += RatingContribution(*in.Rating, mean)
	}

	switch in.Status {
	case recommend.StatusCompleted:
		v += engagementCompleted
	case recommend.StatusDropped:
		v += engagementDropped
	case recommend.StatusPlanned:
		v += engagementPlanned
	}
	if in.Favorite {
		v += engagementFavorite
	}
	return v
}

// RatingContribution maps a rating in [1,5] relative to the user's mean to
// [-1,1]. Absolute level counts 60%, deviation from the mean 40%.
func RatingContribution(rating, mean float64) float64 {
	absolute := (rating - 1) / 4
	relative := 0.5 + (rating-mean)/8
	signal := 0.6*absolute + 0.4*relative
	return math.Max(-1, math.Min(1, (signal-0.5)*2))
}

// timeWeight combines exponential decay with the recency boost.
func (c *Calculator) timeWeight(ts, now time.Time) float64 {
	p := c.cfg.Profile
	age := now.Sub(ts)
	if age < 0 {
		age = 0
	}
	w := math.Pow(p.DecayBase, float64(age)/float64(p.DecayPeriod))
	if age < p.RecencyWindow {
		w *= 1 + p.RecencyBoost
	}
	return w
}

// confidence saturates with the interaction count and is discounted when the
// newest interaction is older than StaleAfter, down to half.
func (c *Calculator) confidence(n int, lastInteraction, now time.Time) float64 {
	if n == 0 {
		return 0
	}
	high := float64(c.cfg.Thresholds.MinInteractionsForHighConfidence)
	base := 1 - math.Exp(-3*float64(n)/high)

	stale := c.cfg.Profile.StaleAfter
	age := now.Sub(lastInteraction)
	recency := 1.0
	if age > stale {
		recency = math.Max(0.5, float64(stale)/float64(age))
	}
	return clamp01(base * recency)
}

// normalize clamps negative totals to zero and scales by the maximum.
func normalize(totals map[string]float64) recommend.CategoryWeights {
	out := make(recommend.CategoryWeights, len(totals))
	var maxVal float64
	for _, v := range totals {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal <= 0 {
		return out
	}
	for label, v := range totals {
		if v > 0 {
			out[label] = v / maxVal
		}
	}
	return out
}

func mediaIDs(history []recommend.Interaction, feedback []*recommend.FeedbackRecord) []int64 {
	seen := make(map[int64]struct{}, len(history)+len(feedback))
	ids := make([]int64, 0, len(history)+len(feedback))
	add := func(id int64) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for i := range history {
		add(history[i].MediaID)
	}
	for _, fb := range feedback {
		if fb.Kind == recommend.KindContent {
			add(fb.CandidateID)
		}
	}
	return ids
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Summary renders a one-line profile summary for logs and the CLI.
func Summary(p *recommend.PreferenceProfile) string {
	genre, _ := p.TopCategory(recommend.DimensionGenre)
	return fmt.Sprintf("user=%d interactions=%d confidence=%.2f personality=%s top_genre=%s",
		p.UserID, p.TotalInteractions, p.ConfidenceScore, p.ViewingPersonality, genre)
}
