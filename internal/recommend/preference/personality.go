// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package preference

import (
	"math"
	"time"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// Decision thresholds of the personality policy.
const (
	frequencyWindow = 30 * 24 * time.Hour

	bingeCompletionRate  = 0.8
	bingeWeeklyFrequency = 3.0
	criticRatedShare     = 0.8
	criticRatingVariance = 1.0
	explorerGenreEntropy = 2.5
	completionistRate    = 0.9
	enthusiastFavorites  = 0.3
	enthusiastMeanRating = 4.5
	enthusiastRatedShare = 0.5
)

// behavior holds the ratios the personality policy decides on.
type behavior struct {
	total           int
	completed       int
	rated           int
	favorites       int
	recent          int
	meanRating      float64
	ratingVariance  float64
	genreEntropy    float64
	lastInteraction time.Time
}

func (b *behavior) completionRate() float64 {
	if b.total == 0 {
		return 0
	}
	return float64(b.completed) / float64(b.total)
}

func (b *behavior) share(n int) float64 {
	if b.total == 0 {
		return 0
	}
	return float64(n) / float64(b.total)
}

// weeklyFrequency is the interaction rate over the last 30 days.
func (b *behavior) weeklyFrequency() float64 {
	weeks := float64(frequencyWindow) / float64(7*24*time.Hour)
	return float64(b.recent) / weeks
}

func summarize(history []recommend.Interaction, meta map[int64]*recommend.MediaMetadata, now time.Time) *behavior {
	b := &behavior{total: len(history)}
	var sum, sumSq float64
	genreCounts := map[string]int{}
	genreTotal := 0

	for i := range history {
		in := &history[i]
		if in.Status == recommend.StatusCompleted {
			b.completed++
		}
		if in.Favorite {
			b.favorites++
		}
		if in.Rating != nil {
			b.rated++
			sum += *in.Rating
			sumSq += *in.Rating * *in.Rating
		}
		if now.Sub(in.Timestamp) <= frequencyWindow {
			b.recent++
		}
		if in.Timestamp.After(b.lastInteraction) {
			b.lastInteraction = in.Timestamp
		}
		if m, ok := meta[in.MediaID]; ok {
			for _, g := range m.Genres {
				genreCounts[recommend.NormalizeCategory(g)]++
				genreTotal++
			}
		}
	}

	if b.rated > 0 {
		n := float64(b.rated)
		b.meanRating = sum / n
		b.ratingVariance = math.Max(0, sumSq/n-b.meanRating*b.meanRating)
	}

	for _, count := range genreCounts {
		p := float64(count) / float64(genreTotal)
		b.genreEntropy -= p * math.Log2(p)
	}
	return b
}

// classify applies the personality decision list. The first matching rule wins.
func classify(b *behavior) recommend.Personality {
	switch {
	case b.completionRate() > bingeCompletionRate && b.weeklyFrequency() >= bingeWeeklyFrequency:
		return recommend.PersonalityBingeWatcher
	case b.share(b.rated) >= criticRatedShare && b.ratingVariance >= criticRatingVariance:
		return recommend.PersonalityCritic
	case b.genreEntropy >= explorerGenreEntropy:
		return recommend.PersonalityExplorer
	case b.completionRate() >= completionistRate:
		return recommend.PersonalityCompletionist
	case b.share(b.favorites) >= enthusiastFavorites,
		b.meanRating >= enthusiastMeanRating && b.share(b.rated) >= enthusiastRatedShare:
		return recommend.PersonalityEnthusiast
	default:
		return recommend.PersonalityCasual
	}
}
