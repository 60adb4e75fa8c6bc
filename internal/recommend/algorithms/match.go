// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package algorithms

import (
	"github.com/tomtom215/tastegraph/internal/recommend"
)

// Matcher scores how well a media item fits a preference profile.
//
// The score is the weighted mean of the item's genre, platform and era
// weights in the profile, using the configured dimension weights rescaled
// over those three dimensions. The genre component is the highest weight
// among the item's genres. A perfect fit scores 1.
type Matcher struct {
	weights recommend.ScoringWeights
}

// NewMatcher creates a matcher.
//
//nolint:gocritic // value parameter is intentional for immutable semantics
func NewMatcher(weights recommend.ScoringWeights) *Matcher {
	return &Matcher{weights: weights}
}

// Match returns the fit of m for p in [0,1] and the dimension that
// contributed most. A nil profile or item scores 0.
func (mt *Matcher) Match(p *recommend.PreferenceProfile, m *recommend.MediaMetadata) (float64, recommend.Dimension) {
	if p == nil || m == nil {
		return 0, recommend.DimensionGenre
	}

	genre := 0.0
	for _, g := range m.Genres {
		if w := p.GenreWeights.Get(g); w > genre {
			genre = w
		}
	}

	contributions := []struct {
		dim   recommend.Dimension
		value float64
	}{
		{recommend.DimensionGenre, mt.weights.Genre * genre},
		{recommend.DimensionPlatform, mt.weights.Platform * p.PlatformWeights.Get(m.Platform)},
		{recommend.DimensionEra, mt.weights.Era * p.EraWeights.Get(m.Era())},
	}

	denom := mt.weights.Genre + mt.weights.Platform + mt.weights.Era
	if denom <= 0 {
		return 0, recommend.DimensionGenre
	}

	var total float64
	dominant := contributions[0]
	for _, c := range contributions {
		total += c.value
		if c.value > dominant.value {
			dominant = c
		}
	}
	return clamp01(total / denom), dominant.dim
}

// reasonFor maps a dimension to its match reason code.
func reasonFor(d recommend.Dimension) recommend.ReasonCode {
	switch d {
	case recommend.DimensionPlatform:
		return recommend.ReasonPlatformMatch
	case recommend.DimensionEra:
		return recommend.ReasonEraMatch
	default:
		return recommend.ReasonGenreMatch
	}
}

// strongestLabel returns the label of m in dimension d with the highest
// weight in p.
func strongestLabel(p *recommend.PreferenceProfile, m *recommend.MediaMetadata, d recommend.Dimension) string {
	switch d {
	case recommend.DimensionPlatform:
		return recommend.NormalizeCategory(m.Platform)
	case recommend.DimensionEra:
		return m.Era()
	}

	best, bestWeight := "", -1.0
	for _, g := range m.Genres {
		label := recommend.NormalizeCategory(g)
		if w := p.GenreWeights.Get(label); w > bestWeight || (w == bestWeight && label < best) {
			best, bestWeight = label, w
		}
	}
	return best
}
