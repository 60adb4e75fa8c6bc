// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package compatibility scores the similarity of preference profiles.
//
// The score of two profiles is a weighted sum over four dimensions:
//
//	genre, platform, era   cosine similarity of the category weight maps
//	rating                 1 - 0.75*|meanA-meanB|/4 - 0.25*|sdA-sdB|/2
//
// A dimension with data on only one side scores 0. A dimension with data on
// neither side carries no information and is left out, with the remaining
// weights rescaled to sum to 1. The score is symmetric and lies in [0,1].
package compatibility

import (
	"math"
	"sort"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// Breakdown is the per-dimension result of a compatibility computation.
type Breakdown struct {
	Genre    float64 `json:"genre"`
	Platform float64 `json:"platform"`
	Era      float64 `json:"era"`
	Rating   float64 `json:"rating"`
	Overall  float64 `json:"overall"`
}

// Scorer computes compatibility scores with fixed dimension weights.
// It is stateless and safe for concurrent use.
type Scorer struct {
	weights recommend.ScoringWeights
}

var _ recommend.ProfileAggregator = (*Scorer)(nil)

// NewScorer creates a scorer. The weights are expected to have been
// validated as part of recommend.Config.
//
//nolint:gocritic // value parameter is intentional for immutable semantics
func NewScorer(weights recommend.ScoringWeights) *Scorer {
	return &Scorer{weights: weights}
}

// Compatibility returns the similarity of a and b in [0,1]. Nil profiles
// score 0.
func (s *Scorer) Compatibility(a, b *recommend.PreferenceProfile) float64 {
	return s.Breakdown(a, b).Overall
}

// Breakdown returns the per-dimension scores and the weighted total.
func (s *Scorer) Breakdown(a, b *recommend.PreferenceProfile) Breakdown {
	var out Breakdown
	if a == nil || b == nil {
		return out
	}

	var total, weightSum float64
	add := func(d recommend.Dimension, score float64, informative bool) {
		if !informative {
			return
		}
		w := s.weights.Of(d)
		total += w * score
		weightSum += w
	}

	var ok bool
	out.Genre, ok = cosine(a.GenreWeights, b.GenreWeights)
	add(recommend.DimensionGenre, out.Genre, ok)
	out.Platform, ok = cosine(a.PlatformWeights, b.PlatformWeights)
	add(recommend.DimensionPlatform, out.Platform, ok)
	out.Era, ok = cosine(a.EraWeights, b.EraWeights)
	add(recommend.DimensionEra, out.Era, ok)
	out.Rating, ok = ratingAlignment(a, b)
	add(recommend.DimensionRating, out.Rating, ok)

	if weightSum > 0 {
		out.Overall = clamp01(total / weightSum)
	}
	return out
}

// Aggregate combines member profiles into one group profile: a
// confidence-weighted mean of the category maps and rating statistics. Zero
// total confidence yields an empty zero-confidence profile.
func (s *Scorer) Aggregate(members []*recommend.PreferenceProfile) *recommend.PreferenceProfile {
	agg := &recommend.PreferenceProfile{
		GenreWeights:    recommend.CategoryWeights{},
		PlatformWeights: recommend.CategoryWeights{},
		EraWeights:      recommend.CategoryWeights{},
	}

	var totalConf float64
	counted := 0
	for _, m := range members {
		if m == nil || m.ConfidenceScore <= 0 {
			continue
		}
		totalConf += m.ConfidenceScore
		counted++
	}
	if totalConf == 0 {
		return agg
	}

	for _, m := range members {
		if m == nil || m.ConfidenceScore <= 0 {
			continue
		}
		share := m.ConfidenceScore / totalConf
		accumulate(agg.GenreWeights, m.GenreWeights, share)
		accumulate(agg.PlatformWeights, m.PlatformWeights, share)
		accumulate(agg.EraWeights, m.EraWeights, share)
		agg.AverageRating += share * m.AverageRating
		agg.RatingVariance += share * m.RatingVariance
		agg.TotalInteractions += m.TotalInteractions
		agg.TotalCompleted += m.TotalCompleted
		if m.LastInteractionAt.After(agg.LastInteractionAt) {
			agg.LastInteractionAt = m.LastInteractionAt
		}
	}

	if agg.TotalInteractions > 0 {
		agg.CompletionRate = float64(agg.TotalCompleted) / float64(agg.TotalInteractions)
	}
	agg.ConfidenceScore = totalConf / float64(counted)
	return agg
}

// GroupCompatibility scores a user against the aggregate of group members.
func (s *Scorer) GroupCompatibility(user *recommend.PreferenceProfile, members []*recommend.PreferenceProfile) float64 {
	if user == nil || len(members) == 0 {
		return 0
	}
	return s.Compatibility(user, s.Aggregate(members))
}

func accumulate(dst, src recommend.CategoryWeights, share float64) {
	for label, w := range src {
		dst[label] += share * w
	}
}

// cosine returns the cosine similarity of two weight maps. The second result
// is false when both maps are empty. Sums run over the sorted label union so
// the result is bit-identical for (a, b) and (b, a).
func cosine(a, b recommend.CategoryWeights) (float64, bool) {
	if len(a) == 0 && len(b) == 0 {
		return 0, false
	}

	var dot, sa, sb float64
	for _, label := range unionLabels(a, b) {
		wa, wb := a[label], b[label]
		dot += wa * wb
		sa += wa * wa
		sb += wb * wb
	}

	na, nb := math.Sqrt(sa), math.Sqrt(sb)
	if na == 0 || nb == 0 {
		return 0, true
	}
	return clamp01(dot / (na * nb)), true
}

func unionLabels(a, b recommend.CategoryWeights) []string {
	labels := make([]string, 0, len(a)+len(b))
	for label := range a {
		labels = append(labels, label)
	}
	for label := range b {
		if _, ok := a[label]; !ok {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return labels
}

// ratingAlignment compares rating behavior. Profiles without ratings carry
// no rating information.
func ratingAlignment(a, b *recommend.PreferenceProfile) (float64, bool) {
	ha, hb := a.AverageRating > 0, b.AverageRating > 0
	if !ha && !hb {
		return 0, false
	}
	if !ha || !hb {
		return 0, true
	}

	meanDiff := math.Abs(a.AverageRating - b.AverageRating)
	sdDiff := math.Abs(math.Sqrt(a.RatingVariance) - math.Sqrt(b.RatingVariance))
	return clamp01(1 - 0.75*meanDiff/4 - 0.25*sdDiff/2), true
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
