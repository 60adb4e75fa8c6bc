// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package algorithms

import (
	"context"
	"fmt"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// Item similarity weights of the real-time source.
const (
	similarGenreWeight    = 0.6
	similarPlatformWeight = 0.2
	similarEraWeight      = 0.2
)

// SimilarContent powers "because you are viewing" suggestions. Items are
// compared with the current item:
//
//	sim = 0.6*jaccard(genres) + 0.2*samePlatform + 0.2*sameEra
//
// and blended with the viewer's profile match by the personalization
// balance when a profile is available.
type SimilarContent struct {
	baseSource
	matcher *Matcher
	catalog recommend.Catalog
	balance float64
}

// NewSimilarContent creates a real-time similar content source.
func NewSimilarContent(cfg *recommend.Config, catalog recommend.Catalog) *SimilarContent {
	return &SimilarContent{
		baseSource: newBaseSource("similar_content", recommend.ModeRealtime),
		matcher:    NewMatcher(cfg.Weights),
		catalog:    catalog,
		balance:    cfg.Balance.PersonalizationBalance,
	}
}

// Candidates implements recommend.CandidateSource.
func (s *SimilarContent) Candidates(ctx context.Context, req *recommend.SourceRequest) ([]recommend.Candidate, error) {
	if req.CurrentMediaID <= 0 {
		return nil, nil
	}

	meta, err := s.catalog.Metadata(ctx, []int64{req.CurrentMediaID})
	if err != nil {
		return nil, fmt.Errorf("current media: %w", err)
	}
	current, ok := meta[req.CurrentMediaID]
	if !ok {
		return nil, nil
	}

	q := recommend.DiscoverQuery{Genres: current.Genres, Limit: req.Limit}
	if current.Platform != "" {
		q.Platforms = []string{current.Platform}
	}
	if era := current.Era(); era != "" {
		q.Eras = []string{era}
	}
	items, err := s.catalog.Discover(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("discover similar: %w", err)
	}

	out := make([]recommend.Candidate, 0, len(items))
	for _, m := range items {
		if m.ID == current.ID {
			continue
		}
		score := Similarity(current, m)
		if req.Profile != nil && req.Profile.TotalInteractions > 0 {
			match, _ := s.matcher.Match(req.Profile, m)
			score = (1-s.balance)*score + s.balance*match
		}
		if score <= 0 {
			continue
		}
		out = append(out, recommend.Candidate{
			CandidateID:   m.ID,
			Kind:          recommend.KindContent,
			Score:         clamp01(score),
			Reason:        recommend.ReasonSimilarContent,
			Title:         m.Title,
			Genres:        m.Genres,
			SourceMediaID: recommend.Int64Ptr(current.ID),
			SourceName:    current.Title,
			SourceAt:      req.Now,
		})
	}
	return truncate(out, req.Limit), nil
}

// Similarity compares two media items in [0,1].
func Similarity(a, b *recommend.MediaMetadata) float64 {
	score := similarGenreWeight * jaccardSimilarity(a.Genres, b.Genres)
	if a.Platform != "" && recommend.NormalizeCategory(a.Platform) == recommend.NormalizeCategory(b.Platform) {
		score += similarPlatformWeight
	}
	if era := a.Era(); era != "" && era == b.Era() {
		score += similarEraWeight
	}
	return clamp01(score)
}
