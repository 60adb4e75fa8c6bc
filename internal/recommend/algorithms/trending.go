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

// Trending ranks population-wide trending items, blended with the user's
// profile:
//
//	score = (1-b)*popularity + b*match
//
// where b is the personalization balance. Without a profile the score is the
// popularity alone.
type Trending struct {
	baseSource
	matcher *Matcher
	catalog recommend.Catalog
	balance float64
}

// NewTrending creates a trending source.
func NewTrending(cfg *recommend.Config, catalog recommend.Catalog) *Trending {
	return &Trending{
		baseSource: newBaseSource("trending", recommend.ModeTrending, recommend.ModePersonal),
		matcher:    NewMatcher(cfg.Weights),
		catalog:    catalog,
		balance:    cfg.Balance.PersonalizationBalance,
	}
}

// Candidates implements recommend.CandidateSource.
func (t *Trending) Candidates(ctx context.Context, req *recommend.SourceRequest) ([]recommend.Candidate, error) {
	items, err := t.catalog.Trending(ctx, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.MediaID)
	}
	meta, err := metadataFor(ctx, t.catalog, ids)
	if err != nil {
		return nil, fmt.Errorf("trending metadata: %w", err)
	}

	profile := req.Profile
	out := make([]recommend.Candidate, 0, len(items))
	for _, it := range items {
		m := meta[it.MediaID]
		cand := recommend.Candidate{
			CandidateID: it.MediaID,
			Kind:        recommend.KindContent,
			Score:       clamp01(it.Score),
			Reason:      recommend.ReasonTrending,
			SourceAt:    req.Now,
		}
		if m != nil {
			cand.Title = m.Title
			cand.Genres = m.Genres
		}

		if profile != nil && m != nil {
			match, _ := t.matcher.Match(profile, m)
			cand.Score = (1-t.balance)*clamp01(it.Score) + t.balance*match
			if label := strongestLabel(profile, m, recommend.DimensionGenre); profile.GenreWeights.Get(label) > 0 {
				cand.SourceName = label
			}
		}
		out = append(out, cand)
	}

	return truncate(out, req.Limit), nil
}
