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

// Discovery breadth per dimension.
const (
	discoverGenres    = 3
	discoverPlatforms = 2
	discoverEras      = 2
)

// ContentMatch recommends catalog items matching the target profile's
// strongest genres, platforms and eras. It recommends items similar to those
// a user has previously enjoyed: "Because you enjoyed Heat".
//
// The reason code is the dimension that contributed most to the match. The
// source media is the user's best-rated title sharing the candidate's
// strongest label in that dimension.
type ContentMatch struct {
	baseSource
	matcher *Matcher
	catalog recommend.Catalog
}

// NewContentMatch creates a content match source.
func NewContentMatch(cfg *recommend.Config, catalog recommend.Catalog) *ContentMatch {
	return &ContentMatch{
		baseSource: newBaseSource("content", recommend.ModePersonal, recommend.ModeGroupContent),
		matcher:    NewMatcher(cfg.Weights),
		catalog:    catalog,
	}
}

// Candidates implements recommend.CandidateSource.
func (c *ContentMatch) Candidates(ctx context.Context, req *recommend.SourceRequest) ([]recommend.Candidate, error) {
	target := req.TargetProfile()
	if target == nil {
		return nil, nil
	}

	q := recommend.DiscoverQuery{
		Genres:    target.GenreWeights.TopN(discoverGenres),
		Platforms: target.PlatformWeights.TopN(discoverPlatforms),
		Eras:      target.EraWeights.TopN(discoverEras),
		Limit:     req.Limit,
	}
	if len(q.Genres)+len(q.Platforms)+len(q.Eras) == 0 {
		return nil, nil
	}

	items, err := c.catalog.Discover(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	out := make([]recommend.Candidate, 0, len(items))
	for _, m := range items {
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}

		score, dim := c.matcher.Match(target, m)
		if score <= 0 {
			continue
		}

		cand := recommend.Candidate{
			CandidateID: m.ID,
			Kind:        recommend.KindContent,
			Score:       score,
			Reason:      reasonFor(dim),
			Title:       m.Title,
			Genres:      m.Genres,
		}
		if a := anchor(req, dim, strongestLabel(target, m, dim)); a != nil {
			cand.SourceMediaID = recommend.Int64Ptr(a.MediaID)
			cand.SourceAt = a.Timestamp
			if meta, ok := req.HistoryMeta[a.MediaID]; ok {
				cand.SourceName = meta.Title
			}
		}
		out = append(out, cand)
	}

	return truncate(out, req.Limit), nil
}
