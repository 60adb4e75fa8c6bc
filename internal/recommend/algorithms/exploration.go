// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package algorithms

import (
	"context"
	"fmt"
	"math"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// Exploration suggests popular titles outside the genres the user already
// knows, on the platforms and eras they use.
//
// The exploration factor sets the share of a generation batch reserved for
// these titles: the source emits at most ceil(factor * generationLimit)
// candidates, so a factor of 0 disables it. A candidate scores
//
//	0.5*popularityRank + 0.5*contextMatch
//
// where contextMatch is the platform and era fit of the profile.
type Exploration struct {
	baseSource
	catalog recommend.Catalog
	weights recommend.ScoringWeights
	slots   int
}

// NewExploration creates an exploration source.
func NewExploration(cfg *recommend.Config, catalog recommend.Catalog) *Exploration {
	return &Exploration{
		baseSource: newBaseSource("exploration", recommend.ModePersonal),
		catalog:    catalog,
		weights:    cfg.Weights,
		slots:      int(math.Ceil(cfg.Balance.ExplorationFactor * float64(cfg.Limits.GenerationLimit))),
	}
}

// Candidates implements recommend.CandidateSource.
func (e *Exploration) Candidates(ctx context.Context, req *recommend.SourceRequest) ([]recommend.Candidate, error) {
	p := req.Profile
	if p == nil || e.slots <= 0 || len(p.GenreWeights) == 0 {
		return nil, nil
	}

	known := make([]string, 0, len(p.GenreWeights))
	for g := range p.GenreWeights {
		known = append(known, g)
	}

	items, err := e.catalog.Discover(ctx, recommend.DiscoverQuery{
		Platforms:     p.PlatformWeights.TopN(discoverPlatforms),
		Eras:          p.EraWeights.TopN(discoverEras),
		ExcludeGenres: known,
		Limit:         req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("discover unexplored: %w", err)
	}

	out := make([]recommend.Candidate, 0, e.slots)
	n := float64(len(items))
	for i, m := range items {
		if len(out) == e.slots {
			break
		}
		if _, seen := req.Seen[m.ID]; seen {
			continue
		}

		rank := 1 - float64(i)/n
		out = append(out, recommend.Candidate{
			CandidateID: m.ID,
			Kind:        recommend.KindContent,
			Score:       clamp01(0.5*rank + 0.5*e.contextMatch(p, m)),
			Reason:      recommend.ReasonExploration,
			Title:       m.Title,
			Genres:      m.Genres,
			SourceName:  firstGenre(m),
			SourceAt:    req.Now,
		})
	}
	return out, nil
}

func (e *Exploration) contextMatch(p *recommend.PreferenceProfile, m *recommend.MediaMetadata) float64 {
	denom := e.weights.Platform + e.weights.Era
	if denom <= 0 {
		return 0
	}
	return (e.weights.Platform*p.PlatformWeights.Get(m.Platform) + e.weights.Era*p.EraWeights.Get(m.Era())) / denom
}

func firstGenre(m *recommend.MediaMetadata) string {
	if len(m.Genres) == 0 {
		return ""
	}
	return recommend.NormalizeCategory(m.Genres[0])
}
