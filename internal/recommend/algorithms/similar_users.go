// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package algorithms

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/recommend/compatibility"
)

// Neighbourhood bounds for the similar users source.
const (
	maxNeighbors       = 10
	neighborFetchLimit = 4
)

// SimilarUsers recommends titles that compatible users rated highly.
//
// Neighbours are users whose strongest genre is the user's strongest genre,
// kept when their compatibility reaches the configured minimum. A
// neighbour's positive interaction scores compatibility * rating strength;
// the best neighbour wins per title.
type SimilarUsers struct {
	baseSource
	profiles     recommend.ProfileStore
	interactions recommend.InteractionSource
	catalog      recommend.Catalog
	scorer       *compatibility.Scorer
	poolSize     int
	minCompat    float64
}

// NewSimilarUsers creates a similar users source.
func NewSimilarUsers(cfg *recommend.Config, profiles recommend.ProfileStore, interactions recommend.InteractionSource, catalog recommend.Catalog, scorer *compatibility.Scorer) *SimilarUsers {
	return &SimilarUsers{
		baseSource:   newBaseSource("similar_users", recommend.ModePersonal),
		profiles:     profiles,
		interactions: interactions,
		catalog:      catalog,
		scorer:       scorer,
		poolSize:     cfg.Limits.NeighborPoolSize,
		minCompat:    cfg.Thresholds.MinCompatibility,
	}
}

type neighbor struct {
	userID int64
	compat float64
}

// Candidates implements recommend.CandidateSource.
func (s *SimilarUsers) Candidates(ctx context.Context, req *recommend.SourceRequest) ([]recommend.Candidate, error) {
	if req.Profile == nil {
		return nil, nil
	}
	topGenre, _ := req.Profile.TopCategory(recommend.DimensionGenre)
	if topGenre == "" {
		return nil, nil
	}

	neighbors, err := s.neighbors(ctx, req, topGenre)
	if err != nil || len(neighbors) == 0 {
		return nil, err
	}

	var (
		mu   sync.Mutex
		best = make(map[int64]recommend.Candidate)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(neighborFetchLimit)
	for _, n := range neighbors {
		g.Go(func() error {
			history, err := s.interactions.History(gctx, n.userID)
			if err != nil {
				return fmt.Errorf("neighbor %d history: %w", n.userID, err)
			}

			mu.Lock()
			defer mu.Unlock()
			for i := range history {
				in := &history[i]
				signal, ok := positiveSignal(in)
				if !ok {
					continue
				}
				score := n.compat * signal
				if prev, seen := best[in.MediaID]; seen && prev.Score >= score {
					continue
				}
				best[in.MediaID] = recommend.Candidate{
					CandidateID:  in.MediaID,
					Kind:         recommend.KindContent,
					Score:        score,
					Reason:       recommend.ReasonSimilarUsers,
					SourceUserID: recommend.Int64Ptr(n.userID),
					SourceAt:     in.Timestamp,
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	meta, err := metadataFor(ctx, s.catalog, sortedIDs(best))
	if err != nil {
		return nil, fmt.Errorf("similar users metadata: %w", err)
	}

	sourceName := ""
	if a := anchor(req, recommend.DimensionGenre, topGenre); a != nil {
		if m, ok := req.HistoryMeta[a.MediaID]; ok {
			sourceName = m.Title
		}
	}

	out := make([]recommend.Candidate, 0, len(best))
	for _, id := range sortedIDs(best) {
		cand := best[id]
		if m, ok := meta[id]; ok {
			cand.Title = m.Title
			cand.Genres = m.Genres
		}
		cand.SourceName = sourceName
		out = append(out, cand)
	}
	return truncate(out, req.Limit), nil
}

// neighbors returns the most compatible users sharing topGenre.
func (s *SimilarUsers) neighbors(ctx context.Context, req *recommend.SourceRequest, topGenre string) ([]neighbor, error) {
	pool, err := s.profiles.ProfilesByTopGenre(ctx, topGenre, req.UserID, s.poolSize)
	if err != nil {
		return nil, fmt.Errorf("neighbor profiles: %w", err)
	}

	out := make([]neighbor, 0, len(pool))
	for _, p := range pool {
		if p.UserID == req.UserID {
			continue
		}
		if c := s.scorer.Compatibility(req.Profile, p); c >= s.minCompat {
			out = append(out, neighbor{userID: p.UserID, compat: c})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].compat != out[j].compat {
			return out[i].compat > out[j].compat
		}
		return out[i].userID < out[j].userID
	})
	if len(out) > maxNeighbors {
		out = out[:maxNeighbors]
	}
	return out, nil
}
