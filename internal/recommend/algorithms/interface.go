// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package algorithms

import (
	"context"
	"math"
	"sort"

	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/recommend/compatibility"
)

// Deps holds the collaborators shared by the candidate sources.
type Deps struct {
	Interactions recommend.InteractionSource
	Catalog      recommend.Catalog
	Groups       recommend.GroupDirectory
	Profiles     recommend.ProfileStore
	Scorer       *compatibility.Scorer
}

// Defaults returns every candidate source wired to deps.
func Defaults(cfg *recommend.Config, deps Deps) []recommend.CandidateSource {
	return []recommend.CandidateSource{
		NewContentMatch(cfg, deps.Catalog),
		NewTrending(cfg, deps.Catalog),
		NewSimilarUsers(cfg, deps.Profiles, deps.Interactions, deps.Catalog, deps.Scorer),
		NewGroupActivity(cfg, deps.Groups, deps.Interactions, deps.Catalog),
		NewGroupMatch(cfg, deps.Groups, deps.Profiles, deps.Scorer),
		NewSimilarContent(cfg, deps.Catalog),
		NewExploration(cfg, deps.Catalog),
	}
}

// baseSource provides the name and mode set of a source.
type baseSource struct {
	name  string
	modes map[recommend.Mode]struct{}
}

func newBaseSource(name string, modes ...recommend.Mode) baseSource {
	set := make(map[recommend.Mode]struct{}, len(modes))
	for _, m := range modes {
		set[m] = struct{}{}
	}
	return baseSource{name: name, modes: set}
}

// Name returns the source identifier.
func (b *baseSource) Name() string {
	return b.name
}

// Supports reports whether the source runs in mode.
func (b *baseSource) Supports(mode recommend.Mode) bool {
	_, ok := b.modes[mode]
	return ok
}

// positiveSignal returns the strength of a positive interaction in [0,1].
// Ratings of 4 and above count, as do favorites without a rating.
func positiveSignal(in *recommend.Interaction) (float64, bool) {
	switch {
	case in.Rating != nil && *in.Rating >= 4:
		return (*in.Rating - 1) / 4, true
	case in.Rating == nil && in.Favorite:
		return 0.75, true
	default:
		return 0, false
	}
}

// anchor finds the user's best-rated history item that has label in
// dimension d. Ties prefer the most recent interaction. It returns nil when
// no history item shares the label.
func anchor(req *recommend.SourceRequest, d recommend.Dimension, label string) *recommend.Interaction {
	if label == "" {
		return nil
	}

	var best *recommend.Interaction
	bestRating := -1.0
	for i := range req.History {
		in := &req.History[i]
		m, ok := req.HistoryMeta[in.MediaID]
		if !ok || !hasLabel(m, d, label) {
			continue
		}
		r := 0.0
		if in.Rating != nil {
			r = *in.Rating
		}
		if r > bestRating || (r == bestRating && in.Timestamp.After(best.Timestamp)) {
			best, bestRating = in, r
		}
	}
	return best
}

func hasLabel(m *recommend.MediaMetadata, d recommend.Dimension, label string) bool {
	switch d {
	case recommend.DimensionGenre:
		for _, g := range m.Genres {
			if recommend.NormalizeCategory(g) == label {
				return true
			}
		}
		return false
	case recommend.DimensionPlatform:
		return recommend.NormalizeCategory(m.Platform) == label
	case recommend.DimensionEra:
		return m.Era() == label
	default:
		return false
	}
}

// jaccardSimilarity computes Jaccard similarity between two label sets.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[recommend.NormalizeCategory(s)] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[recommend.NormalizeCategory(s)] = struct{}{}
	}

	intersection := 0
	for s := range setA {
		if _, ok := setB[s]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// metadataFor fetches metadata for ids, skipping the call when ids is empty.
func metadataFor(ctx context.Context, catalog recommend.Catalog, ids []int64) (map[int64]*recommend.MediaMetadata, error) {
	if len(ids) == 0 {
		return map[int64]*recommend.MediaMetadata{}, nil
	}
	return catalog.Metadata(ctx, ids)
}

// sortedIDs returns the keys of m in ascending order.
func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// truncate orders candidates by score descending, then id, and keeps limit.
func truncate(out []recommend.Candidate, limit int) []recommend.Candidate {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CandidateID < out[j].CandidateID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Ensure all sources implement the interface.
var (
	_ recommend.CandidateSource = (*ContentMatch)(nil)
	_ recommend.CandidateSource = (*Trending)(nil)
	_ recommend.CandidateSource = (*SimilarUsers)(nil)
	_ recommend.CandidateSource = (*GroupActivity)(nil)
	_ recommend.CandidateSource = (*GroupMatch)(nil)
	_ recommend.CandidateSource = (*SimilarContent)(nil)
	_ recommend.CandidateSource = (*Exploration)(nil)
)
