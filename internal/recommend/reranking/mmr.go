// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package reranking implements post-processing algorithms for recommendation diversity.
package reranking

import (
	"context"
	"math"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// maxRerankSize limits slice allocations. k is also bounded by len(items).
const maxRerankSize = 10000

// MMR implements Maximal Marginal Relevance reranking with a per reason code
// cap. It iteratively selects candidates that are both relevant and
// dissimilar to the candidates already selected.
//
// The MMR formula is:
//
//	MMR = argmax[lambda * score(i) - (1-lambda) * max(sim(i, s)) for s in selected]
//
// Where:
//   - lambda: balance parameter (1.0 = pure relevance, 0.0 = pure diversity)
//   - score(i): relevance score of candidate i
//   - sim(i, s): genre Jaccard similarity of candidates i and s
//
// A candidate whose reason code already fills maxPerReason selected slots
// is skipped. Equal MMR values keep the input order, so the engine's
// tie-break ordering survives.
//
// Reference:
// Carbonell, J., & Goldstein, J. (1998). "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries." SIGIR 1998.
type MMR struct {
	// Lambda balances relevance vs. diversity (0.0 to 1.0)
	lambda float64

	// maxPerReason caps selections per reason code; 0 disables the cap
	maxPerReason int
}

// NewMMR creates a new MMR reranker.
func NewMMR(lambda float64, maxPerReason int) *MMR {
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	if maxPerReason < 0 {
		maxPerReason = 0
	}
	return &MMR{lambda: lambda, maxPerReason: maxPerReason}
}

// FromConfig returns the rerankers for cfg: MMR with lambda = 1 - diversity
// factor, capped at maxSameTypeRecommendations per reason code.
func FromConfig(cfg *recommend.Config) []recommend.Reranker {
	return []recommend.Reranker{
		NewMMR(1-cfg.Balance.DiversityFactor, cfg.Limits.MaxSameTypeRecommendations),
	}
}

// Name returns the reranker identifier.
func (m *MMR) Name() string {
	return "mmr"
}

// Rerank applies MMR reranking to diversify the candidate list.
func (m *MMR) Rerank(ctx context.Context, items []recommend.Candidate, k int) []recommend.Candidate {
	if len(items) == 0 || k <= 0 {
		return items
	}

	if k > maxRerankSize {
		k = maxRerankSize
	}
	if k > len(items) {
		k = len(items)
	}

	perReason := make(map[recommend.ReasonCode]int)
	capped := func(c *recommend.Candidate) bool {
		return m.maxPerReason > 0 && perReason[c.Reason] >= m.maxPerReason
	}

	// Pure relevance only needs the cap.
	if m.lambda >= 1.0 {
		selected := make([]recommend.Candidate, 0, k)
		for i := range items {
			if len(selected) == k {
				break
			}
			if capped(&items[i]) {
				continue
			}
			perReason[items[i].Reason]++
			selected = append(selected, items[i])
		}
		return selected
	}

	genreSets := make([]map[string]struct{}, len(items))
	for i := range items {
		genreSets[i] = genreSet(items[i].Genres)
	}

	// maxSim[i] is the highest similarity of i to any selected candidate,
	// updated incrementally after each selection.
	maxSim := make([]float64, len(items))
	taken := make([]bool, len(items))
	selected := make([]recommend.Candidate, 0, k)

	for len(selected) < k {
		if ctx.Err() != nil {
			break
		}

		bestIdx := -1
		bestMMR := math.Inf(-1)
		for i := range items {
			if taken[i] || capped(&items[i]) {
				continue
			}
			score := m.lambda*items[i].Score - (1-m.lambda)*maxSim[i]
			if score > bestMMR {
				bestMMR = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}

		taken[bestIdx] = true
		perReason[items[bestIdx].Reason]++
		selected = append(selected, items[bestIdx])

		for i := range items {
			if taken[i] {
				continue
			}
			if sim := jaccard(genreSets[i], genreSets[bestIdx]); sim > maxSim[i] {
				maxSim[i] = sim
			}
		}
	}

	return selected
}

func genreSet(genres []string) map[string]struct{} {
	set := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		set[recommend.NormalizeCategory(g)] = struct{}{}
	}
	return set
}

// jaccard computes the Jaccard similarity of two genre sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for g := range a {
		if _, ok := b[g]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// computeGenreSimilarity computes Jaccard similarity between genre lists.
func computeGenreSimilarity(a, b []string) float64 {
	return jaccard(genreSet(a), genreSet(b))
}

// Ensure MMR implements the interface.
var _ recommend.Reranker = (*MMR)(nil)
