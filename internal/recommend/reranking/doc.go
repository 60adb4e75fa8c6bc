// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package reranking implements post-processing of ranked candidate lists.
//
// Rerankers run after the engine has merged, filtered and ordered the
// candidates of a generation run:
//
//	Sources -> Merge -> Filter/Order -> Rerankers -> Truncate
//
// # MMR
//
// Maximal Marginal Relevance iteratively selects candidates that are both
// relevant and dissimilar to the candidates already selected:
//
//	MMR = argmax[lambda * score(i) - (1-lambda) * max_similarity(i, selected)]
//
// lambda is 1 - diversityFactor. Similarity is the Jaccard similarity of the
// candidates' genre sets, so group suggestions (no genres) keep their score
// order. The same pass enforces maxSameTypeRecommendations: once a reason
// code fills its slots, further candidates with that reason are skipped.
//
// # Performance
//
// The maximum similarity of each candidate to the selected set is updated
// incrementally, so a pass costs O(k * n) similarity evaluations for n
// candidates and k selections.
//
// # Thread Safety
//
// Rerankers are stateless and safe for concurrent use.
package reranking
