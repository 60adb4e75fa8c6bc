// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package algorithms implements the candidate sources of the recommendation
// engine.
//
// Each source implements recommend.CandidateSource and is registered with the
// engine. Sources run in parallel, each bounded by the source timeout; a
// failing source is logged and skipped by the engine.
//
// # Sources
//
//	Source           Modes                     Reason codes
//	content          personal, group content   GENRE_MATCH, PLATFORM_MATCH, ERA_MATCH
//	trending         trending, personal        TRENDING
//	similar_users    personal                  SIMILAR_USERS
//	group_activity   personal, group content   GROUP_ACTIVITY
//	group_match      group discovery           GROUP_COMPATIBILITY
//	similar_content  realtime                  SIMILAR_CONTENT
//	exploration      personal                  EXPLORATION
//
// # Scoring
//
// Every source emits scores in [0,1]. Content fit is computed by Matcher: the
// weighted mean of the item's genre, platform and era weights in the
// profile, with the configured dimension weights rescaled over those three
// dimensions. The rating dimension only takes part in profile-to-profile
// compatibility, since catalog items carry no rating of their own.
//
// # Usage
//
//	for _, src := range algorithms.Defaults(cfg, algorithms.Deps{
//	    Interactions: history,
//	    Catalog:      catalog,
//	    Groups:       groups,
//	    Profiles:     store,
//	    Scorer:       compatibility.NewScorer(cfg.Weights),
//	}) {
//	    engine.RegisterSource(src)
//	}
//
// # Thread Safety
//
// Sources hold no mutable state and are safe for concurrent use. Fan-out to
// collaborators is bounded with errgroup limits.
package algorithms
