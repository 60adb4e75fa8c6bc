// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package cache provides a generic, thread-safe LRU cache with TTL expiry.
//
// The upstream clients use it to keep catalog metadata and group membership
// lookups off the network during sweeps, where the same media items and
// groups are requested for many users in a row.
//
//	meta := cache.NewLRU[int64, *recommend.MediaMetadata]("catalog_metadata", 10000, time.Hour)
//	if m, ok := meta.Get(id); ok {
//	    return m
//	}
//
// Every Get records a hit or miss on tastegraph_cache_hits_total and
// tastegraph_cache_misses_total under the cache name.
package cache
