// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

/*
Package upstream provides the collaborator clients the engine reads from:
the interaction history service, the media catalog and the group directory.

Two modes are supported:

  - fixture: every collaborator is served from a JSON fixture file loaded
    through storage.LoadFixture. Used for standalone deployments and demos.
  - http: one REST client per collaborator.

# HTTP Clients

Every request goes through the same pipeline:

	rate.Limiter.Wait -> gobreaker.CircuitBreaker.Execute -> http.Client.Do -> go-json decode

Responses use the envelope {"data": ...}. Server errors, transport errors and
HTTP 429 count as breaker failures; other 4xx responses do not. Every
failure is returned wrapped in recommend.ErrUnavailable so that batch
callers skip the affected user.

The catalog client caches metadata in a cache.LRU and batches id lookups.

# Wire Format

	GET /users/{id}/interactions               -> []recommend.Interaction
	GET /users?after=&limit=                   -> []int64
	GET /users/active?since=&after=&limit=     -> []int64
	GET /media?ids=1,2,3                       -> []recommend.MediaMetadata
	GET /media/discover?genres=&platforms=...  -> []recommend.MediaMetadata
	GET /media/trending?limit=                 -> []recommend.TrendingItem
	GET /groups/{id}/members                   -> []recommend.GroupMember
	GET /users/{id}/groups                     -> []recommend.Group
	GET /groups/discover?limit=                -> []recommend.Group
*/
package upstream
