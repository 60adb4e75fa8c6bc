// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package upstream

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tastegraph/internal/cache"
	"github.com/tomtom215/tastegraph/internal/recommend"
)

// CatalogClient reads media metadata and population signals from the
// catalog service. Metadata is cached; discovery and trending are not.
type CatalogClient struct {
	rest      *restClient
	cache     *cache.LRU[int64, *recommend.MediaMetadata]
	batchSize int
}

var _ recommend.Catalog = (*CatalogClient)(nil)

// NewCatalogClient creates a client for cfg.CatalogURL.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCatalogClient(cfg *Config, logger zerolog.Logger) *CatalogClient {
	return &CatalogClient{
		rest:      newRESTClient("catalog", cfg.CatalogURL, cfg, logger),
		cache:     cache.NewLRU[int64, *recommend.MediaMetadata]("catalog_metadata", cfg.MetadataCacheSize, cfg.MetadataCacheTTL),
		batchSize: cfg.MetadataBatchSize,
	}
}

// Metadata returns metadata keyed by media id. Cached entries are served
// locally and the rest is fetched in batches. Unknown ids are omitted.
func (c *CatalogClient) Metadata(ctx context.Context, ids []int64) (map[int64]*recommend.MediaMetadata, error) {
	out := make(map[int64]*recommend.MediaMetadata, len(ids))
	missing := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if m, ok := c.cache.Get(id); ok {
			out[id] = m
			continue
		}
		missing = append(missing, id)
	}

	for start := 0; start < len(missing); start += c.batchSize {
		end := min(start+c.batchSize, len(missing))
		batch, err := c.fetchMetadata(ctx, missing[start:end])
		if err != nil {
			return nil, err
		}
		for _, m := range batch {
			if m == nil {
				continue
			}
			c.cache.Add(m.ID, m)
			out[m.ID] = m
		}
	}
	return out, nil
}

func (c *CatalogClient) fetchMetadata(ctx context.Context, ids []int64) ([]*recommend.MediaMetadata, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	q := url.Values{}
	q.Set("ids", strings.Join(parts, ","))

	var out []*recommend.MediaMetadata
	err := getJSON(ctx, c.rest, "metadata", "/media", q, &out)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	return out, err
}

// Discover returns media matching any of the query categories.
func (c *CatalogClient) Discover(ctx context.Context, dq recommend.DiscoverQuery) ([]*recommend.MediaMetadata, error) {
	q := url.Values{}
	setList(q, "genres", dq.Genres)
	setList(q, "platforms", dq.Platforms)
	setList(q, "eras", dq.Eras)
	setList(q, "exclude_genres", dq.ExcludeGenres)
	if dq.Limit > 0 {
		q.Set("limit", strconv.Itoa(dq.Limit))
	}

	var out []*recommend.MediaMetadata
	err := getJSON(ctx, c.rest, "discover", "/media/discover", q, &out)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for _, m := range out {
		if m != nil {
			c.cache.Add(m.ID, m)
		}
	}
	return out, nil
}

// Trending returns population-wide trending items.
func (c *CatalogClient) Trending(ctx context.Context, limit int) ([]recommend.TrendingItem, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	var out []recommend.TrendingItem
	err := getJSON(ctx, c.rest, "trending", "/media/trending", q, &out)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	return out, err
}

// CacheStats returns metadata cache counters.
func (c *CatalogClient) CacheStats() (hits, misses int64, size int) {
	return c.cache.Stats()
}

func setList(q url.Values, key string, values []string) {
	if len(values) > 0 {
		q.Set(key, strings.Join(values, ","))
	}
}
