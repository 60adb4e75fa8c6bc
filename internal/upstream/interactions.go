// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// InteractionsClient reads user history from the interaction service.
type InteractionsClient struct {
	rest *restClient
}

var _ recommend.InteractionSource = (*InteractionsClient)(nil)

// NewInteractionsClient creates a client for cfg.InteractionsURL.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewInteractionsClient(cfg *Config, logger zerolog.Logger) *InteractionsClient {
	return &InteractionsClient{rest: newRESTClient("interactions", cfg.InteractionsURL, cfg, logger)}
}

// History returns the user's interactions ordered by timestamp ascending.
// An unknown user has no history.
func (c *InteractionsClient) History(ctx context.Context, userID int64) ([]recommend.Interaction, error) {
	var out []recommend.Interaction
	err := getJSON(ctx, c.rest, "history", fmt.Sprintf("/users/%d/interactions", userID), nil, &out)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// ListUsers returns up to limit user ids greater than afterID.
func (c *InteractionsClient) ListUsers(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	return c.listUsers(ctx, "list_users", "/users", pageQuery(afterID, limit))
}

// ListActiveUsers returns up to limit user ids greater than afterID with an
// interaction at or after since.
func (c *InteractionsClient) ListActiveUsers(ctx context.Context, since time.Time, afterID int64, limit int) ([]int64, error) {
	q := pageQuery(afterID, limit)
	q.Set("since", since.UTC().Format(time.RFC3339))
	return c.listUsers(ctx, "list_active_users", "/users/active", q)
}

func (c *InteractionsClient) listUsers(ctx context.Context, op, path string, q url.Values) ([]int64, error) {
	var ids []int64
	err := getJSON(ctx, c.rest, op, path, q, &ids)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// Keyset pagination relies on ascending ids.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
