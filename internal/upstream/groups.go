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
	"strconv"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// GroupsClient reads membership from the group directory.
type GroupsClient struct {
	rest *restClient
}

var _ recommend.GroupDirectory = (*GroupsClient)(nil)

// NewGroupsClient creates a client for cfg.GroupsURL.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGroupsClient(cfg *Config, logger zerolog.Logger) *GroupsClient {
	return &GroupsClient{rest: newRESTClient("groups", cfg.GroupsURL, cfg, logger)}
}

// ActiveMembers returns the active members of a group. An unknown group is
// reported as ErrInvalidArgument so that callers skip it.
func (c *GroupsClient) ActiveMembers(ctx context.Context, groupID int64) ([]recommend.GroupMember, error) {
	var out []recommend.GroupMember
	err := getJSON(ctx, c.rest, "active_members", fmt.Sprintf("/groups/%d/members", groupID), nil, &out)
	if errors.Is(err, errNotFound) {
		return nil, fmt.Errorf("group %d: %w", groupID, recommend.ErrInvalidArgument)
	}
	return out, err
}

// UserGroups returns the groups the user belongs to.
func (c *GroupsClient) UserGroups(ctx context.Context, userID int64) ([]recommend.Group, error) {
	var out []recommend.Group
	err := getJSON(ctx, c.rest, "user_groups", fmt.Sprintf("/users/%d/groups", userID), nil, &out)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	return out, err
}

// DiscoverGroups returns candidate groups, most active first.
func (c *GroupsClient) DiscoverGroups(ctx context.Context, limit int) ([]recommend.Group, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	var out []recommend.Group
	err := getJSON(ctx, c.rest, "discover_groups", "/groups/discover", q, &out)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	return out, err
}
