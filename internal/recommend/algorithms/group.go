// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package algorithms

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/recommend/compatibility"
)

// Fan-out bounds for the group sources.
const (
	maxActivityGroups = 5
	groupFetchLimit   = 4
)

// GroupActivity recommends titles that co-members of the user's groups
// rated highly within the activity window.
//
// Per group, a title scores the mean rating strength of the members who
// liked it times the square root of the share of members who did. The best
// group wins per title. In group content mode only the requested group is
// considered.
type GroupActivity struct {
	baseSource
	groups       recommend.GroupDirectory
	interactions recommend.InteractionSource
	catalog      recommend.Catalog
	window       time.Duration
}

// NewGroupActivity creates a group activity source.
func NewGroupActivity(cfg *recommend.Config, groups recommend.GroupDirectory, interactions recommend.InteractionSource, catalog recommend.Catalog) *GroupActivity {
	return &GroupActivity{
		baseSource:   newBaseSource("group_activity", recommend.ModePersonal, recommend.ModeGroupContent),
		groups:       groups,
		interactions: interactions,
		catalog:      catalog,
		window:       cfg.Limits.GroupActivityWindow,
	}
}

// itemActivity accumulates the positive signals for one title in one group.
type itemActivity struct {
	sum    float64
	raters map[int64]struct{}
	latest time.Time
}

// Candidates implements recommend.CandidateSource.
func (a *GroupActivity) Candidates(ctx context.Context, req *recommend.SourceRequest) ([]recommend.Candidate, error) {
	groups, err := a.targetGroups(ctx, req)
	if err != nil || len(groups) == 0 {
		return nil, err
	}

	best := make(map[int64]recommend.Candidate)
	for _, group := range groups {
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		activity, others, err := a.groupActivity(ctx, req, group.ID)
		if err != nil {
			return nil, err
		}
		if others == 0 {
			continue
		}

		for id, act := range activity {
			raters := float64(len(act.raters))
			score := (act.sum / raters) * math.Sqrt(raters/float64(others))
			if prev, ok := best[id]; ok && prev.Score >= score {
				continue
			}
			best[id] = recommend.Candidate{
				CandidateID:   id,
				Kind:          recommend.KindContent,
				Score:         clamp01(score),
				Reason:        recommend.ReasonGroupActivity,
				SourceGroupID: recommend.Int64Ptr(group.ID),
				SourceName:    group.Name,
				SourceAt:      act.latest,
			}
		}
	}

	meta, err := metadataFor(ctx, a.catalog, sortedIDs(best))
	if err != nil {
		return nil, fmt.Errorf("group activity metadata: %w", err)
	}

	out := make([]recommend.Candidate, 0, len(best))
	for _, id := range sortedIDs(best) {
		cand := best[id]
		if m, ok := meta[id]; ok {
			cand.Title = m.Title
			cand.Genres = m.Genres
		}
		out = append(out, cand)
	}
	return truncate(out, req.Limit), nil
}

// targetGroups returns the groups whose activity is considered.
func (a *GroupActivity) targetGroups(ctx context.Context, req *recommend.SourceRequest) ([]recommend.Group, error) {
	joined, err := a.groups.UserGroups(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("user groups: %w", err)
	}

	if req.Mode == recommend.ModeGroupContent {
		for _, g := range joined {
			if g.ID == req.GroupID {
				return []recommend.Group{g}, nil
			}
		}
		return []recommend.Group{{ID: req.GroupID}}, nil
	}

	if len(joined) > maxActivityGroups {
		joined = joined[:maxActivityGroups]
	}
	return joined, nil
}

// groupActivity collects the recent positive interactions of the other
// members of a group. It returns the activity per title and the number of
// other members.
func (a *GroupActivity) groupActivity(ctx context.Context, req *recommend.SourceRequest, groupID int64) (map[int64]*itemActivity, int, error) {
	members, err := a.groups.ActiveMembers(ctx, groupID)
	if err != nil {
		return nil, 0, fmt.Errorf("group %d members: %w", groupID, err)
	}

	since := req.Now.Add(-a.window)
	activity := make(map[int64]*itemActivity)
	others := 0

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(groupFetchLimit)
	for _, member := range members {
		if member.UserID == req.UserID {
			continue
		}
		others++
		g.Go(func() error {
			history, err := a.interactions.History(gctx, member.UserID)
			if err != nil {
				return fmt.Errorf("member %d history: %w", member.UserID, err)
			}

			mu.Lock()
			defer mu.Unlock()
			for i := range history {
				in := &history[i]
				if in.Timestamp.Before(since) {
					continue
				}
				signal, ok := positiveSignal(in)
				if !ok {
					continue
				}
				act, exists := activity[in.MediaID]
				if !exists {
					act = &itemActivity{raters: map[int64]struct{}{}}
					activity[in.MediaID] = act
				}
				if _, rated := act.raters[member.UserID]; rated {
					continue
				}
				act.raters[member.UserID] = struct{}{}
				act.sum += signal
				if in.Timestamp.After(act.latest) {
					act.latest = in.Timestamp
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return activity, others, nil
}

// GroupMatch suggests groups to join whose members share the user's taste.
// A group scores the compatibility of the user with the confidence-weighted
// aggregate of its members and is kept when it reaches the configured
// minimum compatibility.
type GroupMatch struct {
	baseSource
	groups    recommend.GroupDirectory
	profiles  recommend.ProfileStore
	scorer    *compatibility.Scorer
	minCompat float64
}

// NewGroupMatch creates a group match source.
func NewGroupMatch(cfg *recommend.Config, groups recommend.GroupDirectory, profiles recommend.ProfileStore, scorer *compatibility.Scorer) *GroupMatch {
	return &GroupMatch{
		baseSource: newBaseSource("group_match", recommend.ModeGroupDiscovery),
		groups:     groups,
		profiles:   profiles,
		scorer:     scorer,
		minCompat:  cfg.Thresholds.MinCompatibility,
	}
}

// Candidates implements recommend.CandidateSource.
func (m *GroupMatch) Candidates(ctx context.Context, req *recommend.SourceRequest) ([]recommend.Candidate, error) {
	if req.Profile == nil {
		return nil, nil
	}

	groups, err := m.groups.DiscoverGroups(ctx, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("discover groups: %w", err)
	}

	var (
		mu  sync.Mutex
		out = make([]recommend.Candidate, 0, len(groups))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(groupFetchLimit)
	for _, group := range groups {
		if _, joined := req.Seen[group.ID]; joined {
			continue
		}
		g.Go(func() error {
			cand, ok, err := m.score(gctx, req, group)
			if err != nil || !ok {
				return err
			}
			mu.Lock()
			out = append(out, cand)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return truncate(out, req.Limit), nil
}

func (m *GroupMatch) score(ctx context.Context, req *recommend.SourceRequest, group recommend.Group) (recommend.Candidate, bool, error) {
	members, err := m.groups.ActiveMembers(ctx, group.ID)
	if err != nil {
		return recommend.Candidate{}, false, fmt.Errorf("group %d members: %w", group.ID, err)
	}

	profiles := make([]*recommend.PreferenceProfile, 0, len(members))
	var latest time.Time
	for _, member := range members {
		if member.UserID == req.UserID {
			continue
		}
		if member.JoinedAt.After(latest) {
			latest = member.JoinedAt
		}
		p, err := m.profiles.GetProfile(ctx, member.UserID)
		if errors.Is(err, recommend.ErrNotFound) {
			continue
		}
		if err != nil {
			return recommend.Candidate{}, false, fmt.Errorf("member %d profile: %w", member.UserID, err)
		}
		profiles = append(profiles, p)
	}

	compat := m.scorer.GroupCompatibility(req.Profile, profiles)
	if compat < m.minCompat {
		return recommend.Candidate{}, false, nil
	}

	return recommend.Candidate{
		CandidateID:   group.ID,
		Kind:          recommend.KindGroup,
		Score:         compat,
		Reason:        recommend.ReasonGroupCompatibility,
		Title:         group.Name,
		SourceGroupID: recommend.Int64Ptr(group.ID),
		SourceName:    group.Name,
		SourceAt:      latest,
	}, true, nil
}
