// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// FixtureData is the JSON document loaded by LoadFixture.
type FixtureData struct {
	Media        []*recommend.MediaMetadata `json:"media"`
	Interactions []recommend.Interaction    `json:"interactions"`
	Groups       []recommend.Group          `json:"groups"`
	Members      []recommend.GroupMember    `json:"members"`
	Trending     []recommend.TrendingItem   `json:"trending"`
}

// Fixture serves the collaborator interfaces from in-memory data. It backs
// standalone deployments without upstream services and the tests of the
// packages that consume collaborators.
type Fixture struct {
	mu           sync.RWMutex
	media        map[int64]*recommend.MediaMetadata
	popularity   map[int64]float64
	interactions map[int64][]recommend.Interaction
	groups       map[int64]recommend.Group
	members      map[int64][]recommend.GroupMember
	trending     []recommend.TrendingItem
}

var (
	_ recommend.InteractionSource = (*Fixture)(nil)
	_ recommend.Catalog           = (*Fixture)(nil)
	_ recommend.GroupDirectory    = (*Fixture)(nil)
)

// NewFixture creates an empty fixture.
func NewFixture() *Fixture {
	return &Fixture{
		media:        make(map[int64]*recommend.MediaMetadata),
		popularity:   make(map[int64]float64),
		interactions: make(map[int64][]recommend.Interaction),
		groups:       make(map[int64]recommend.Group),
		members:      make(map[int64][]recommend.GroupMember),
	}
}

// LoadFixture reads a FixtureData JSON file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var doc FixtureData
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	return NewFixtureFromData(&doc), nil
}

// NewFixtureFromData builds a fixture from an in-memory document.
func NewFixtureFromData(doc *FixtureData) *Fixture {
	f := NewFixture()
	for _, m := range doc.Media {
		f.AddMedia(m)
	}
	for i := range doc.Interactions {
		f.AddInteraction(doc.Interactions[i])
	}
	for _, g := range doc.Groups {
		f.AddGroup(g)
	}
	for _, m := range doc.Members {
		f.AddMember(m)
	}
	f.SetTrending(doc.Trending)
	return f
}

// WriteFixture writes doc as indented JSON to path.
func WriteFixture(path string, doc *FixtureData) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}

// AddMedia registers catalog metadata. Category labels are normalized.
func (f *Fixture) AddMedia(m *recommend.MediaMetadata) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *m
	cp.Genres = make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		cp.Genres = append(cp.Genres, recommend.NormalizeCategory(g))
	}
	cp.Platform = recommend.NormalizeCategory(m.Platform)
	f.media[cp.ID] = &cp
}

// AddInteraction appends to a user's history, keeping it time ordered.
func (f *Fixture) AddInteraction(in recommend.Interaction) {
	f.mu.Lock()
	defer f.mu.Unlock()

	h := append(f.interactions[in.UserID], in)
	sort.SliceStable(h, func(i, j int) bool { return h[i].Timestamp.Before(h[j].Timestamp) })
	f.interactions[in.UserID] = h
	f.popularity[in.MediaID]++
}

// AddGroup registers a group.
func (f *Fixture) AddGroup(g recommend.Group) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n := len(f.members[g.ID]); n > 0 {
		g.MemberCount = n
	}
	f.groups[g.ID] = g
}

// AddMember registers an active member.
func (f *Fixture) AddMember(m recommend.GroupMember) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[m.GroupID] = append(f.members[m.GroupID], m)
	g := f.groups[m.GroupID]
	g.ID = m.GroupID
	g.MemberCount = len(f.members[m.GroupID])
	f.groups[m.GroupID] = g
}

// SetTrending replaces the trending list.
func (f *Fixture) SetTrending(items []recommend.TrendingItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trending = append([]recommend.TrendingItem(nil), items...)
}

// History implements recommend.InteractionSource.
func (f *Fixture) History(_ context.Context, userID int64) ([]recommend.Interaction, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]recommend.Interaction(nil), f.interactions[userID]...), nil
}

// ListUsers implements recommend.InteractionSource.
func (f *Fixture) ListUsers(_ context.Context, afterID int64, limit int) ([]int64, error) {
	return f.listUsers(afterID, limit, func([]recommend.Interaction) bool { return true }), nil
}

// ListActiveUsers implements recommend.InteractionSource.
func (f *Fixture) ListActiveUsers(_ context.Context, since time.Time, afterID int64, limit int) ([]int64, error) {
	return f.listUsers(afterID, limit, func(h []recommend.Interaction) bool {
		return len(h) > 0 && !h[len(h)-1].Timestamp.Before(since)
	}), nil
}

func (f *Fixture) listUsers(afterID int64, limit int, keep func([]recommend.Interaction) bool) []int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ids := make([]int64, 0, len(f.interactions))
	for id, h := range f.interactions {
		if id > afterID && keep(h) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// Metadata implements recommend.Catalog.
func (f *Fixture) Metadata(_ context.Context, ids []int64) (map[int64]*recommend.MediaMetadata, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[int64]*recommend.MediaMetadata, len(ids))
	for _, id := range ids {
		if m, ok := f.media[id]; ok {
			cp := *m
			out[id] = &cp
		}
	}
	return out, nil
}

// Discover implements recommend.Catalog. Media matching any requested
// category and no excluded genre are returned, most popular first.
func (f *Fixture) Discover(_ context.Context, q recommend.DiscoverQuery) ([]*recommend.MediaMetadata, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	genres := labelSet(q.Genres)
	platforms := labelSet(q.Platforms)
	eras := labelSet(q.Eras)
	excluded := labelSet(q.ExcludeGenres)
	anyFilter := len(genres)+len(platforms)+len(eras) > 0

	out := make([]*recommend.MediaMetadata, 0)
	for _, m := range f.media {
		if hasAny(m.Genres, excluded) {
			continue
		}
		_, platformHit := platforms[m.Platform]
		_, eraHit := eras[m.Era()]
		if anyFilter && !hasAny(m.Genres, genres) && !platformHit && !eraHit {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		pi, pj := f.popularity[out[i].ID], f.popularity[out[j].ID]
		if pi != pj {
			return pi > pj
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Trending implements recommend.Catalog.
func (f *Fixture) Trending(_ context.Context, limit int) ([]recommend.TrendingItem, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := append([]recommend.TrendingItem(nil), f.trending...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ActiveMembers implements recommend.GroupDirectory.
func (f *Fixture) ActiveMembers(_ context.Context, groupID int64) ([]recommend.GroupMember, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]recommend.GroupMember(nil), f.members[groupID]...), nil
}

// UserGroups implements recommend.GroupDirectory.
func (f *Fixture) UserGroups(_ context.Context, userID int64) ([]recommend.Group, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]recommend.Group, 0)
	for gid, members := range f.members {
		for _, m := range members {
			if m.UserID == userID {
				out = append(out, f.groups[gid])
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DiscoverGroups implements recommend.GroupDirectory. Larger groups first.
func (f *Fixture) DiscoverGroups(_ context.Context, limit int) ([]recommend.Group, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]recommend.Group, 0, len(f.groups))
	for _, g := range f.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MemberCount != out[j].MemberCount {
			return out[i].MemberCount > out[j].MemberCount
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func labelSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			set[recommend.NormalizeCategory(l)] = struct{}{}
		}
	}
	return set
}

func hasAny(labels []string, set map[string]struct{}) bool {
	for _, l := range labels {
		if _, ok := set[l]; ok {
			return true
		}
	}
	return false
}
