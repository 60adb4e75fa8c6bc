// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// MemoryStore is an in-memory recommend.Store. It applies the same upsert,
// trim and purge semantics as the DuckDB store and is used for tests and
// ephemeral deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[int64]*recommend.PreferenceProfile
	recs     map[string]*recommend.Recommendation
	byKey    map[recommend.Key]string
	feedback []*recommend.FeedbackRecord
}

var _ recommend.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[int64]*recommend.PreferenceProfile),
		recs:     make(map[string]*recommend.Recommendation),
		byKey:    make(map[recommend.Key]string),
	}
}

// GetProfile implements recommend.ProfileStore.
func (s *MemoryStore) GetProfile(_ context.Context, userID int64) (*recommend.PreferenceProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile for user %d: %w", userID, recommend.ErrNotFound)
	}
	return p.Clone(), nil
}

// SaveProfile implements recommend.ProfileStore.
func (s *MemoryStore) SaveProfile(_ context.Context, p *recommend.PreferenceProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p.Clone()
	return nil
}

// ProfilesByTopGenre implements recommend.ProfileStore.
func (s *MemoryStore) ProfilesByTopGenre(_ context.Context, genre string, excludeUserID int64, limit int) ([]*recommend.PreferenceProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	genre = recommend.NormalizeCategory(genre)
	out := make([]*recommend.PreferenceProfile, 0)
	for id, p := range s.profiles {
		if id == excludeUserID || p.GenreWeights[genre] <= 0 {
			continue
		}
		out = append(out, p.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		wi, wj := out[i].GenreWeights[genre], out[j].GenreWeights[genre]
		if wi != wj {
			return wi > wj
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpsertRecommendation implements recommend.RecommendationStore.
func (s *MemoryStore) UpsertRecommendation(_ context.Context, rec *recommend.Recommendation, now time.Time) (*recommend.Recommendation, recommend.UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rec.Key()
	id, ok := s.byKey[key]
	if !ok {
		s.insertLocked(rec)
		return rec.Clone(), recommend.UpsertInserted, nil
	}

	existing := s.recs[id]
	switch {
	case existing.Expired(now):
		delete(s.recs, id)
		s.insertLocked(rec)
		return rec.Clone(), recommend.UpsertReplaced, nil
	case existing.Dismissed:
		return existing.Clone(), recommend.UpsertUnchanged, nil
	default:
		if rec.ExpiresAt.After(existing.ExpiresAt) {
			existing.ExpiresAt = rec.ExpiresAt
		}
		existing.UpdatedAt = now
		return existing.Clone(), recommend.UpsertExtended, nil
	}
}

func (s *MemoryStore) insertLocked(rec *recommend.Recommendation) {
	stored := rec.Clone()
	s.recs[stored.ID] = stored
	s.byKey[stored.Key()] = stored.ID
}

// GetRecommendation implements recommend.RecommendationStore.
func (s *MemoryStore) GetRecommendation(_ context.Context, id string) (*recommend.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recs[id]
	if !ok {
		return nil, fmt.Errorf("recommendation %s: %w", id, recommend.ErrNotFound)
	}
	return rec.Clone(), nil
}

// UpdateRecommendationStatus implements recommend.RecommendationStore.
func (s *MemoryStore) UpdateRecommendationStatus(_ context.Context, rec *recommend.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.recs[rec.ID]
	if !ok {
		return fmt.Errorf("recommendation %s: %w", rec.ID, recommend.ErrNotFound)
	}
	stored.Viewed = rec.Viewed
	stored.Dismissed = rec.Dismissed
	stored.ActedUpon = rec.ActedUpon
	if rec.UserFeedback != nil {
		v := *rec.UserFeedback
		stored.UserFeedback = &v
	}
	stored.UpdatedAt = rec.UpdatedAt
	return nil
}

// ListActionable implements recommend.RecommendationStore.
func (s *MemoryStore) ListActionable(_ context.Context, q recommend.ListQuery) ([]*recommend.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*recommend.Recommendation, 0)
	for _, rec := range s.recs {
		if rec.UserID != q.UserID || rec.Kind != q.Kind || !sameGroup(rec.GroupID, q.GroupID) {
			continue
		}
		if !rec.Actionable(q.Now) {
			continue
		}
		out = append(out, rec.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return window(out, q.Offset, q.Limit), nil
}

func sameGroup(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func window(recs []*recommend.Recommendation, offset, limit int) []*recommend.Recommendation {
	if offset >= len(recs) {
		return []*recommend.Recommendation{}
	}
	recs = recs[offset:]
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// TrimRecommendations implements recommend.RecommendationStore. Dismissed
// and acted-upon rows are kept until they expire so their candidates are not
// suggested again; expired rows go first, then the lowest scores.
func (s *MemoryStore) TrimRecommendations(_ context.Context, userID int64, kind recommend.Kind, keep int, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trimmable := make([]*recommend.Recommendation, 0)
	for _, rec := range s.recs {
		if rec.UserID != userID || rec.Kind != kind {
			continue
		}
		if rec.Expired(now) || rec.Actionable(now) {
			trimmable = append(trimmable, rec)
		}
	}
	if len(trimmable) <= keep {
		return 0, nil
	}

	sort.Slice(trimmable, func(i, j int) bool {
		ei, ej := trimmable[i].Expired(now), trimmable[j].Expired(now)
		if ei != ej {
			return ei
		}
		if trimmable[i].Score != trimmable[j].Score {
			return trimmable[i].Score < trimmable[j].Score
		}
		return trimmable[i].CreatedAt.Before(trimmable[j].CreatedAt)
	})

	n := len(trimmable) - keep
	for _, rec := range trimmable[:n] {
		s.deleteLocked(rec)
	}
	return n, nil
}

// DeleteExpired implements recommend.RecommendationStore.
func (s *MemoryStore) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, rec := range s.recs {
		if rec.ExpiresAt.Before(cutoff) {
			s.deleteLocked(rec)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) deleteLocked(rec *recommend.Recommendation) {
	delete(s.recs, rec.ID)
	key := rec.Key()
	if s.byKey[key] == rec.ID {
		delete(s.byKey, key)
	}
}

// ConversionRates implements recommend.RecommendationStore.
func (s *MemoryStore) ConversionRates(_ context.Context, since time.Time) (map[recommend.ReasonCode]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := make(map[recommend.ReasonCode]int)
	positive := make(map[recommend.ReasonCode]int)
	for _, fb := range s.feedback {
		if fb.CreatedAt.Before(since) {
			continue
		}
		total[fb.ReasonCode]++
		if fb.Classification == recommend.FeedbackPositive {
			positive[fb.ReasonCode]++
		}
	}

	rates := make(map[recommend.ReasonCode]float64, len(total))
	for rc, n := range total {
		rates[rc] = float64(positive[rc]) / float64(n)
	}
	return rates, nil
}

// AppendFeedback implements recommend.FeedbackStore.
func (s *MemoryStore) AppendFeedback(_ context.Context, rec *recommend.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.feedback = append(s.feedback, &cp)
	return nil
}

// ListFeedback implements recommend.FeedbackStore.
func (s *MemoryStore) ListFeedback(_ context.Context, userID int64, since time.Time) ([]*recommend.FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*recommend.FeedbackRecord, 0)
	for _, fb := range s.feedback {
		if fb.UserID == userID && !fb.CreatedAt.Before(since) {
			cp := *fb
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Len returns the number of stored recommendations.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}
