// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/recommend/compatibility"
	"github.com/tomtom215/tastegraph/internal/validation"
)

// PageResult is one window of a ranked list.
type PageResult struct {
	Items    []*recommend.Recommendation `json:"items"`
	Page     int                         `json:"page"`
	PageSize int                         `json:"page_size"`
	HasMore  bool                        `json:"has_more"`
}

// CompatibilityResult is the pairwise compatibility of two users.
type CompatibilityResult struct {
	UserA     int64                   `json:"user_a"`
	UserB     int64                   `json:"user_b"`
	Score     float64                 `json:"score"`
	Breakdown compatibility.Breakdown `json:"breakdown"`

	// Sufficient is false when either profile is below the confidence
	// threshold; the score is still reported.
	Sufficient bool `json:"sufficient"`
}

// normalizePage applies the configured defaults and bounds to page.
func (s *Service) normalizePage(page recommend.Page) (recommend.Page, error) {
	if page.Size <= 0 {
		page.Size = s.cfg.Limits.DefaultPageSize
	}
	if page.Size > s.cfg.Limits.MaxPageSize {
		page.Size = s.cfg.Limits.MaxPageSize
	}
	if verr := validation.ValidateStruct(page); verr != nil {
		return page, fmt.Errorf("%w: %s", recommend.ErrInvalidArgument, verr.Error())
	}
	return page, nil
}

// GetPersonalRecommendations returns the user's actionable content
// recommendations ordered by score.
func (s *Service) GetPersonalRecommendations(ctx context.Context, userID int64, page recommend.Page) (*PageResult, error) {
	return s.list(ctx, userID, recommend.KindContent, nil, page)
}

// GetGroupRecommendations returns the user's actionable suggestions of
// groups to join.
func (s *Service) GetGroupRecommendations(ctx context.Context, userID int64, page recommend.Page) (*PageResult, error) {
	return s.list(ctx, userID, recommend.KindGroup, nil, page)
}

// GetGroupContentRecommendations returns content recommendations generated
// for the user within groupID.
func (s *Service) GetGroupContentRecommendations(ctx context.Context, userID, groupID int64, page recommend.Page) (*PageResult, error) {
	if groupID <= 0 {
		return nil, fmt.Errorf("%w: group id must be positive, got %d", recommend.ErrInvalidArgument, groupID)
	}
	return s.list(ctx, userID, recommend.KindContent, &groupID, page)
}

func (s *Service) list(ctx context.Context, userID int64, kind recommend.Kind, groupID *int64, page recommend.Page) (*PageResult, error) {
	if err := validUser(userID); err != nil {
		return nil, err
	}
	page, err := s.normalizePage(page)
	if err != nil {
		return nil, err
	}

	recs, err := s.store.ListActionable(ctx, recommend.ListQuery{
		UserID:  userID,
		Kind:    kind,
		GroupID: groupID,
		Now:     s.now(),
		Offset:  page.Offset(),
		Limit:   page.Size + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("list %s recommendations: %w", kind, err)
	}

	result := &PageResult{Page: page.Number, PageSize: page.Size, Items: recs}
	if len(recs) > page.Size {
		result.Items = recs[:page.Size]
		result.HasMore = true
	}
	if result.Items == nil {
		result.Items = []*recommend.Recommendation{}
	}
	return result, nil
}

// GetTrendingRecommendations computes trending content for the user on
// demand. A userID of 0 yields unpersonalized results.
func (s *Service) GetTrendingRecommendations(ctx context.Context, userID int64, limit int) ([]*recommend.Recommendation, error) {
	if userID < 0 {
		return nil, validUser(userID)
	}
	recs, err := s.engine.Trending(ctx, userID, s.clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("trending recommendations: %w", err)
	}
	return nonNil(recs), nil
}

// RecommendNow returns suggestions related to the media the user is
// currently viewing.
func (s *Service) RecommendNow(ctx context.Context, userID, mediaID int64, limit int) ([]*recommend.Recommendation, error) {
	if err := validUser(userID); err != nil {
		return nil, err
	}
	recs, err := s.engine.Realtime(ctx, userID, mediaID, s.clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("realtime recommendations: %w", err)
	}
	return nonNil(recs), nil
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.Limits.DefaultPageSize
	}
	if limit > s.cfg.Limits.MaxPageSize {
		return s.cfg.Limits.MaxPageSize
	}
	return limit
}

// GetUserPreferences returns the stored profile. A user without a stored
// profile gets one calculated and saved on the spot.
func (s *Service) GetUserPreferences(ctx context.Context, userID int64) (*recommend.PreferenceProfile, error) {
	if err := validUser(userID); err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, recommend.ErrNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	profile, err = s.calculator.Calculate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// CalculateCompatibility scores how well two users' tastes align.
func (s *Service) CalculateCompatibility(ctx context.Context, userA, userB int64) (*CompatibilityResult, error) {
	if err := validUser(userA); err != nil {
		return nil, err
	}
	if err := validUser(userB); err != nil {
		return nil, err
	}
	if userA == userB {
		return nil, fmt.Errorf("%w: compatibility requires two distinct users", recommend.ErrInvalidArgument)
	}

	a, err := s.GetUserPreferences(ctx, userA)
	if err != nil {
		return nil, err
	}
	b, err := s.GetUserPreferences(ctx, userB)
	if err != nil {
		return nil, err
	}

	now := s.now()
	bd := s.scorer.Breakdown(a, b)
	return &CompatibilityResult{
		UserA:      userA,
		UserB:      userB,
		Score:      bd.Overall,
		Breakdown:  bd,
		Sufficient: s.cfg.HasSufficientData(a, now) && s.cfg.HasSufficientData(b, now),
	}, nil
}

func nonNil(recs []*recommend.Recommendation) []*recommend.Recommendation {
	if recs == nil {
		return []*recommend.Recommendation{}
	}
	return recs
}
