// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/metrics"
	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/validation"
)

// FeedbackInput is an explicit rating submitted for a recommendation.
type FeedbackInput struct {
	Rating  int    `json:"rating" validate:"rating"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

// MarkViewed records that the user saw the recommendation. Viewing an
// already viewed or terminal recommendation changes nothing.
func (s *Service) MarkViewed(ctx context.Context, userID int64, kind recommend.Kind, recID string) (*recommend.Recommendation, error) {
	rec, _, err := s.transition(ctx, "view", userID, kind, recID, recommend.StatusViewed)
	return rec, err
}

// Dismiss hides the recommendation and logs a negative signal.
func (s *Service) Dismiss(ctx context.Context, userID int64, kind recommend.Kind, recID string) (*recommend.Recommendation, error) {
	rec, changed, err := s.transition(ctx, "dismiss", userID, kind, recID, recommend.StatusDismissed)
	if err != nil || !changed {
		return rec, err
	}
	s.recordFeedback(ctx, rec, recommend.ActionDismissed, recommend.FeedbackNegative, nil, "")
	return rec, nil
}

// RecordPositiveFeedback marks the recommendation acted upon, which implies
// viewed, and logs a positive signal.
func (s *Service) RecordPositiveFeedback(ctx context.Context, userID int64, kind recommend.Kind, recID string) (*recommend.Recommendation, error) {
	rec, changed, err := s.transition(ctx, "act", userID, kind, recID, recommend.StatusActedUpon)
	if err != nil || !changed {
		return rec, err
	}
	s.recordFeedback(ctx, rec, recommend.ActionActedUpon, recommend.FeedbackPositive, nil, "")
	return rec, nil
}

// SubmitFeedback stores an explicit rating on a non-expired recommendation
// and appends a RATED record. The latest rating wins.
func (s *Service) SubmitFeedback(ctx context.Context, userID int64, kind recommend.Kind, recID string, in FeedbackInput) (*recommend.Recommendation, error) {
	if verr := validation.ValidateStruct(&in); verr != nil {
		err := fmt.Errorf("%w: %s", recommend.ErrInvalidArgument, verr.Error())
		metrics.RecordTransition("rate", kind, false, err)
		return nil, err
	}

	rec, err := s.load(ctx, userID, kind, recID)
	if err != nil {
		metrics.RecordTransition("rate", kind, false, err)
		return nil, err
	}

	if err := rec.ApplyRating(in.Rating, s.now()); err != nil {
		metrics.RecordTransition("rate", kind, false, err)
		return nil, fmt.Errorf("rate recommendation %s: %w", recID, err)
	}
	if err := s.store.UpdateRecommendationStatus(ctx, rec); err != nil {
		metrics.RecordTransition("rate", kind, false, err)
		return nil, fmt.Errorf("update recommendation %s: %w", recID, err)
	}
	metrics.RecordTransition("rate", kind, true, nil)

	rating := in.Rating
	s.recordFeedback(ctx, rec, recommend.ActionRated, recommend.ClassifyRating(rating), &rating, in.Comment)
	return rec, nil
}

// load fetches a recommendation owned by userID. Foreign ids and kind
// mismatches are reported as not found so ids cannot be probed.
func (s *Service) load(ctx context.Context, userID int64, kind recommend.Kind, recID string) (*recommend.Recommendation, error) {
	if err := validUser(userID); err != nil {
		return nil, err
	}
	kind, err := recommend.ParseKind(string(kind))
	if err != nil {
		return nil, err
	}
	if recID == "" {
		return nil, fmt.Errorf("%w: recommendation id is required", recommend.ErrInvalidArgument)
	}

	rec, err := s.store.GetRecommendation(ctx, recID)
	if err != nil {
		return nil, fmt.Errorf("load recommendation: %w", err)
	}
	if rec.UserID != userID || rec.Kind != kind {
		return nil, fmt.Errorf("recommendation %s: %w", recID, recommend.ErrNotFound)
	}
	return rec, nil
}

// transition applies a status change and persists it when something changed.
func (s *Service) transition(ctx context.Context, op string, userID int64, kind recommend.Kind, recID string, to recommend.Status) (*recommend.Recommendation, bool, error) {
	rec, err := s.load(ctx, userID, kind, recID)
	if err != nil {
		metrics.RecordTransition(op, kind, false, err)
		return nil, false, err
	}

	changed, err := rec.Transition(to, s.now())
	if err != nil {
		metrics.RecordTransition(op, kind, false, err)
		return nil, false, fmt.Errorf("%s recommendation %s: %w", op, recID, err)
	}
	if changed {
		if err := s.store.UpdateRecommendationStatus(ctx, rec); err != nil {
			metrics.RecordTransition(op, kind, false, err)
			return nil, false, fmt.Errorf("update recommendation %s: %w", recID, err)
		}
	}
	metrics.RecordTransition(op, kind, changed, nil)
	return rec, changed, nil
}

// recordFeedback appends the feedback record, nudges the profile and
// publishes the event. The status change is already persisted, so failures
// here are logged and do not fail the call.
func (s *Service) recordFeedback(ctx context.Context, rec *recommend.Recommendation, action recommend.FeedbackAction, class recommend.Classification, rating *int, comment string) {
	fb := &recommend.FeedbackRecord{
		ID:               uuid.NewString(),
		RecommendationID: rec.ID,
		UserID:           rec.UserID,
		Kind:             rec.Kind,
		CandidateID:      rec.CandidateID,
		ReasonCode:       rec.ReasonCode,
		Classification:   class,
		Rating:           rating,
		Comment:          comment,
		Action:           action,
		CreatedAt:        s.now(),
	}

	log := logging.Ctx(ctx)
	if err := s.store.AppendFeedback(ctx, fb); err != nil {
		log.Error().Err(err).Str("recommendation_id", rec.ID).Str("action", string(action)).Msg("failed to append feedback record")
		return
	}
	metrics.RecordFeedback(fb)

	if rec.Kind == recommend.KindContent {
		s.nudgeProfile(ctx, rec.UserID, rec.CandidateID, class)
	}
	s.publishFeedback(ctx, fb)
}

// nudgeProfile applies a feedback signal to the stored profile right away so
// the next generation run sees it before the next full recalculation.
func (s *Service) nudgeProfile(ctx context.Context, userID, mediaID int64, class recommend.Classification) {
	if class.Sign() == 0 {
		return
	}
	log := logging.Ctx(ctx)

	lctx, cancel := context.WithTimeout(ctx, nudgeLockTimeout)
	defer cancel()
	release, err := s.locker.Acquire(lctx, userLockKey(userID))
	if err != nil {
		log.Debug().Err(err).Int64("user_id", userID).Msg("profile busy, skipping feedback nudge")
		return
	}
	defer release()

	profile, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, recommend.ErrNotFound) {
		return
	}
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("failed to load profile for feedback nudge")
		return
	}

	uctx, cancelMeta := context.WithTimeout(ctx, s.cfg.Limits.UpstreamTimeout)
	meta, err := s.catalog.Metadata(uctx, []int64{mediaID})
	cancelMeta()
	if err != nil {
		log.Warn().Err(err).Int64("media_id", mediaID).Msg("failed to load metadata for feedback nudge")
		return
	}
	m, ok := meta[mediaID]
	if !ok {
		return
	}

	s.calculator.ApplyFeedback(profile, m, class)
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("failed to save nudged profile")
	}
}
