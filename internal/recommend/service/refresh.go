// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/metrics"
	"github.com/tomtom215/tastegraph/internal/recommend"
)

// RefreshResult summarizes one user refresh.
type RefreshResult struct {
	UserID         int64                        `json:"user_id"`
	Profile        *recommend.PreferenceProfile `json:"profile"`
	SufficientData bool                         `json:"sufficient_data"`
	Personal       int                          `json:"personal"`
	Groups         int                          `json:"groups"`
	GroupContent   int                          `json:"group_content"`
	FailedGroups   []int64                      `json:"failed_groups,omitempty"`
	Duration       time.Duration                `json:"duration"`
}

// RefreshUser recalculates the user's profile and, when it carries enough
// data, regenerates personal, group and per-group content recommendations.
// Refreshes of the same user are serialized through the user lock.
//
// Profile and personal generation failures fail the refresh. Group discovery
// and per-group failures are logged and reported in the result.
func (s *Service) RefreshUser(ctx context.Context, userID int64) (result *RefreshResult, err error) {
	if err := validUser(userID); err != nil {
		return nil, err
	}
	ctx = logging.ContextWithUserID(ctx, userID)
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	log := logging.Ctx(ctx)

	start := time.Now()
	defer func() {
		metrics.RecordRefresh(time.Since(start), err)
	}()

	release, err := s.locker.Acquire(ctx, userLockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("lock user %d: %w", userID, err)
	}
	defer release()

	profile, err := s.calculator.Calculate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("calculate profile: %w", err)
	}
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	result = &RefreshResult{
		UserID:         userID,
		Profile:        profile,
		SufficientData: s.cfg.HasSufficientData(profile, s.now()),
	}
	if !result.SufficientData {
		log.Debug().Float64("confidence", profile.ConfidenceScore).Msg("insufficient data, skipping generation")
		result.Duration = time.Since(start)
		s.publishRefreshed(ctx, result)
		return result, nil
	}

	limit := s.cfg.Limits.GenerationLimit

	personal, err := s.generate(ctx, recommend.ModePersonal, func(ctx context.Context) ([]*recommend.Recommendation, error) {
		return s.engine.Personal(ctx, userID, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("generate personal recommendations: %w", err)
	}
	result.Personal = personal

	groups, err := s.generate(ctx, recommend.ModeGroupDiscovery, func(ctx context.Context) ([]*recommend.Recommendation, error) {
		return s.engine.Groups(ctx, userID, limit)
	})
	if err != nil {
		log.Warn().Err(err).Msg("group discovery failed")
	}
	result.Groups = groups

	s.refreshGroupContent(ctx, userID, limit, result)

	result.Duration = time.Since(start)
	log.Debug().
		Int("personal", result.Personal).
		Int("groups", result.Groups).
		Int("group_content", result.GroupContent).
		Int("failed_groups", len(result.FailedGroups)).
		Dur("duration", result.Duration).
		Msg("user refreshed")

	s.publishRefreshed(ctx, result)
	return result, nil
}

// refreshGroupContent regenerates content for every group the user belongs
// to. A user who left a group between listing and generation is skipped.
func (s *Service) refreshGroupContent(ctx context.Context, userID int64, limit int, result *RefreshResult) {
	log := logging.Ctx(ctx)

	uctx, cancel := context.WithTimeout(ctx, s.cfg.Limits.UpstreamTimeout)
	groups, err := s.groups.UserGroups(uctx, userID)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("failed to list user groups")
		return
	}

	for _, g := range groups {
		if ctx.Err() != nil {
			return
		}
		groupID := g.ID
		n, err := s.generate(ctx, recommend.ModeGroupContent, func(ctx context.Context) ([]*recommend.Recommendation, error) {
			return s.engine.ForGroup(ctx, userID, groupID, limit)
		})
		switch {
		case err == nil:
			result.GroupContent += n
		case isMembershipError(err):
			log.Debug().Int64("group_id", groupID).Msg("user no longer a member, skipping group")
		default:
			log.Warn().Err(err).Int64("group_id", groupID).Msg("group content generation failed")
			result.FailedGroups = append(result.FailedGroups, groupID)
		}
	}
}

// generate runs one engine entry point and records its metrics.
func (s *Service) generate(ctx context.Context, mode recommend.Mode, run func(context.Context) ([]*recommend.Recommendation, error)) (int, error) {
	start := time.Now()
	recs, err := run(ctx)
	metrics.RecordGeneration(mode.String(), len(recs), time.Since(start), err)
	return len(recs), err
}

// Cleanup purges recommendations that expired more than the configured grace
// period before now. Feedback records are kept.
func (s *Service) Cleanup(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.cfg.Schedule.CleanupGrace)
	n, err := s.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired recommendations: %w", err)
	}
	metrics.CleanupDeleted.Add(float64(n))
	if n > 0 {
		logging.Ctx(ctx).Info().Int("deleted", n).Time("cutoff", cutoff).Msg("expired recommendations purged")
	}
	return n, nil
}
