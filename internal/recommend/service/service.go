// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tastegraph/internal/events"
	"github.com/tomtom215/tastegraph/internal/lock"
	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/metrics"
	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/recommend/compatibility"
	"github.com/tomtom215/tastegraph/internal/recommend/preference"
)

// nudgeLockTimeout bounds how long feedback waits for the user lock before
// skipping the immediate profile nudge.
const nudgeLockTimeout = 2 * time.Second

// Deps holds the collaborators of the service.
type Deps struct {
	Engine     *recommend.Engine
	Calculator *preference.Calculator
	Scorer     *compatibility.Scorer
	Store      recommend.Store
	Groups     recommend.GroupDirectory
	Catalog    recommend.Catalog

	// Locker serializes refreshes per user. Optional; defaults to an
	// in-process keyed mutex.
	Locker lock.Locker

	// Events receives feedback and refresh events. Optional.
	Events events.Publisher
}

// Service is the recommendation service contract consumed by the HTTP API,
// the scheduler and the admin CLI. It is safe for concurrent use.
type Service struct {
	cfg        *recommend.Config
	engine     *recommend.Engine
	calculator *preference.Calculator
	scorer     *compatibility.Scorer
	store      recommend.Store
	groups     recommend.GroupDirectory
	catalog    recommend.Catalog
	locker     lock.Locker
	events     events.Publisher
	logger     zerolog.Logger
	now        func() time.Time
}

// New creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg *recommend.Config, deps Deps, logger zerolog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", recommend.ErrInvalidArgument)
	}
	if deps.Engine == nil || deps.Calculator == nil || deps.Scorer == nil ||
		deps.Store == nil || deps.Groups == nil || deps.Catalog == nil {
		return nil, fmt.Errorf("%w: engine, calculator, scorer, store, groups and catalog are required", recommend.ErrInvalidArgument)
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewKeyedMutex()
	}
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}

	return &Service{
		cfg:        cfg,
		engine:     deps.Engine,
		calculator: deps.Calculator,
		scorer:     deps.Scorer,
		store:      deps.Store,
		groups:     deps.Groups,
		catalog:    deps.Catalog,
		locker:     deps.Locker,
		events:     deps.Events,
		logger:     logger.With().Str("component", "service").Logger(),
		now:        time.Now,
	}, nil
}

// SetClock replaces the wall clock. Intended for tests; the engine and
// calculator clocks are set separately.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Config returns the engine configuration.
func (s *Service) Config() *recommend.Config {
	return s.cfg
}

// EngineStats returns the generation counters.
func (s *Service) EngineStats() recommend.EngineStats {
	return s.engine.Stats()
}

// userLockKey is the lock key shared by refreshes and profile nudges.
func userLockKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

func validUser(userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user id must be positive, got %d", recommend.ErrInvalidArgument, userID)
	}
	return nil
}

// publishFeedback emits a feedback event. Failures are logged only; the
// feedback itself is already persisted.
func (s *Service) publishFeedback(ctx context.Context, fb *recommend.FeedbackRecord) {
	if err := s.events.PublishFeedback(ctx, events.NewFeedbackEvent(fb)); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("recommendation_id", fb.RecommendationID).Msg("failed to publish feedback event")
	}
}

func (s *Service) publishRefreshed(ctx context.Context, res *RefreshResult) {
	ev := events.NewRefreshedEvent(res.UserID, s.now())
	ev.SufficientData = res.SufficientData
	ev.Personal = res.Personal
	ev.Groups = res.Groups
	ev.GroupContent = res.GroupContent
	ev.FailedGroups = res.FailedGroups
	if res.Profile != nil {
		ev.Confidence = res.Profile.ConfidenceScore
	}
	if err := s.events.PublishRefreshed(ctx, ev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("user_id", res.UserID).Msg("failed to publish refreshed event")
	}
}

// isMembershipError reports the InvalidArgument returned by ForGroup when
// the user left the group between listing and generation.
func isMembershipError(err error) bool {
	return errors.Is(err, recommend.ErrInvalidArgument)
}
