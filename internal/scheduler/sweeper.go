// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/metrics"
	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/recommend/service"
	"github.com/tomtom215/tastegraph/internal/recommend/storage"
)

// Sweep names a batch refresh.
type Sweep string

const (
	SweepFull   Sweep = "full"
	SweepActive Sweep = "active"
)

// ParseSweep parses a sweep name.
func ParseSweep(s string) (Sweep, error) {
	switch Sweep(s) {
	case SweepFull, SweepActive:
		return Sweep(s), nil
	default:
		return "", fmt.Errorf("unknown sweep %q: %w", s, recommend.ErrInvalidArgument)
	}
}

// Refresher refreshes one user. Implemented by service.Service.
type Refresher interface {
	RefreshUser(ctx context.Context, userID int64) (*service.RefreshResult, error)
}

// SweepStats summarizes a sweep run.
type SweepStats struct {
	Sweep     Sweep         `json:"sweep"`
	Cycle     string        `json:"cycle,omitempty"`
	Pages     int           `json:"pages"`
	Refreshed int           `json:"refreshed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// FullSweepCycle returns the checkpoint cycle of the full sweep started at t.
func FullSweepCycle(t time.Time) string {
	return "full:" + t.UTC().Format("2006-01-02")
}

// Sweeper pages through users and refreshes them on a bounded worker pool.
type Sweeper struct {
	source      recommend.InteractionSource
	refresher   Refresher
	checkpoints storage.Checkpoints
	cfg         recommend.ScheduleConfig
	listTimeout time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSweeper creates a sweeper. checkpoints may be nil, in which case full
// sweeps do not resume.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSweeper(source recommend.InteractionSource, refresher Refresher, checkpoints storage.Checkpoints, cfg *recommend.Config, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		source:      source,
		refresher:   refresher,
		checkpoints: checkpoints,
		cfg:         cfg.Schedule,
		listTimeout: cfg.Limits.UpstreamTimeout,
		logger:      logger.With().Str("component", "sweeper").Logger(),
		now:         time.Now,
	}
}

// SetClock replaces the clock. Intended for tests.
func (s *Sweeper) SetClock(now func() time.Time) {
	s.now = now
}

type listFunc func(ctx context.Context, afterID int64, limit int) ([]int64, error)

// Run executes one sweep. A listing failure aborts the sweep; a failed user
// refresh is logged, counted and skipped. Cancellation stops scheduling new
// users and waits for those in flight.
func (s *Sweeper) Run(ctx context.Context, sweep Sweep) (stats *SweepStats, err error) {
	start := s.now()
	stats = &SweepStats{Sweep: sweep}

	var list listFunc
	switch sweep {
	case SweepFull:
		stats.Cycle = FullSweepCycle(start)
		list = s.source.ListUsers
	case SweepActive:
		since := start.Add(-s.cfg.ActiveLookback())
		list = func(ctx context.Context, afterID int64, limit int) ([]int64, error) {
			return s.source.ListActiveUsers(ctx, since, afterID, limit)
		}
	default:
		return nil, fmt.Errorf("unknown sweep %q: %w", sweep, recommend.ErrInvalidArgument)
	}

	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := s.logger.With().
		Str("sweep", string(sweep)).
		Str("correlation_id", logging.CorrelationIDFromContext(ctx)).
		Logger()
	log.Info().Str("cycle", stats.Cycle).Msg("sweep started")

	var refreshed, skipped, failed atomic.Int64
	defer func() {
		stats.Refreshed = int(refreshed.Load())
		stats.Skipped = int(skipped.Load())
		stats.Failed = int(failed.Load())
		stats.Duration = s.now().Sub(start)
		metrics.RecordSweep(string(sweep), stats.Duration, stats.Refreshed, stats.Skipped, stats.Failed, err)

		ev := log.Info()
		if err != nil {
			ev = log.Warn().Err(err)
		}
		ev.Int("pages", stats.Pages).
			Int("refreshed", stats.Refreshed).
			Int("skipped", stats.Skipped).
			Int("failed", stats.Failed).
			Dur("duration", stats.Duration).
			Msg("sweep finished")
	}()

	var after int64
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		ids, err := s.listPage(ctx, list, after)
		if err != nil {
			return stats, fmt.Errorf("list users after %d: %w", after, err)
		}
		if len(ids) == 0 {
			return stats, nil
		}
		stats.Pages++

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.Concurrency)
		for _, id := range ids {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				switch s.refreshOne(gctx, log, stats.Cycle, id) {
				case outcomeRefreshed:
					refreshed.Add(1)
				case outcomeSkipped:
					skipped.Add(1)
				case outcomeFailed:
					failed.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // workers never return errors

		after = ids[len(ids)-1]
		if len(ids) < s.cfg.PageSize {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			return stats, nil
		}
	}
}

func (s *Sweeper) listPage(ctx context.Context, list listFunc, after int64) ([]int64, error) {
	if s.listTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.listTimeout)
		defer cancel()
	}
	return list(ctx, after, s.cfg.PageSize)
}

type outcome int

const (
	outcomeRefreshed outcome = iota
	outcomeSkipped
	outcomeFailed
)

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (s *Sweeper) refreshOne(ctx context.Context, log zerolog.Logger, cycle string, userID int64) outcome {
	if ctx.Err() != nil {
		return outcomeSkipped
	}
	if cycle != "" && s.checkpoints != nil {
		done, err := s.checkpoints.Done(ctx, cycle, userID)
		if err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("checkpoint lookup failed")
		} else if done {
			return outcomeSkipped
		}
	}

	if _, err := s.refresher.RefreshUser(ctx, userID); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return outcomeSkipped
		}
		log.Warn().Err(err).Int64("user_id", userID).Str("error_type", metrics.ErrorType(err)).Msg("user refresh failed")
		return outcomeFailed
	}

	if cycle != "" && s.checkpoints != nil {
		if err := s.checkpoints.Mark(ctx, cycle, userID); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("checkpoint write failed")
		}
	}
	return outcomeRefreshed
}
