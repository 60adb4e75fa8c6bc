// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/recommend"
)

// Cleaner purges expired recommendations. Implemented by service.Service.
type Cleaner interface {
	Cleanup(ctx context.Context, now time.Time) (int, error)
}

// Scheduler triggers the sweeps and the cleanup on their cadences.
type Scheduler struct {
	sweeper *Sweeper
	cleaner Cleaner
	full    cron.Schedule
	active  cron.Schedule
	cleanup time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

// New parses the cadences of cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(sweeper *Sweeper, cleaner Cleaner, cfg recommend.ScheduleConfig, logger zerolog.Logger) (*Scheduler, error) {
	full, err := parseSpec(cfg.FullSweepCron)
	if err != nil {
		return nil, fmt.Errorf("parse full sweep cron %q: %w", cfg.FullSweepCron, err)
	}
	active, err := parseSpec(cfg.ActiveSweepCron)
	if err != nil {
		return nil, fmt.Errorf("parse active sweep cron %q: %w", cfg.ActiveSweepCron, err)
	}
	if cfg.CleanupInterval <= 0 {
		return nil, fmt.Errorf("cleanup interval must be positive, got %v", cfg.CleanupInterval)
	}
	return &Scheduler{
		sweeper: sweeper,
		cleaner: cleaner,
		full:    full,
		active:  active,
		cleanup: cfg.CleanupInterval,
		logger:  logger.With().Str("component", "scheduler").Logger(),
		now:     time.Now,
	}, nil
}

// parseSpec parses a standard cron expression. Expressions are evaluated in
// UTC unless they carry a CRON_TZ= or TZ= prefix.
func parseSpec(spec string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, err
	}
	if ss, ok := sched.(*cron.SpecSchedule); ok && !strings.HasPrefix(spec, "CRON_TZ=") && !strings.HasPrefix(spec, "TZ=") {
		ss.Location = time.UTC
	}
	return sched, nil
}

// Next returns the next activation of each sweep after t.
func (s *Scheduler) Next(t time.Time) (full, active time.Time) {
	return s.full.Next(t), s.active.Next(t)
}

// Run schedules the jobs and blocks until ctx is canceled, then waits for
// running jobs to observe the cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	adapter := logging.NewCronAdapter(s.logger)
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)
	c.Schedule(s.full, cron.FuncJob(func() { s.runSweep(ctx, SweepFull) }))
	c.Schedule(s.active, cron.FuncJob(func() { s.runSweep(ctx, SweepActive) }))
	c.Schedule(cron.Every(s.cleanup), cron.FuncJob(func() { s.runCleanup(ctx) }))

	full, active := s.Next(s.now())
	s.logger.Info().
		Time("next_full_sweep", full).
		Time("next_active_sweep", active).
		Dur("cleanup_interval", s.cleanup).
		Msg("scheduler started")

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
	return ctx.Err()
}

// RunSweep runs a sweep immediately.
func (s *Scheduler) RunSweep(ctx context.Context, sweep Sweep) (*SweepStats, error) {
	return s.sweeper.Run(ctx, sweep)
}

// RunCleanup purges expired recommendations immediately.
func (s *Scheduler) RunCleanup(ctx context.Context) (int, error) {
	return s.cleaner.Cleanup(ctx, s.now())
}

func (s *Scheduler) runSweep(ctx context.Context, sweep Sweep) {
	if ctx.Err() != nil {
		return
	}
	// Errors are logged by the sweeper.
	_, _ = s.sweeper.Run(ctx, sweep) //nolint:errcheck // logged and recorded in metrics
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.RunCleanup(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("cleanup failed")
	}
}
