// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Runner is a blocking component that runs until its context is canceled.
// *scheduler.Scheduler satisfies it.
type Runner interface {
	Run(ctx context.Context) error
}

// SchedulerService supervises the sweep scheduler.
type SchedulerService struct {
	runner Runner
	logger zerolog.Logger
}

// NewSchedulerService wraps runner.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSchedulerService(runner Runner, logger zerolog.Logger) *SchedulerService {
	return &SchedulerService{
		runner: runner,
		logger: logger.With().Str("service", "scheduler").Logger(),
	}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	s.logger.Info().Msg("scheduler service starting")
	err := s.runner.Run(ctx)
	if ctx.Err() != nil {
		s.logger.Info().Msg("scheduler service stopped")
		return ctx.Err()
	}
	if err == nil {
		err = errors.New("returned without cancellation")
	}
	return fmt.Errorf("scheduler: %w", err)
}

// String implements fmt.Stringer.
func (s *SchedulerService) String() string {
	return "scheduler"
}
