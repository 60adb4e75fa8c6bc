// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package app builds the component graph shared by the server and the admin
// CLI: storage, upstream collaborators, the engine, the service contract and
// the batch scheduler.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tastegraph/internal/config"
	"github.com/tomtom215/tastegraph/internal/database"
	"github.com/tomtom215/tastegraph/internal/events"
	"github.com/tomtom215/tastegraph/internal/lock"
	"github.com/tomtom215/tastegraph/internal/metrics"
	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/recommend/algorithms"
	"github.com/tomtom215/tastegraph/internal/recommend/compatibility"
	"github.com/tomtom215/tastegraph/internal/recommend/preference"
	"github.com/tomtom215/tastegraph/internal/recommend/reranking"
	"github.com/tomtom215/tastegraph/internal/recommend/service"
	"github.com/tomtom215/tastegraph/internal/recommend/storage"
	"github.com/tomtom215/tastegraph/internal/scheduler"
	"github.com/tomtom215/tastegraph/internal/upstream"
)

// Version is the build version, set with
// -ldflags "-X github.com/tomtom215/tastegraph/internal/app.Version=...".
var Version = "dev"

// App holds the wired components. Close releases them in reverse order.
type App struct {
	Config        *config.Config
	DB            *database.DB
	Collaborators *upstream.Collaborators
	Engine        *recommend.Engine
	Service       *service.Service
	Events        *events.Bus
	Locker        lock.Locker
	Checkpoints   storage.Checkpoints
	Sweeper       *scheduler.Sweeper
	Scheduler     *scheduler.Scheduler

	closers []func() error
	logger  zerolog.Logger
}

// Build wires every component from cfg. On error, whatever was already
// opened is closed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger.With().Str("component", "app").Logger()}
	steps := []func() error{
		a.openStorage,
		func() error { return a.buildEngine(logger) },
		func() error { return a.buildService(ctx, logger) },
		func() error { return a.buildScheduler(logger) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			if cerr := a.Close(); cerr != nil {
				a.logger.Warn().Err(cerr).Msg("cleanup after failed build")
			}
			return nil, err
		}
	}
	return a, nil
}

func (a *App) openStorage() error {
	db, err := database.New(&a.Config.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)
	a.logger.Info().Str("path", a.Config.Database.Path).Msg("database ready")

	collab, err := upstream.New(&a.Config.Upstream, a.logger)
	if err != nil {
		return fmt.Errorf("build upstream collaborators: %w", err)
	}
	a.Collaborators = collab
	a.logger.Info().Str("mode", a.Config.Upstream.Mode).Msg("upstream collaborators ready")
	return nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (a *App) buildEngine(logger zerolog.Logger) error {
	rc := &a.Config.Recommend
	engine, err := recommend.NewEngine(rc, recommend.EngineDeps{
		Store:        a.DB,
		Interactions: a.Collaborators.Interactions,
		Catalog:      a.Collaborators.Catalog,
		Groups:       a.Collaborators.Groups,
		Aggregator:   compatibility.NewScorer(rc.Weights),
	}, logger)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	engine.SetObserver(metrics.RecordSource)

	sources := algorithms.Defaults(rc, algorithms.Deps{
		Interactions: a.Collaborators.Interactions,
		Catalog:      a.Collaborators.Catalog,
		Groups:       a.Collaborators.Groups,
		Profiles:     a.DB,
		Scorer:       compatibility.NewScorer(rc.Weights),
	})
	for _, src := range sources {
		engine.RegisterSource(src)
	}
	for _, rr := range reranking.FromConfig(rc) {
		engine.RegisterReranker(rr)
	}
	a.Engine = engine
	a.logger.Info().Int("sources", len(sources)).Msg("recommendation engine ready")
	return nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (a *App) buildService(ctx context.Context, logger zerolog.Logger) error {
	bus, err := events.New(a.Config.Events, logger)
	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}
	a.Events = bus
	a.closers = append(a.closers, bus.Close)

	switch a.Config.Lock.Backend {
	case config.LockBackendRedis:
		locker, err := lock.NewRedisLocker(ctx, a.Config.Lock.Redis, logger)
		if err != nil {
			return fmt.Errorf("create redis locker: %w", err)
		}
		a.Locker = locker
		a.closers = append(a.closers, locker.Close)
	default:
		a.Locker = lock.NewKeyedMutex()
	}

	rc := &a.Config.Recommend
	svc, err := service.New(rc, service.Deps{
		Engine:     a.Engine,
		Calculator: preference.NewCalculator(rc, a.Collaborators.Interactions, a.Collaborators.Catalog, a.DB, logger),
		Scorer:     compatibility.NewScorer(rc.Weights),
		Store:      a.DB,
		Groups:     a.Collaborators.Groups,
		Catalog:    a.Collaborators.Catalog,
		Locker:     a.Locker,
		Events:     bus,
	}, logger)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	a.Service = svc
	return nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (a *App) buildScheduler(logger zerolog.Logger) error {
	rc := &a.Config.Recommend
	cp, err := storage.OpenBadgerCheckpoints(a.Config.Checkpoint.Path, rc.Schedule.CheckpointTTL)
	if err != nil {
		return err
	}
	a.Checkpoints = cp
	a.closers = append(a.closers, cp.Close)

	a.Sweeper = scheduler.NewSweeper(a.Collaborators.Interactions, a.Service, cp, rc, logger)
	sched, err := scheduler.New(a.Sweeper, a.Service, rc.Schedule, logger)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	a.Scheduler = sched
	return nil
}

// Close releases every opened resource, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
