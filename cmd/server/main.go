// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/tastegraph/internal/api"
	"github.com/tomtom215/tastegraph/internal/app"
	"github.com/tomtom215/tastegraph/internal/config"
	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/supervisor"
	"github.com/tomtom215/tastegraph/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Default logger until the configured one exists
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.Logging)
	err = run(cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
	}
	_ = logging.Close() //nolint:errcheck // nothing left to report to
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logging.Info().
		Str("version", app.Version).
		Str("db_path", cfg.Database.Path).
		Str("upstream_mode", cfg.Upstream.Mode).
		Str("lock_backend", cfg.Lock.Backend).
		Str("events_backend", cfg.Events.Backend).
		Msg("Starting Tastegraph with supervisor tree")

	// SIGINT/SIGTERM cancel everything below
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logging.Logger())
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing application resources")
		}
	}()

	handler, err := api.NewHandler(api.HandlerDeps{
		Service: a.Service,
		Sweeps:  a.Scheduler,
		Health:  a.DB,
		Version: app.Version,
	})
	if err != nil {
		return fmt.Errorf("create API handler: %w", err)
	}
	if cfg.Server.AdminToken == "" {
		logging.Warn().Msg("ADMIN_TOKEN is not set; admin routes are disabled")
	}
	if cfg.Server.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFromServer(&cfg.Server))
	router := api.NewRouter(handler, mw)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Bridge zerolog to slog for sutureslog
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout + supervisor.DefaultTreeConfig().ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddBatchService(services.NewSchedulerService(a.Scheduler, logging.Logger()))
	full, active := a.Scheduler.Next(time.Now())
	logging.Info().
		Time("next_full_sweep", full).
		Time("next_active_sweep", active).
		Msg("Scheduler service added")

	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout, logging.Logger()))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// The channel delivers exactly one value when the root supervisor stops.
	var runErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("supervisor tree: %w", err)
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport() //nolint:errcheck // report is best effort after shutdown
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	if runErr == nil {
		logging.Info().Msg("Tastegraph stopped gracefully")
	}
	return runErr
}
