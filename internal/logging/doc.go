// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package logging provides centralized zerolog-based structured logging.
//
// A global logger is configured once from config.Config.Logging and shared by
// every component. Components derive child loggers with a component field;
// request and sweep code attaches correlation, request and user ids through
// the context helpers.
//
// # Quick Start
//
//	logging.Init(cfg.Logging)
//	defer logging.Close()
//
//	logging.Info().Str("addr", addr).Msg("HTTP server listening")
//	logging.Ctx(ctx).Warn().Err(err).Msg("user refresh failed")
//
// # Outputs
//
//   - json (default) or console on Config.Output (stderr)
//   - optional rotated JSON file through lumberjack when File.Path is set
//
// # Adapters
//
//   - SlogHandler: slog.Handler for sutureslog in the supervisor tree
//   - WatermillAdapter: watermill.LoggerAdapter for the event bus
//   - CronAdapter: cron.Logger for the sweep scheduler
//
// Always terminate log chains with Msg or Send:
//
//	logging.Info().Str("sweep", "full").Msg("sweep finished") // correct
//	logging.Info().Str("sweep", "full")                       // never emitted
package logging
