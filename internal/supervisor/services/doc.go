// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package services adapts Tastegraph components to suture.Service so the
// supervisor tree can start, restart and stop them.
//
//   - HTTPServerService: runs the API server and shuts it down gracefully
//   - SchedulerService: runs the cron-driven sweeps and cleanup
//
// Each wrapper returns ctx.Err() on a requested shutdown so suture does not
// treat the stop as a failure, and a wrapped error when the component dies on
// its own so suture restarts it.
package services
