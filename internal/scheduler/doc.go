// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

/*
Package scheduler runs the batch refresh of user profiles and stored
recommendations.

Three jobs run on a robfig/cron scheduler:

  - full sweep (full_sweep_cron, default "0 3 * * *"): every user
  - active sweep (active_sweep_cron, default "0 * * * *"): users with an
    interaction within active_lookback_hours
  - cleanup (every cleanup_interval): purge expired recommendations

A sweep pages through user ids with keyset pagination and refreshes each
page on an errgroup limited to the configured concurrency. Per-user errors
are logged and counted, never propagated. The full sweep records refreshed
users in a checkpoint store keyed by the sweep's UTC date, so a restarted
process resumes the day's sweep instead of starting over.

Overlapping runs of the same job are skipped (cron.SkipIfStillRunning). The
daily and hourly sweeps may overlap; the per-user lock in the service keeps
them from refreshing the same user concurrently.
*/
package scheduler
