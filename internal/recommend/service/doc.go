// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package service is the recommendation service contract shared by the HTTP
// API, the batch scheduler and the admin CLI.
//
// Online reads return pre-computed actionable rows only; trending and
// "because you are viewing" suggestions are computed on demand and never
// stored. Lifecycle operations (view, dismiss, act, rate) persist the status
// change, append a feedback record, nudge the preference profile for content
// feedback and publish an event. RefreshUser is the unit of batch work: it
// recalculates the profile and regenerates personal, group and per-group
// content recommendations under a per-user lock.
//
// Errors wrap the recommend taxonomy (ErrInvalidArgument, ErrNotFound,
// ErrUnavailable, ErrIllegalTransition). Event publishing and profile nudges
// are best effort and never fail a mutation that was already persisted.
package service
