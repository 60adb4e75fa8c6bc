// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package logging

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CronAdapter routes robfig/cron logging through zerolog. Cron logs every
// wake-up at info, so info is demoted to debug.
type CronAdapter struct {
	logger zerolog.Logger
}

var _ cron.Logger = (*CronAdapter)(nil)

// NewCronAdapter creates an adapter tagged with the scheduler component.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCronAdapter(logger zerolog.Logger) *CronAdapter {
	return &CronAdapter{logger: logger.With().Str("component", "cron").Logger()}
}

// Info implements cron.Logger.
func (a *CronAdapter) Info(msg string, keysAndValues ...interface{}) {
	withPairs(a.logger.Debug(), keysAndValues).Msg(msg)
}

// Error implements cron.Logger.
func (a *CronAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	withPairs(a.logger.Error().Err(err), keysAndValues).Msg(msg)
}

func withPairs(e *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		e = e.Interface(fmt.Sprint(kv[i]), kv[i+1])
	}
	return e
}
