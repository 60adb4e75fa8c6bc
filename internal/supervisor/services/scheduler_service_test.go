// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

type runnerFunc func(ctx context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }

var _ suture.Service = (*SchedulerService)(nil)

func TestSchedulerService_Serve(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		run     func(ctx context.Context) error
		cancel  bool
		wantErr error
	}{
		{
			name:    "stops on cancel",
			run:     func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() },
			cancel:  true,
			wantErr: context.Canceled,
		},
		{
			name:    "runner failure",
			run:     func(context.Context) error { return boom },
			wantErr: boom,
		},
		{
			name: "early return is a failure",
			run:  func(context.Context) error { return nil },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if tt.cancel {
				go func() {
					time.Sleep(20 * time.Millisecond)
					cancel()
				}()
			}

			svc := NewSchedulerService(runnerFunc(tt.run), zerolog.Nop())
			err := svc.Serve(ctx)
			if err == nil {
				t.Fatal("Serve() returned nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Serve() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchedulerService_String(t *testing.T) {
	if got := NewSchedulerService(runnerFunc(nil), zerolog.Nop()).String(); got != "scheduler" {
		t.Errorf("String() = %q", got)
	}
}
