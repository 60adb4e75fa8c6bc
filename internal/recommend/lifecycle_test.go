// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package recommend

import (
	"errors"
	"testing"
	"time"
)

var lifecycleNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func newLifecycleRec() *Recommendation {
	return &Recommendation{
		ID:        "rec-1",
		UserID:    1,
		Kind:      KindContent,
		CreatedAt: lifecycleNow,
		ExpiresAt: lifecycleNow.Add(14 * 24 * time.Hour),
	}
}

func TestRecommendation_Status(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *Recommendation)
		at    time.Time
		want  Status
	}{
		{"fresh", func(r *Recommendation) {}, lifecycleNow, StatusCreated},
		{"viewed", func(r *Recommendation) { r.Viewed = true }, lifecycleNow, StatusViewed},
		{"dismissed", func(r *Recommendation) { r.Dismissed, r.Viewed = true, true }, lifecycleNow, StatusDismissed},
		{"acted", func(r *Recommendation) { r.ActedUpon, r.Viewed = true, true }, lifecycleNow, StatusActedUpon},
		{"expired at boundary", func(r *Recommendation) {}, lifecycleNow.Add(14 * 24 * time.Hour), StatusExpired},
		{"viewed then expired", func(r *Recommendation) { r.Viewed = true }, lifecycleNow.Add(15 * 24 * time.Hour), StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newLifecycleRec()
			tt.setup(r)
			if got := r.Status(tt.at); got != tt.want {
				t.Errorf("Status() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRecommendation_Transition(t *testing.T) {
	tests := []struct {
		name        string
		steps       []Status
		wantErr     error
		wantChanged bool
		wantStatus  Status
	}{
		{"view", []Status{StatusViewed}, nil, true, StatusViewed},
		{"view twice is a no-op", []Status{StatusViewed, StatusViewed}, nil, false, StatusViewed},
		{"dismiss from created", []Status{StatusDismissed}, nil, true, StatusDismissed},
		{"act after view", []Status{StatusViewed, StatusActedUpon}, nil, true, StatusActedUpon},
		{"act twice is a no-op", []Status{StatusActedUpon, StatusActedUpon}, nil, false, StatusActedUpon},
		{"view after dismiss is a no-op", []Status{StatusDismissed, StatusViewed}, nil, false, StatusDismissed},
		{"act on dismissed", []Status{StatusDismissed, StatusActedUpon}, ErrIllegalTransition, false, StatusDismissed},
		{"dismiss acted", []Status{StatusActedUpon, StatusDismissed}, ErrIllegalTransition, false, StatusActedUpon},
		{"unknown target", []Status{StatusExpired}, ErrInvalidArgument, false, StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newLifecycleRec()
			var changed bool
			var err error
			for _, step := range tt.steps {
				changed, err = r.Transition(step, lifecycleNow)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Transition() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Transition() unexpected error: %v", err)
			}
			if changed != tt.wantChanged {
				t.Errorf("Transition() changed = %v, want %v", changed, tt.wantChanged)
			}
			if got := r.Status(lifecycleNow); got != tt.wantStatus {
				t.Errorf("Status() = %s, want %s", got, tt.wantStatus)
			}
			if r.Dismissed && r.ActedUpon {
				t.Error("Dismissed and ActedUpon both set")
			}
		})
	}
}

func TestRecommendation_ActingImpliesViewed(t *testing.T) {
	r := newLifecycleRec()
	if _, err := r.Transition(StatusActedUpon, lifecycleNow); err != nil {
		t.Fatalf("Transition() error: %v", err)
	}
	if !r.Viewed {
		t.Error("acting must set Viewed")
	}
	if !r.UpdatedAt.Equal(lifecycleNow) {
		t.Errorf("UpdatedAt = %v, want %v", r.UpdatedAt, lifecycleNow)
	}
}

func TestRecommendation_TransitionExpired(t *testing.T) {
	r := newLifecycleRec()
	_, err := r.Transition(StatusViewed, r.ExpiresAt)
	if !errors.Is(err, ErrExpired) || !errors.Is(err, ErrNotFound) {
		t.Errorf("Transition() on expired = %v, want ErrExpired wrapping ErrNotFound", err)
	}
}

func TestRecommendation_ApplyRating(t *testing.T) {
	tests := []struct {
		name    string
		rating  int
		at      time.Time
		wantErr error
	}{
		{"zero rejected", 0, lifecycleNow, ErrInvalidArgument},
		{"six rejected", 6, lifecycleNow, ErrInvalidArgument},
		{"one stored", 1, lifecycleNow, nil},
		{"five stored", 5, lifecycleNow, nil},
		{"expired", 4, lifecycleNow.Add(30 * 24 * time.Hour), ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newLifecycleRec()
			err := r.ApplyRating(tt.rating, tt.at)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ApplyRating() error = %v, want %v", err, tt.wantErr)
				}
				if r.UserFeedback != nil {
					t.Error("rejected rating must not be stored")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyRating() unexpected error: %v", err)
			}
			if r.UserFeedback == nil || *r.UserFeedback != tt.rating {
				t.Errorf("UserFeedback = %v, want %d", r.UserFeedback, tt.rating)
			}
		})
	}
}

func TestRecommendation_ActiveAndActionable(t *testing.T) {
	r := newLifecycleRec()
	if !r.Actionable(lifecycleNow) || !r.Active(lifecycleNow) {
		t.Fatal("fresh recommendation must be active and actionable")
	}

	r.ActedUpon = true
	if r.Actionable(lifecycleNow) {
		t.Error("acted-upon recommendation must not be actionable")
	}
	if !r.Active(lifecycleNow) {
		t.Error("acted-upon recommendation keeps its uniqueness key until expiry")
	}

	r.ActedUpon = false
	r.Dismissed = true
	if r.Active(lifecycleNow) {
		t.Error("dismissed recommendation must not be active")
	}
}
