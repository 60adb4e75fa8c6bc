// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package recommend

import (
	"fmt"
	"time"
)

// Status is the derived lifecycle state of a recommendation.
//
//	CREATED -> VIEWED -> {DISMISSED | ACTED_UPON}
//	CREATED -> DISMISSED
//	any non-terminal -> EXPIRED once now >= ExpiresAt
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusViewed    Status = "VIEWED"
	StatusDismissed Status = "DISMISSED"
	StatusActedUpon Status = "ACTED_UPON"
	StatusExpired   Status = "EXPIRED"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusDismissed || s == StatusActedUpon
}

// Status derives the lifecycle state from the flags and the clock.
func (r *Recommendation) Status(now time.Time) Status {
	switch {
	case r.Dismissed:
		return StatusDismissed
	case r.ActedUpon:
		return StatusActedUpon
	case r.Expired(now):
		return StatusExpired
	case r.Viewed:
		return StatusViewed
	default:
		return StatusCreated
	}
}

// Expired reports whether the validity window has passed.
func (r *Recommendation) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Actionable reports whether the recommendation may still be shown and acted on.
func (r *Recommendation) Actionable(now time.Time) bool {
	return !r.Dismissed && !r.ActedUpon && !r.Expired(now)
}

// Active reports whether the row occupies its uniqueness key. Acted-upon rows
// stay active until they expire so the same candidate is not suggested again.
func (r *Recommendation) Active(now time.Time) bool {
	return !r.Dismissed && !r.Expired(now)
}

// Transition moves the recommendation to the target state. It returns false
// when the row was already in that state. Viewing a terminal row is a no-op.
func (r *Recommendation) Transition(to Status, now time.Time) (bool, error) {
	if r.Expired(now) {
		return false, ErrExpired
	}
	current := r.Status(now)
	if current == to {
		return false, nil
	}

	switch to {
	case StatusViewed:
		if current.Terminal() {
			return false, nil
		}
		r.Viewed = true
	case StatusDismissed:
		if current == StatusActedUpon {
			return false, fmt.Errorf("%w: cannot dismiss an acted-upon recommendation", ErrIllegalTransition)
		}
		r.Dismissed = true
		r.Viewed = true
	case StatusActedUpon:
		if current == StatusDismissed {
			return false, fmt.Errorf("%w: cannot act on a dismissed recommendation", ErrIllegalTransition)
		}
		r.ActedUpon = true
		r.Viewed = true
	default:
		return false, fmt.Errorf("%w: %s is not a transition target", ErrInvalidArgument, to)
	}

	r.UpdatedAt = now
	return true, nil
}

// ValidateRating checks that an explicit rating lies in [1,5].
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5, got %d", ErrInvalidArgument, rating)
	}
	return nil
}

// ApplyRating stores the latest explicit rating. Ratings are accepted in any
// non-expired state.
func (r *Recommendation) ApplyRating(rating int, now time.Time) error {
	if err := ValidateRating(rating); err != nil {
		return err
	}
	if r.Expired(now) {
		return ErrExpired
	}
	r.UserFeedback = &rating
	r.UpdatedAt = now
	return nil
}
