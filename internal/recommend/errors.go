// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package recommend

import (
	"context"
	"errors"
	"fmt"
)

// Error taxonomy. Callers test with errors.Is; every error returned by this
// module wraps exactly one of these.
var (
	// ErrInvalidArgument marks input rejected synchronously (malformed rating,
	// unknown reason code or kind). Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks an unknown, foreign or purged recommendation id, or a
	// missing profile.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable marks a collaborator timeout or failure. Batch callers
	// skip the affected user and rely on the next sweep.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrConflict marks a duplicate active recommendation detected by the
	// storage constraint. Recovered locally as a no-op.
	ErrConflict = errors.New("active recommendation already exists")

	// ErrIllegalTransition marks a lifecycle transition out of a terminal state.
	ErrIllegalTransition = errors.New("illegal state transition")
)

// ErrExpired is returned for operations on a recommendation whose validity
// window has passed. It is a NotFound condition.
var ErrExpired = fmt.Errorf("%w: recommendation expired", ErrNotFound)

// Unavailable wraps a collaborator error as ErrUnavailable, keeping the cause.
// Context deadline errors are folded in as well.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: timed out", op, ErrUnavailable)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
