// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func openTestCheckpoints(t *testing.T) *BadgerCheckpoints {
	t.Helper()
	cp, err := OpenBadgerCheckpoints("", time.Hour)
	if err != nil {
		t.Fatalf("OpenBadgerCheckpoints() error: %v", err)
	}
	t.Cleanup(func() { _ = cp.Close() })
	return cp
}

func TestBadgerCheckpoints_MarkAndDone(t *testing.T) {
	ctx := context.Background()
	cp := openTestCheckpoints(t)

	done, err := cp.Done(ctx, "full-2026-04-01", 42)
	if err != nil || done {
		t.Fatalf("Done() before Mark = %v, %v", done, err)
	}

	if err := cp.Mark(ctx, "full-2026-04-01", 42); err != nil {
		t.Fatalf("Mark() error: %v", err)
	}

	done, err = cp.Done(ctx, "full-2026-04-01", 42)
	if err != nil || !done {
		t.Errorf("Done() after Mark = %v, %v, want true", done, err)
	}

	done, _ = cp.Done(ctx, "full-2026-04-02", 42)
	if done {
		t.Error("checkpoints must be scoped to their cycle")
	}
}

func TestBadgerCheckpoints_Count(t *testing.T) {
	ctx := context.Background()
	cp := openTestCheckpoints(t)

	for _, id := range []int64{1, 2, 3} {
		if err := cp.Mark(ctx, "c1", id); err != nil {
			t.Fatal(err)
		}
	}
	_ = cp.Mark(ctx, "c10", 4)

	n, err := cp.Count(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}

func TestBadgerCheckpoints_Closed(t *testing.T) {
	ctx := context.Background()
	cp, err := OpenBadgerCheckpoints("", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if err := cp.Close(); err != nil {
		t.Fatal(err)
	}
	if err := cp.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
	if err := cp.Mark(ctx, "c", 1); !errors.Is(err, ErrCheckpointsClosed) {
		t.Errorf("Mark() after Close = %v, want ErrCheckpointsClosed", err)
	}
}
