// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package metrics

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// TestErrorType tests the error label mapping
func TestErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"expired before not found", recommend.ErrExpired, "expired"},
		{"wrapped not found", fmt.Errorf("get: %w", recommend.ErrNotFound), "not_found"},
		{"invalid argument", recommend.ErrInvalidArgument, "invalid_argument"},
		{"unavailable", recommend.Unavailable("history", errors.New("boom")), "unavailable"},
		{"conflict", recommend.ErrConflict, "conflict"},
		{"illegal", fmt.Errorf("%w: dismissed", recommend.ErrIllegalTransition), "illegal"},
		{"other", errors.New("disk full"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorType(tt.err); got != tt.want {
				t.Errorf("ErrorType() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestRecordGeneration tests result classification of generation runs
func TestRecordGeneration(t *testing.T) {
	before := map[string]float64{
		"ok":                testutil.ToFloat64(GenerationRuns.WithLabelValues("test_gen", "ok")),
		"error":             testutil.ToFloat64(GenerationRuns.WithLabelValues("test_gen", "error")),
		"insufficient_data": testutil.ToFloat64(GenerationRuns.WithLabelValues("test_gen", "insufficient_data")),
	}
	produced := testutil.ToFloat64(GenerationProduced.WithLabelValues("test_gen"))

	RecordGeneration("test_gen", 7, 10*time.Millisecond, nil)
	RecordGeneration("test_gen", 0, time.Millisecond, nil)
	RecordGeneration("test_gen", 0, time.Millisecond, errors.New("boom"))

	for result, was := range before {
		if got := testutil.ToFloat64(GenerationRuns.WithLabelValues("test_gen", result)); got != was+1 {
			t.Errorf("runs[%s] = %v, want %v", result, got, was+1)
		}
	}
	if got := testutil.ToFloat64(GenerationProduced.WithLabelValues("test_gen")); got != produced+7 {
		t.Errorf("produced = %v, want %v", got, produced+7)
	}
}

// TestRecordSource tests the source observer callback
func TestRecordSource(t *testing.T) {
	var observer recommend.SourceObserver = RecordSource

	failures := testutil.ToFloat64(SourceFailures.WithLabelValues("test_source"))
	candidates := testutil.ToFloat64(SourceCandidates.WithLabelValues("test_source"))

	observer("test_source", recommend.ModePersonal, 5*time.Millisecond, 12, nil)
	observer("test_source", recommend.ModeRealtime, time.Second, 0, errors.New("timeout"))

	if got := testutil.ToFloat64(SourceCandidates.WithLabelValues("test_source")); got != candidates+12 {
		t.Errorf("candidates = %v, want %v", got, candidates+12)
	}
	if got := testutil.ToFloat64(SourceFailures.WithLabelValues("test_source")); got != failures+1 {
		t.Errorf("failures = %v, want %v", got, failures+1)
	}
}

// TestRecordTransition tests lifecycle result labels
func TestRecordTransition(t *testing.T) {
	tests := []struct {
		name    string
		changed bool
		err     error
		result  string
	}{
		{"changed", true, nil, "ok"},
		{"repeat", false, nil, "noop"},
		{"expired", false, recommend.ErrExpired, "expired"},
		{"illegal", false, recommend.ErrIllegalTransition, "illegal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := LifecycleTransitions.WithLabelValues("test_dismiss", "CONTENT", tt.result)
			before := testutil.ToFloat64(c)
			RecordTransition("test_dismiss", recommend.KindContent, tt.changed, tt.err)
			if got := testutil.ToFloat64(c); got != before+1 {
				t.Errorf("transitions[%s] = %v, want %v", tt.result, got, before+1)
			}
		})
	}
}

// TestRecordFeedback tests feedback labels
func TestRecordFeedback(t *testing.T) {
	fb := &recommend.FeedbackRecord{
		Action:         recommend.ActionRated,
		Classification: recommend.FeedbackPositive,
		ReasonCode:     recommend.ReasonExploration,
	}
	c := FeedbackRecorded.WithLabelValues("RATED", "POSITIVE", "EXPLORATION")
	before := testutil.ToFloat64(c)
	RecordFeedback(fb)
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("feedback = %v, want %v", got, before+1)
	}
}

// TestRecordSweep tests per-outcome user counters
func TestRecordSweep(t *testing.T) {
	refreshed := testutil.ToFloat64(SweepUsers.WithLabelValues("test_sweep", "refreshed"))
	failed := testutil.ToFloat64(SweepUsers.WithLabelValues("test_sweep", "failed"))
	errs := testutil.ToFloat64(SweepRuns.WithLabelValues("test_sweep", "error"))

	RecordSweep("test_sweep", time.Minute, 10, 3, 2, nil)
	RecordSweep("test_sweep", time.Second, 1, 0, 0, errors.New("cancelled"))

	if got := testutil.ToFloat64(SweepUsers.WithLabelValues("test_sweep", "refreshed")); got != refreshed+11 {
		t.Errorf("refreshed = %v, want %v", got, refreshed+11)
	}
	if got := testutil.ToFloat64(SweepUsers.WithLabelValues("test_sweep", "failed")); got != failed+2 {
		t.Errorf("failed = %v, want %v", got, failed+2)
	}
	if got := testutil.ToFloat64(SweepRuns.WithLabelValues("test_sweep", "error")); got != errs+1 {
		t.Errorf("error runs = %v, want %v", got, errs+1)
	}
	if testutil.ToFloat64(SweepLastSuccess.WithLabelValues("test_sweep")) == 0 {
		t.Error("last success timestamp not set")
	}
}

// TestRecordCacheLookup tests hit/miss counters
func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("test_cache"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("test_cache"))

	RecordCacheLookup("test_cache", true)
	RecordCacheLookup("test_cache", true)
	RecordCacheLookup("test_cache", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("test_cache")); got != hits+2 {
		t.Errorf("hits = %v, want %v", got, hits+2)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("test_cache")); got != misses+1 {
		t.Errorf("misses = %v, want %v", got, misses+1)
	}
}

// TestConcurrentRecording verifies the recorders are safe for concurrent use
func TestConcurrentRecording(t *testing.T) {
	c := EventsPublished.WithLabelValues("test.concurrent", "ok")
	before := testutil.ToFloat64(c)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordEventPublish("test.concurrent", nil)
			RecordAPIRequest("GET", "/test", "200", time.Millisecond)
			RecordDBQuery("test_op", time.Millisecond, nil)
			TrackActiveRequest(true)
			TrackActiveRequest(false)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(c); got != before+50 {
		t.Errorf("events = %v, want %v", got, before+50)
	}
}

// TestMetricGathering tests that metrics can be gathered using testutil
func TestMetricGathering(t *testing.T) {
	RecordDBQuery("gather", time.Millisecond, errors.New("x"))
	RecordUpstream("catalog", "metadata", "ok", time.Millisecond)
	RecordRefresh(time.Millisecond, nil)

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("GatherAndLint() error = %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s: %s", p.Metric, p.Text)
	}
}
