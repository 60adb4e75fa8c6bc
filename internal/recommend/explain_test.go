// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package recommend

import (
	"errors"
	"testing"
)

func TestExplain(t *testing.T) {
	tests := []struct {
		name   string
		reason ReasonCode
		source string
		want   string
	}{
		{"genre with source", ReasonGenreMatch, "Die Hard", "Because you enjoyed Die Hard"},
		{"genre without source", ReasonGenreMatch, "", "Matches genres you enjoy"},
		{"similar content", ReasonSimilarContent, "Dune", "Similar to Dune"},
		{"group activity", ReasonGroupActivity, "Film Club", "Popular in Film Club"},
		{"blank source falls back", ReasonTrending, "   ", "Popular right now"},
		{"unknown reason", ReasonCode("MOOD"), "X", DefaultExplanation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Explain(tt.reason, tt.source); got != tt.want {
				t.Errorf("Explain(%s, %q) = %q, want %q", tt.reason, tt.source, got, tt.want)
			}
		})
	}
}

func TestExplain_EveryReasonHasTemplate(t *testing.T) {
	for _, rc := range ReasonCodes {
		if Explain(rc, "") == DefaultExplanation {
			t.Errorf("reason %s has no template", rc)
		}
	}
}

func TestUnavailable(t *testing.T) {
	if Unavailable("op", nil) != nil {
		t.Error("Unavailable(nil) must be nil")
	}

	cause := errors.New("connection refused")
	err := Unavailable("load history", cause)
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, cause) {
		t.Errorf("Unavailable() = %v, want ErrUnavailable wrapping the cause", err)
	}

	wrapped := Unavailable("outer", err)
	if !errors.Is(wrapped, ErrUnavailable) {
		t.Errorf("rewrapping lost ErrUnavailable: %v", wrapped)
	}
}
