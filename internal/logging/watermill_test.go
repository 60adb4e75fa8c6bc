// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

func TestWatermillAdapter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	adapter := NewWatermillAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))

	adapter.With(watermill.LogFields{"topic": "recommendation.feedback"}).
		Error("publish failed", errors.New("nats down"), watermill.LogFields{"attempt": 2})
	adapter.Info("subscriber started", nil)
	adapter.Trace("message acked", nil)

	out := buf.String()
	for _, want := range []string{
		`"component":"events"`,
		`"topic":"recommendation.feedback"`,
		`"attempt":2`,
		`"error":"nats down"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
	if strings.Contains(out, "message acked") || strings.Contains(out, `"level":"info"`) {
		t.Errorf("watermill info/trace leaked above debug: %s", out)
	}
}
