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

	"github.com/rs/zerolog"
)

func TestCronAdapter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	adapter := NewCronAdapter(zerolog.New(&buf).Level(zerolog.InfoLevel))

	adapter.Info("wake", "now", "2026-03-01")
	adapter.Error(errors.New("job panicked"), "panic", "entry", 3, "dangling")

	out := buf.String()
	for _, want := range []string{
		`"component":"cron"`,
		`"entry":3`,
		`"error":"job panicked"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
	if strings.Contains(out, "wake") {
		t.Errorf("cron info leaked above debug: %s", out)
	}
	if strings.Contains(out, "dangling") {
		t.Errorf("odd trailing key should be dropped: %s", out)
	}
}
