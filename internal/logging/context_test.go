// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestGeneratedIDs(t *testing.T) {
	t.Parallel()

	if a, b := GenerateCorrelationID(), GenerateCorrelationID(); len(a) != 8 || a == b {
		t.Errorf("correlation ids %q, %q", a, b)
	}
	if a, b := GenerateRequestID(), GenerateRequestID(); len(a) != 36 || a == b {
		t.Errorf("request ids %q, %q", a, b)
	}
}

func TestContextValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" || RequestIDFromContext(ctx) != "" {
		t.Fatal("empty context returned ids")
	}
	if _, ok := UserIDFromContext(ctx); ok {
		t.Fatal("empty context returned a user id")
	}

	ctx = ContextWithCorrelationID(ctx, "abc12345")
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithUserID(ctx, 42)

	if got := CorrelationIDFromContext(ctx); got != "abc12345" {
		t.Errorf("correlation id = %q", got)
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("request id = %q", got)
	}
	if got, ok := UserIDFromContext(ctx); !ok || got != 42 {
		t.Errorf("user id = %d, %v", got, ok)
	}
	if CorrelationIDFromContext(ContextWithNewCorrelationID(context.Background())) == "" {
		t.Error("ContextWithNewCorrelationID() did not set an id")
	}
}

func TestCtx_AddsFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := ContextWithLogger(context.Background(), base)
	ctx = ContextWithCorrelationID(ctx, "sweep001")
	ctx = ContextWithUserID(ctx, 9)

	Ctx(ctx).Info().Msg("refresh finished")

	out := buf.String()
	for _, want := range []string{`"correlation_id":"sweep001"`, `"user_id":9`, `"message":"refresh finished"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
	if strings.Contains(out, "request_id") {
		t.Errorf("output %s has request_id without one in context", out)
	}
}

func TestCtxWith_ExtraFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), zerolog.New(&buf))
	ctx = ContextWithRequestID(ctx, "req-9")

	logger := CtxWith(ctx).Str("kind", "CONTENT").Logger()
	logger.Info().Msg("dismissed")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-9"`) || !strings.Contains(out, `"kind":"CONTENT"`) {
		t.Errorf("output = %s", out)
	}
}

func TestLoggerFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	got := LoggerFromContext(context.Background())
	if got.GetLevel() != Logger().GetLevel() {
		t.Errorf("LoggerFromContext() level = %v, want global %v", got.GetLevel(), Logger().GetLevel())
	}
}
