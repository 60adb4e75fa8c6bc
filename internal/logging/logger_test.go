// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// restoreGlobal resets the global logger after tests that call Init.
func restoreGlobal(t *testing.T) {
	t.Helper()
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		_ = Close()
		Init(DefaultConfig())
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" || cfg.Format != "json" {
		t.Errorf("DefaultConfig() level/format = %s/%s", cfg.Level, cfg.Format)
	}
	if cfg.Caller || !cfg.Timestamp {
		t.Errorf("DefaultConfig() caller=%v timestamp=%v", cfg.Caller, cfg.Timestamp)
	}
	if cfg.File.Path != "" || cfg.File.MaxSizeMB != 100 {
		t.Errorf("DefaultConfig() file = %+v", cfg.File)
	}
}

func TestInit_JSON(t *testing.T) {
	restoreGlobal(t)

	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})

	Debug().Str("sweep", "full").Msg("sweep started")
	out := buf.String()
	for _, want := range []string{`"level":"debug"`, `"sweep":"full"`, `"message":"sweep started"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestInit_LevelFilters(t *testing.T) {
	restoreGlobal(t)

	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})

	Info().Msg("hidden")
	Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestInit_RotatedFile(t *testing.T) {
	restoreGlobal(t)

	path := filepath.Join(t.TempDir(), "tastegraph.log")
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = &buf
	cfg.File.Path = path
	Init(cfg)

	Info().Int64("user_id", 7).Msg("refreshed")
	if err := Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"user_id":7`) {
		t.Errorf("log file = %s", data)
	}
	if !strings.Contains(buf.String(), "refreshed") {
		t.Errorf("primary output missing message: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	for _, ok := range []string{"", "info", "WARN", "disabled"} {
		if !ValidLevel(ok) {
			t.Errorf("ValidLevel(%q) = false", ok)
		}
	}
	for _, bad := range []string{"verbose", "critical"} {
		if ValidLevel(bad) {
			t.Errorf("ValidLevel(%q) = true", bad)
		}
	}
}

func TestSetLogger(t *testing.T) {
	restoreGlobal(t)

	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	Err(os.ErrNotExist).Msg("missing")

	if !strings.Contains(buf.String(), `"error":"file does not exist"`) {
		t.Errorf("output = %s", buf.String())
	}
}
