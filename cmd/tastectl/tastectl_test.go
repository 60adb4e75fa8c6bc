// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tastegraph/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

// writeConfig generates a fixture and a config file pointing an in-memory
// database at it.
func writeConfig(t *testing.T) string {
	t.Helper()
	t.Setenv(config.ConfigPathEnvVar, "")
	dir := t.TempDir()
	fixture := filepath.Join(dir, "fixture.json")

	if _, err := execute(t, "fixture", "generate",
		"--users", "8", "--media", "60", "--groups", "2", "--seed", "11", "--out", fixture); err != nil {
		t.Fatalf("fixture generate error = %v", err)
	}

	yaml := `
database:
  path: ":memory:"
  skip_indexes: true
checkpoint:
  path: ""
upstream:
  mode: fixture
  fixture_path: ` + fixture + `
logging:
  level: error
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigValidate(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := execute(t, "config", "validate", "--config", cfgPath)
	if err != nil {
		t.Fatalf("config validate error = %v", err)
	}
	if !strings.Contains(out, "configuration valid") || !strings.Contains(out, ":memory:") {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, "config", "validate", "--config", cfgPath, "-o", "json")
	if err != nil {
		t.Fatalf("config validate json error = %v", err)
	}
	var summary map[string]string
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if summary["upstream_mode"] != "fixture" {
		t.Errorf("summary = %v", summary)
	}

	if _, err := execute(t, "config", "validate", "--config", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("config validate with a missing file should fail")
	}
}

func TestArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad output", []string{"version", "-o", "xml"}},
		{"sweep without mode", []string{"sweep"}},
		{"sweep with both modes", []string{"sweep", "--full", "--active"}},
		{"refresh without id", []string{"refresh"}},
		{"refresh bad id", []string{"refresh", "abc"}},
		{"refresh zero id", []string{"refresh", "0"}},
		{"compat one id", []string{"compat", "1"}},
		{"compat bad id", []string{"compat", "1", "-2"}},
		{"stats with args", []string{"stats", "extra"}},
		{"bad log level", []string{"config", "validate", "--log-level", "loud"}},
		{"fixture no users", []string{"fixture", "generate", "--users", "0", "--out", "unused.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(config.ConfigPathEnvVar, "")
			if _, err := execute(t, tt.args...); err == nil {
				t.Errorf("%v: error = nil, want error", tt.args)
			}
		})
	}
}

func TestFixtureGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fx.json")
	out, err := execute(t, "fixture", "generate", "--users", "5", "--media", "20", "--groups", "1", "--seed", "3", "--out", path, "-o", "json")
	if err != nil {
		t.Fatalf("fixture generate error = %v", err)
	}
	var summary struct {
		Path   string `json:"path"`
		Media  int    `json:"media"`
		Groups int    `json:"groups"`
	}
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if summary.Path != path || summary.Media != 20 || summary.Groups != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("fixture not written: %v", err)
	}
}

func TestMaintenanceCommands(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := execute(t, "sweep", "--full", "--config", cfgPath, "-o", "json")
	if err != nil {
		t.Fatalf("sweep --full error = %v", err)
	}
	var stats struct {
		Sweep     string `json:"sweep"`
		Refreshed int    `json:"refreshed"`
		Skipped   int    `json:"skipped"`
		Failed    int    `json:"failed"`
	}
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if stats.Sweep != "full" || stats.Refreshed+stats.Skipped+stats.Failed != 8 {
		t.Errorf("stats = %+v", stats)
	}

	if _, err := execute(t, "sweep", "--active", "--config", cfgPath); err != nil {
		t.Errorf("sweep --active error = %v", err)
	}

	out, err = execute(t, "refresh", "1", "--config", cfgPath, "-o", "json")
	if err != nil {
		t.Fatalf("refresh error = %v", err)
	}
	var res struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.UserID != 1 {
		t.Errorf("refresh user_id = %d, want 1", res.UserID)
	}

	out, err = execute(t, "cleanup", "--config", cfgPath)
	if err != nil {
		t.Fatalf("cleanup error = %v", err)
	}
	if !strings.HasPrefix(out, "deleted ") {
		t.Errorf("cleanup output = %q", out)
	}

	out, err = execute(t, "stats", "--config", cfgPath, "-o", "json")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	var stats2 struct {
		SchemaVersion   int   `json:"schema_version"`
		Profiles        int64 `json:"profiles"`
		Recommendations int64 `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(out), &stats2); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if stats2.SchemaVersion < 1 {
		t.Errorf("schema_version = %d, want >= 1", stats2.SchemaVersion)
	}

	if _, err := execute(t, "compat", "1", "2", "--config", cfgPath); err != nil {
		t.Errorf("compat error = %v", err)
	}
	if _, err := execute(t, "compat", "3", "3", "--config", cfgPath); err == nil {
		t.Error("compat of a user with themself should fail")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "dev" {
		t.Errorf("version = %q, want dev", out)
	}
}
