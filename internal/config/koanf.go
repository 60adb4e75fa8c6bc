// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/tastegraph/internal/events"
	"github.com/tomtom215/tastegraph/internal/lock"
	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/upstream"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tastegraph/config.yaml",
	"/etc/tastegraph/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Database: DatabaseConfig{
			Path:                   "/data/tastegraph.duckdb",
			MaxMemory:              "1GB",
			Threads:                0, // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true,
		},
		Recommend: *recommend.DefaultConfig(),
		Upstream:  upstream.DefaultConfig(),
		Lock: LockConfig{
			Backend: LockBackendMemory,
			Redis: lock.RedisConfig{
				Addr:          "127.0.0.1:6379",
				Prefix:        "tastegraph:lock:",
				TTL:           5 * time.Minute,
				RetryInterval: 100 * time.Millisecond,
			},
		},
		Events: events.DefaultConfig(),
		Checkpoint: CheckpointConfig{
			Path: "/data/checkpoints",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Default returns the built-in defaults without consulting files or the
// environment. Tools and tests start from it.
func Default() *Config {
	return defaultConfig()
}

// Load is LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults. The result is validated before it is
// returned.
func LoadWithKoanf() (*Config, error) {
	return loadFrom(findConfigFile())
}

// LoadFile loads configuration from an explicit YAML file, still applying
// defaults underneath and environment variables on top.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return loadFrom(path)
}

func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// Unmapped variables are ignored so that unrelated environment does not
// pollute the configuration.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",
	"admin_token":           "server.admin_token",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Scoring and thresholds
	"recommend_weight_genre":                "recommend.weights.genre",
	"recommend_weight_platform":             "recommend.weights.platform",
	"recommend_weight_era":                  "recommend.weights.era",
	"recommend_weight_rating":               "recommend.weights.rating",
	"recommend_min_confidence":              "recommend.thresholds.min_confidence",
	"recommend_min_interactions":            "recommend.thresholds.min_interactions_for_recommendations",
	"recommend_min_interactions_confidence": "recommend.thresholds.min_interactions_for_high_confidence",
	"recommend_min_relevance":               "recommend.thresholds.min_relevance_score",
	"recommend_min_compatibility":           "recommend.thresholds.min_compatibility",
	"recommend_content_expiry":              "recommend.expiry.content",
	"recommend_group_expiry":                "recommend.expiry.group",
	"recommend_diversity_factor":            "recommend.balance.diversity_factor",
	"recommend_exploration_factor":          "recommend.balance.exploration_factor",
	"recommend_personalization_balance":     "recommend.balance.personalization_balance",
	"recommend_learning_rate":               "recommend.profile.learning_rate",
	"recommend_filter_seen":                 "recommend.filter_seen_content",
	"recommend_max_per_user":                "recommend.limits.max_recommendations_per_user",
	"recommend_max_same_type":               "recommend.limits.max_same_type_recommendations",
	"recommend_source_timeout":              "recommend.limits.source_timeout",
	"recommend_upstream_timeout":            "recommend.limits.upstream_timeout",

	// Scheduler
	"full_sweep_cron":       "recommend.schedule.full_sweep_cron",
	"active_sweep_cron":     "recommend.schedule.active_sweep_cron",
	"active_lookback_hours": "recommend.schedule.active_lookback_hours",
	"sweep_page_size":       "recommend.schedule.page_size",
	"sweep_concurrency":     "recommend.schedule.concurrency",
	"cleanup_interval":      "recommend.schedule.cleanup_interval",
	"cleanup_grace":         "recommend.schedule.cleanup_grace",
	"checkpoint_ttl":        "recommend.schedule.checkpoint_ttl",
	"checkpoint_path":       "checkpoint.path",

	// Collaborators
	"upstream_mode":             "upstream.mode",
	"upstream_fixture_path":     "upstream.fixture_path",
	"upstream_interactions_url": "upstream.interactions_url",
	"upstream_catalog_url":      "upstream.catalog_url",
	"upstream_groups_url":       "upstream.groups_url",
	"upstream_api_key":          "upstream.api_key",
	"upstream_timeout":          "upstream.timeout",
	"upstream_rate_limit":       "upstream.rate_limit",
	"upstream_rate_burst":       "upstream.rate_burst",

	// Lock
	"lock_backend":   "lock.backend",
	"redis_addr":     "lock.redis.addr",
	"redis_password": "lock.redis.password",
	"redis_db":       "lock.redis.db",
	"lock_ttl":       "lock.redis.ttl",

	// Events
	"events_backend": "events.backend",
	"nats_url":       "events.nats_url",

	// Logging
	"log_level":            "logging.level",
	"log_format":           "logging.format",
	"log_caller":           "logging.caller",
	"log_file":             "logging.file.path",
	"log_file_max_size_mb": "logging.file.max_size_mb",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - DUCKDB_PATH -> database.path
//   - FULL_SWEEP_CRON -> recommend.schedule.full_sweep_cron
//   - UPSTREAM_CATALOG_URL -> upstream.catalog_url
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
