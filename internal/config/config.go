// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package config

import (
	"time"

	"github.com/tomtom215/tastegraph/internal/events"
	"github.com/tomtom215/tastegraph/internal/lock"
	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/upstream"
)

// Lock backends.
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Recommend  recommend.Config `koanf:"recommend"`
	Upstream   upstream.Config  `koanf:"upstream"`
	Lock       LockConfig       `koanf:"lock"`
	Events     events.Config    `koanf:"events"`
	Checkpoint CheckpointConfig `koanf:"checkpoint"`
	Logging    logging.Config   `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Host is the listen address.
	// Default: 0.0.0.0.
	Host string `koanf:"host"`

	// Port is the listen port.
	// Default: 8080.
	Port int `koanf:"port"`

	// ReadTimeout bounds reading a request.
	// Default: 15s.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writing a response.
	// Default: 30s.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout bounds keep-alive connections.
	// Default: 60s.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed origins. "*" allows any origin.
	// Default: ["*"].
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs is the number of requests allowed per window and IP.
	// Default: 100.
	RateLimitReqs int `koanf:"rate_limit_reqs"`

	// RateLimitWindow is the rate limit window.
	// Default: 1m.
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// RateLimitDisabled turns rate limiting off.
	// Default: false.
	RateLimitDisabled bool `koanf:"rate_limit_disabled"`

	// AdminToken protects the admin routes. Empty disables them.
	AdminToken string `koanf:"admin_token"`
}

// DatabaseConfig holds DuckDB configuration.
type DatabaseConfig struct {
	// Path of the database file, or ":memory:".
	// Default: /data/tastegraph.duckdb.
	Path string `koanf:"path"`

	// MaxMemory is the DuckDB memory limit.
	// Default: 1GB.
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB worker count. 0 uses runtime.NumCPU().
	// Default: 0.
	Threads int `koanf:"threads"`

	// PreserveInsertionOrder keeps DuckDB's insertion order guarantee.
	// Default: true.
	PreserveInsertionOrder bool `koanf:"preserve_insertion_order"`

	// SkipIndexes skips secondary index creation. Intended for tests.
	// Default: false.
	SkipIndexes bool `koanf:"skip_indexes"`
}

// LockConfig selects the per-user refresh lock.
type LockConfig struct {
	// Backend is memory (single replica) or redis (shared by replicas).
	// Default: memory.
	Backend string `koanf:"backend"`

	Redis lock.RedisConfig `koanf:"redis"`
}

// CheckpointConfig configures the sweep checkpoint store.
type CheckpointConfig struct {
	// Path of the Badger directory. Empty keeps checkpoints in memory, so a
	// restarted full sweep starts over.
	// Default: /data/checkpoints.
	Path string `koanf:"path"`
}

// Address returns host:port of the HTTP server.
func (s *ServerConfig) Address() string {
	return joinHostPort(s.Host, s.Port)
}
