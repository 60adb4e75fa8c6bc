// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/tastegraph/internal/events"
	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/upstream"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateRecommend(); err != nil {
		return err
	}

	if err := c.validateUpstream(); err != nil {
		return err
	}

	if err := c.validateLock(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT and HTTP_WRITE_TIMEOUT must be positive")
	}
	if err := c.validateCORS(); err != nil {
		return err
	}
	return c.validateRateLimits()
}

// validateCORS rejects empty origins and mixing "*" with explicit origins.
func (c *Config) validateCORS() error {
	wildcard := false
	for _, origin := range c.Server.CORSOrigins {
		switch {
		case origin == "*":
			wildcard = true
		case strings.TrimSpace(origin) == "":
			return fmt.Errorf("CORS_ORIGINS must not contain empty entries")
		default:
			if err := validateHTTPURL(origin, "CORS_ORIGINS"); err != nil {
				return err
			}
		}
	}
	if wildcard && len(c.Server.CORSOrigins) > 1 {
		return fmt.Errorf("CORS_ORIGINS cannot combine * with explicit origins")
	}
	return nil
}

// validateRateLimits validates rate limiting bounds
func (c *Config) validateRateLimits() error {
	if c.Server.RateLimitDisabled {
		return nil
	}
	if c.Server.RateLimitReqs < 1 || c.Server.RateLimitReqs > 100000 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between 1 and 100000, got %d", c.Server.RateLimitReqs)
	}
	if c.Server.RateLimitWindow < time.Second || c.Server.RateLimitWindow > time.Hour {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between 1s and 1h, got %v", c.Server.RateLimitWindow)
	}
	return nil
}

// validateDatabase validates database configuration
func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative, got %d", c.Database.Threads)
	}
	return nil
}

// validateRecommend validates engine tunables and parses the sweep cadences.
func (c *Config) validateRecommend() error {
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if _, err := cron.ParseStandard(c.Recommend.Schedule.FullSweepCron); err != nil {
		return fmt.Errorf("FULL_SWEEP_CRON is invalid: %w", err)
	}
	if _, err := cron.ParseStandard(c.Recommend.Schedule.ActiveSweepCron); err != nil {
		return fmt.Errorf("ACTIVE_SWEEP_CRON is invalid: %w", err)
	}
	return nil
}

// validateUpstream validates the collaborator configuration and URLs.
func (c *Config) validateUpstream() error {
	if err := c.Upstream.Validate(); err != nil {
		return err
	}
	if c.Upstream.Mode != upstream.ModeHTTP {
		return nil
	}
	urls := []struct{ name, value string }{
		{"UPSTREAM_INTERACTIONS_URL", c.Upstream.InteractionsURL},
		{"UPSTREAM_CATALOG_URL", c.Upstream.CatalogURL},
		{"UPSTREAM_GROUPS_URL", c.Upstream.GroupsURL},
	}
	for _, u := range urls {
		if err := validateHTTPURL(u.value, u.name); err != nil {
			return fmt.Errorf("%s is invalid: %w", u.name, err)
		}
	}
	return nil
}

// validateLock validates the lock backend
func (c *Config) validateLock() error {
	switch c.Lock.Backend {
	case LockBackendMemory:
		return nil
	case LockBackendRedis:
		if err := validateHostPort(c.Lock.Redis.Addr, "REDIS_ADDR"); err != nil {
			return err
		}
		if c.Lock.Redis.TTL <= 0 {
			return fmt.Errorf("LOCK_TTL must be positive, got %v", c.Lock.Redis.TTL)
		}
		return nil
	default:
		return fmt.Errorf("LOCK_BACKEND must be memory or redis, got %q", c.Lock.Backend)
	}
}

// validateEvents validates the event bus configuration
func (c *Config) validateEvents() error {
	if err := c.Events.Validate(); err != nil {
		return err
	}
	if c.Events.Backend == events.BackendNATS {
		if err := validateNATSURL(c.Events.NATSURL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
