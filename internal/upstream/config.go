// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package upstream

import (
	"fmt"
	"time"
)

// Collaborator modes.
const (
	ModeFixture = "fixture"
	ModeHTTP    = "http"
)

// Config configures the collaborator clients.
type Config struct {
	// Mode selects fixture or http collaborators.
	// Default: fixture.
	Mode string `json:"mode" koanf:"mode"`

	// FixturePath is the JSON fixture served in fixture mode. Empty starts
	// with an empty fixture.
	FixturePath string `json:"fixture_path" koanf:"fixture_path"`

	// InteractionsURL is the base URL of the interaction history service.
	InteractionsURL string `json:"interactions_url" koanf:"interactions_url"`

	// CatalogURL is the base URL of the media catalog service.
	CatalogURL string `json:"catalog_url" koanf:"catalog_url"`

	// GroupsURL is the base URL of the group directory service.
	GroupsURL string `json:"groups_url" koanf:"groups_url"`

	// APIKey is sent as a bearer token when set.
	APIKey string `json:"-" koanf:"api_key"`

	// Timeout bounds a single HTTP request.
	// Default: 5s.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`

	// RateLimit is the steady request rate per client, in requests per second.
	// Default: 50.
	RateLimit float64 `json:"rate_limit" koanf:"rate_limit"`

	// RateBurst is the token bucket burst per client.
	// Default: 10.
	RateBurst int `json:"rate_burst" koanf:"rate_burst"`

	// BreakerFailures opens a client's circuit after this many consecutive
	// failures.
	// Default: 5.
	BreakerFailures uint32 `json:"breaker_failures" koanf:"breaker_failures"`

	// BreakerTimeout is how long an open circuit rejects requests.
	// Default: 30s.
	BreakerTimeout time.Duration `json:"breaker_timeout" koanf:"breaker_timeout"`

	// MetadataCacheSize bounds the catalog metadata cache.
	// Default: 10000.
	MetadataCacheSize int `json:"metadata_cache_size" koanf:"metadata_cache_size"`

	// MetadataCacheTTL is the lifetime of cached metadata.
	// Default: 1h.
	MetadataCacheTTL time.Duration `json:"metadata_cache_ttl" koanf:"metadata_cache_ttl"`

	// MetadataBatchSize bounds the ids sent per catalog lookup.
	// Default: 100.
	MetadataBatchSize int `json:"metadata_batch_size" koanf:"metadata_batch_size"`
}

// DefaultConfig returns the default collaborator configuration.
func DefaultConfig() Config {
	return Config{
		Mode:              ModeFixture,
		Timeout:           5 * time.Second,
		RateLimit:         50,
		RateBurst:         10,
		BreakerFailures:   5,
		BreakerTimeout:    30 * time.Second,
		MetadataCacheSize: 10000,
		MetadataCacheTTL:  time.Hour,
		MetadataBatchSize: 100,
	}
}

// Validate checks the configuration. URL syntax is checked by the config
// package together with the other service URLs.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeFixture:
		return nil
	case ModeHTTP:
	default:
		return fmt.Errorf("upstream.mode must be fixture or http, got %q", c.Mode)
	}
	if c.InteractionsURL == "" || c.CatalogURL == "" || c.GroupsURL == "" {
		return fmt.Errorf("upstream.interactions_url, upstream.catalog_url and upstream.groups_url are required in http mode")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive, got %v", c.Timeout)
	}
	if c.RateLimit <= 0 || c.RateBurst < 1 {
		return fmt.Errorf("upstream.rate_limit and upstream.rate_burst must be positive")
	}
	if c.BreakerFailures == 0 {
		return fmt.Errorf("upstream.breaker_failures must be positive")
	}
	if c.MetadataBatchSize < 1 {
		return fmt.Errorf("upstream.metadata_batch_size must be positive, got %d", c.MetadataBatchSize)
	}
	return nil
}
