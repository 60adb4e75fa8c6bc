// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

/*
Package config provides configuration management for Tastegraph.

Configuration is loaded with Koanf v2 from three layers, later layers winning:

 1. Defaults: built into defaultConfig()
 2. Config file: the first of CONFIG_PATH, config.yaml, config.yml,
    /etc/tastegraph/config.yaml, /etc/tastegraph/config.yml
 3. Environment variables: an explicit mapping of names to config paths
    (see envMappings); unmapped variables are ignored

The loaded configuration is validated once, including the engine scoring
weights and both sweep cron expressions.

# Sections

  - server: HTTP listener, CORS, rate limiting, admin token
  - database: DuckDB path and resources
  - recommend: scoring weights, thresholds, expiry, limits and sweep schedule
  - upstream: collaborator mode (fixture or http) and client resilience
  - lock: per-user refresh lock (memory or redis)
  - events: event bus backend (memory, nats or none)
  - checkpoint: Badger directory of full-sweep checkpoints
  - logging: zerolog level, format and optional rotated file

# Example

	server:
	  port: 8080
	  cors_origins: ["https://app.example.com"]
	recommend:
	  weights: {genre: 0.4, platform: 0.2, era: 0.2, rating: 0.2}
	  schedule:
	    full_sweep_cron: "0 3 * * *"
	    active_sweep_cron: "0 * * * *"
	upstream:
	  mode: http
	  interactions_url: http://history:8081
	  catalog_url: http://catalog:8082
	  groups_url: http://groups:8083
*/
package config
