// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

/*
Package main is the entry point of the Tastegraph server.

Tastegraph learns each user's taste from their movie, TV and book history
and serves personal, group, group-content, trending and "recommend now"
recommendations over a REST API. Two cron sweeps keep stored
recommendations fresh in the background.

# Application Architecture

The server runs its long-lived components under a Suture v4 supervisor tree:

	RootSupervisor ("tastegraph")
	├── BatchSupervisor ("batch-layer")
	│   └── Scheduler (full sweep, active sweep, expiry cleanup)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, optional YAML file and environment
 2. Logging: zerolog, optionally rotated to a file
 3. Storage: DuckDB for profiles, recommendations and feedback
 4. Collaborators: interaction history, catalog and group directory
 5. Engine and service: candidate sources, rerankers, lifecycle operations
 6. Scheduler: cron sweeps with Badger checkpoints
 7. HTTP server and supervisor tree

# Configuration

Configuration is loaded from, highest priority first:
  - Environment variables (HTTP_PORT, DUCKDB_PATH, UPSTREAM_MODE, ...)
  - Config file (config.yaml, or CONFIG_PATH)
  - Built-in defaults

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains in-flight
requests within server.shutdown_timeout, the scheduler stops starting new
sweeps and waits for running ones, and storage is closed last.

# Example Usage

Standalone with a fixture of collaborator data:

	export UPSTREAM_MODE=fixture
	export UPSTREAM_FIXTURE_PATH=/data/fixture.json
	export DUCKDB_PATH=/data/tastegraph.duckdb
	./tastegraph-server

Against upstream services:

	export UPSTREAM_MODE=http
	export UPSTREAM_INTERACTIONS_URL=http://interactions:8080
	export UPSTREAM_CATALOG_URL=http://catalog:8080
	export UPSTREAM_GROUPS_URL=http://groups:8080
	export ADMIN_TOKEN=$(openssl rand -hex 32)
	./tastegraph-server
*/
package main
