// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

/*
Package middleware provides chi-compatible HTTP middleware shared by the API
router.

Key Components:

  - RequestID: honors or generates X-Request-ID and seeds the logging context
    with request and correlation ids
  - PrometheusMetrics: request count, latency and in-flight gauge labelled by
    the matched chi route pattern

Usage:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

Endpoint labels use the route pattern ("/api/v1/compatibility/{otherUserID}")
rather than the raw path so the label set stays bounded.
*/
package middleware
