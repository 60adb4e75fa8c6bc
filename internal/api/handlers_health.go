// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// healthPingTimeout bounds the storage ping of health checks.
const healthPingTimeout = 2 * time.Second

// HealthStatus is the body of /health.
type HealthStatus struct {
	Status            string                `json:"status"`
	Version           string                `json:"version,omitempty"`
	DatabaseConnected bool                  `json:"database_connected"`
	Uptime            float64               `json:"uptime_seconds"`
	Engine            recommend.EngineStats `json:"engine"`
}

func (h *Handler) ping(ctx context.Context) bool {
	if h.health == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return h.health.Ping(ctx) == nil
}

// Health handles GET /health. It always answers 200; the status field turns
// "degraded" when storage is unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	connected := h.ping(r.Context())
	status := "healthy"
	if !connected {
		status = "degraded"
	}
	respondJSON(w, r, http.StatusOK, HealthStatus{
		Status:            status,
		Version:           h.version,
		DatabaseConnected: connected,
		Uptime:            time.Since(h.startTime).Seconds(),
		Engine:            h.svc.EngineStats(),
	}, time.Time{})
}

// HealthLive handles GET /health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "alive"}, time.Time{})
}

// HealthReady handles GET /health/ready: 503 until storage answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.ping(r.Context()) {
		respondError(w, r, http.StatusServiceUnavailable, &APIError{Code: "NOT_READY", Message: "database unavailable"})
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"}, time.Time{})
}
