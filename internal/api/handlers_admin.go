// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/scheduler"
)

// AdminRefresh handles POST /api/v1/admin/refresh/{userID}.
func (h *Handler) AdminRefresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, err := pathID(r, "userID")
	if err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}
	res, err := h.svc.RefreshUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, "admin_refresh", err)
		return
	}
	logging.Ctx(r.Context()).Info().Int64("target_user_id", userID).Msg("admin refresh finished")
	respondJSON(w, r, http.StatusOK, res, start)
}

// AdminSweep handles POST /api/v1/admin/sweeps/{sweep}. The sweep runs
// synchronously on the request context.
func (h *Handler) AdminSweep(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.sweeps == nil {
		respondError(w, r, http.StatusNotImplemented, &APIError{Code: "NOT_CONFIGURED", Message: "scheduler is not configured"})
		return
	}
	sweep, err := scheduler.ParseSweep(chi.URLParam(r, "sweep"))
	if err != nil {
		respondServiceError(w, r, "admin_sweep", err)
		return
	}
	stats, err := h.sweeps.RunSweep(r.Context(), sweep)
	if err != nil {
		respondServiceError(w, r, "admin_sweep", err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats, start)
}

// AdminCleanup handles POST /api/v1/admin/cleanup.
func (h *Handler) AdminCleanup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.sweeps == nil {
		respondError(w, r, http.StatusNotImplemented, &APIError{Code: "NOT_CONFIGURED", Message: "scheduler is not configured"})
		return
	}
	deleted, err := h.sweeps.RunCleanup(r.Context())
	if err != nil {
		respondServiceError(w, r, "admin_cleanup", err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]int{"deleted": deleted}, start)
}
