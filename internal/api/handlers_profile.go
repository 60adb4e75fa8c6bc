// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package api

import (
	"net/http"
	"time"
)

// Preferences handles GET /api/v1/preferences.
func (h *Handler) Preferences(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	profile, err := h.svc.GetUserPreferences(r.Context(), userFrom(r))
	if err != nil {
		respondServiceError(w, r, "preferences", err)
		return
	}
	respondJSON(w, r, http.StatusOK, profile, start)
}

// Compatibility handles GET /api/v1/compatibility/{otherUserID}.
func (h *Handler) Compatibility(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	other, err := pathID(r, "otherUserID")
	if err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}
	res, err := h.svc.CalculateCompatibility(r.Context(), userFrom(r), other)
	if err != nil {
		respondServiceError(w, r, "compatibility", err)
		return
	}
	respondJSON(w, r, http.StatusOK, res, start)
}
