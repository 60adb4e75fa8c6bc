// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// listResponse wraps un-paged recommendation lists.
type listResponse struct {
	Items []*recommend.Recommendation `json:"items"`
	Count int                         `json:"count"`
}

func newListResponse(items []*recommend.Recommendation) listResponse {
	if items == nil {
		items = []*recommend.Recommendation{}
	}
	return listResponse{Items: items, Count: len(items)}
}

// PersonalRecommendations handles GET /api/v1/recommendations/personal.
func (h *Handler) PersonalRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	page, ok := parsePage(w, r)
	if !ok {
		return
	}
	res, err := h.svc.GetPersonalRecommendations(r.Context(), userFrom(r), page)
	if err != nil {
		respondServiceError(w, r, "personal", err)
		return
	}
	respondJSON(w, r, http.StatusOK, res, start)
}

// GroupRecommendations handles GET /api/v1/recommendations/groups.
func (h *Handler) GroupRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	page, ok := parsePage(w, r)
	if !ok {
		return
	}
	res, err := h.svc.GetGroupRecommendations(r.Context(), userFrom(r), page)
	if err != nil {
		respondServiceError(w, r, "groups", err)
		return
	}
	respondJSON(w, r, http.StatusOK, res, start)
}

// GroupContentRecommendations handles GET /api/v1/groups/{groupID}/recommendations.
func (h *Handler) GroupContentRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	groupID, err := pathID(r, "groupID")
	if err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}
	res, err := h.svc.GetGroupContentRecommendations(r.Context(), userFrom(r), groupID, page)
	if err != nil {
		respondServiceError(w, r, "group_content", err)
		return
	}
	respondJSON(w, r, http.StatusOK, res, start)
}

// TrendingRecommendations handles GET /api/v1/recommendations/trending.
func (h *Handler) TrendingRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	recs, err := h.svc.GetTrendingRecommendations(r.Context(), userFrom(r), limit)
	if err != nil {
		respondServiceError(w, r, "trending", err)
		return
	}
	respondJSON(w, r, http.StatusOK, newListResponse(recs), start)
}

// RecommendNow handles GET /api/v1/recommendations/now?media_id=. The result
// is computed on demand and not persisted.
func (h *Handler) RecommendNow(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	mediaID, err := queryInt(r, "media_id", 0)
	if err != nil || mediaID <= 0 {
		respondBadRequest(w, r, "query parameter media_id must be a positive integer")
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	recs, err := h.svc.RecommendNow(r.Context(), userFrom(r), int64(mediaID), limit)
	if err != nil {
		respondServiceError(w, r, "now", err)
		return
	}
	respondJSON(w, r, http.StatusOK, newListResponse(recs), start)
}
