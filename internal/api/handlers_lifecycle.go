// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/recommend/service"
)

// maxFeedbackBody bounds the feedback request body.
const maxFeedbackBody = 16 * 1024

type transitionFunc func(ctx context.Context, userID int64, kind recommend.Kind, recID string) (*recommend.Recommendation, error)

// parseTarget reads {kind} and {id}.
func parseTarget(w http.ResponseWriter, r *http.Request) (recommend.Kind, string, bool) {
	params := targetParams{Kind: chi.URLParam(r, "kind"), ID: chi.URLParam(r, "id")}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return "", "", false
	}
	kind, err := recommend.ParseKind(params.Kind)
	if err != nil {
		respondServiceError(w, r, "parse_kind", err)
		return "", "", false
	}
	return kind, params.ID, true
}

func (h *Handler) transition(op string, fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		kind, id, ok := parseTarget(w, r)
		if !ok {
			return
		}
		rec, err := fn(r.Context(), userFrom(r), kind, id)
		if err != nil {
			respondServiceError(w, r, op, err)
			return
		}
		respondJSON(w, r, http.StatusOK, rec, start)
	}
}

// MarkViewed handles POST /api/v1/recommendations/{kind}/{id}/view.
func (h *Handler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	h.transition("view", h.svc.MarkViewed)(w, r)
}

// Dismiss handles POST /api/v1/recommendations/{kind}/{id}/dismiss.
func (h *Handler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.transition("dismiss", h.svc.Dismiss)(w, r)
}

// PositiveFeedback handles POST /api/v1/recommendations/{kind}/{id}/positive.
func (h *Handler) PositiveFeedback(w http.ResponseWriter, r *http.Request) {
	h.transition("positive", h.svc.RecordPositiveFeedback)(w, r)
}

// SubmitFeedback handles POST /api/v1/recommendations/{kind}/{id}/feedback.
// Rating bounds are enforced by the service so the error shape matches the
// other lifecycle operations.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	kind, id, ok := parseTarget(w, r)
	if !ok {
		return
	}

	var in service.FeedbackInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFeedbackBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		respondBadRequest(w, r, msg)
		return
	}

	rec, err := h.svc.SubmitFeedback(r.Context(), userFrom(r), kind, id, in)
	if err != nil {
		respondServiceError(w, r, "feedback", err)
		return
	}
	respondJSON(w, r, http.StatusOK, rec, start)
}
