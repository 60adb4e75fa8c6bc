// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/recommend/service"
	"github.com/tomtom215/tastegraph/internal/scheduler"
)

// RecommendationService is the service contract the handlers call.
type RecommendationService interface {
	GetPersonalRecommendations(ctx context.Context, userID int64, page recommend.Page) (*service.PageResult, error)
	GetGroupRecommendations(ctx context.Context, userID int64, page recommend.Page) (*service.PageResult, error)
	GetGroupContentRecommendations(ctx context.Context, userID, groupID int64, page recommend.Page) (*service.PageResult, error)
	GetTrendingRecommendations(ctx context.Context, userID int64, limit int) ([]*recommend.Recommendation, error)
	RecommendNow(ctx context.Context, userID, mediaID int64, limit int) ([]*recommend.Recommendation, error)

	MarkViewed(ctx context.Context, userID int64, kind recommend.Kind, recID string) (*recommend.Recommendation, error)
	Dismiss(ctx context.Context, userID int64, kind recommend.Kind, recID string) (*recommend.Recommendation, error)
	RecordPositiveFeedback(ctx context.Context, userID int64, kind recommend.Kind, recID string) (*recommend.Recommendation, error)
	SubmitFeedback(ctx context.Context, userID int64, kind recommend.Kind, recID string, in service.FeedbackInput) (*recommend.Recommendation, error)

	GetUserPreferences(ctx context.Context, userID int64) (*recommend.PreferenceProfile, error)
	CalculateCompatibility(ctx context.Context, userA, userB int64) (*service.CompatibilityResult, error)
	RefreshUser(ctx context.Context, userID int64) (*service.RefreshResult, error)
	EngineStats() recommend.EngineStats
}

// SweepRunner runs batch jobs on demand.
type SweepRunner interface {
	RunSweep(ctx context.Context, sweep scheduler.Sweep) (*scheduler.SweepStats, error)
	RunCleanup(ctx context.Context) (int, error)
}

// HealthChecker reports storage connectivity.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

var (
	_ RecommendationService = (*service.Service)(nil)
	_ SweepRunner           = (*scheduler.Scheduler)(nil)
)

// HandlerDeps holds the collaborators of the handlers.
type HandlerDeps struct {
	Service RecommendationService

	// Sweeps enables the admin sweep and cleanup routes. Optional.
	Sweeps SweepRunner

	// Health is pinged by /health and /health/ready. Optional.
	Health HealthChecker

	// Version is reported by /health.
	Version string
}

// Handler implements the HTTP endpoints.
type Handler struct {
	svc       RecommendationService
	sweeps    SweepRunner
	health    HealthChecker
	version   string
	startTime time.Time
}

// NewHandler creates the handler set.
func NewHandler(deps HandlerDeps) (*Handler, error) {
	if deps.Service == nil {
		return nil, errors.New("api: service is required")
	}
	return &Handler{
		svc:       deps.Service,
		sweeps:    deps.Sweeps,
		health:    deps.Health,
		version:   deps.Version,
		startTime: time.Now(),
	}, nil
}

// pageParams are the query parameters of paged listings.
type pageParams struct {
	Page     int `validate:"min=0,max=10000"`
	PageSize int `validate:"min=0,max=100"`
}

// targetParams are the {kind} and {id} path parameters of lifecycle routes.
type targetParams struct {
	Kind string `validate:"required,reckind"`
	ID   string `validate:"required,max=128"`
}

// limitParams bound the un-paged listings.
type limitParams struct {
	Limit int `validate:"min=0,max=100"`
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be an integer", key)
	}
	return v, nil
}

// pathID parses a positive int64 URL parameter.
func pathID(r *http.Request, key string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("path parameter %s must be a positive integer", key)
	}
	return v, nil
}

// parsePage reads and validates page and page_size. A zero page_size takes
// the service default.
func parsePage(w http.ResponseWriter, r *http.Request) (recommend.Page, bool) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		respondBadRequest(w, r, err.Error())
		return recommend.Page{}, false
	}
	size, err := queryInt(r, "page_size", 0)
	if err != nil {
		respondBadRequest(w, r, err.Error())
		return recommend.Page{}, false
	}
	params := pageParams{Page: page, PageSize: size}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return recommend.Page{}, false
	}
	return recommend.Page{Number: params.Page, Size: params.PageSize}, true
}

// parseLimit reads and validates limit. Zero takes the service default.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondBadRequest(w, r, err.Error())
		return 0, false
	}
	params := limitParams{Limit: limit}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return 0, false
	}
	return params.Limit, true
}
