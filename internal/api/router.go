// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/tastegraph/internal/middleware"
)

// Router assembles the chi route tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, &APIError{Code: "ROUTE_NOT_FOUND", Message: "no such route"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, &APIError{Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"})
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("admin"))
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.chiMiddleware.RequireAdmin())

		r.Post("/refresh/{userID}", h.AdminRefresh)
		r.Post("/sweeps/{sweep}", h.AdminSweep)
		r.Post("/cleanup", h.AdminCleanup)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("api"))
		r.Use(middleware.PrometheusMetrics)
		r.Use(chimiddleware.Compress(5, "application/json"))
		r.Use(RequireUser)

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/personal", h.PersonalRecommendations)
			r.Get("/groups", h.GroupRecommendations)
			r.Get("/trending", h.TrendingRecommendations)
			r.Get("/now", h.RecommendNow)

			r.Route("/{kind}/{id}", func(r chi.Router) {
				r.Post("/view", h.MarkViewed)
				r.Post("/dismiss", h.Dismiss)
				r.Post("/positive", h.PositiveFeedback)
				r.Post("/feedback", h.SubmitFeedback)
			})
		})

		r.Get("/groups/{groupID}/recommendations", h.GroupContentRecommendations)
		r.Get("/preferences", h.Preferences)
		r.Get("/compatibility/{otherUserID}", h.Compatibility)
	})

	return r
}
