// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/validation"
)

// Response statuses.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata describes the response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a machine-readable error.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// respondJSON writes a success envelope. Responses are user specific and
// never cached by intermediaries.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any, started time.Time) {
	meta := Metadata{
		Timestamp: time.Now().UTC(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
	if !started.IsZero() {
		meta.QueryTimeMS = time.Since(started).Milliseconds()
	}
	writeEnvelope(w, status, &APIResponse{Status: statusSuccess, Data: data, Metadata: meta})
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, apiErr *APIError) {
	writeEnvelope(w, status, &APIResponse{
		Status: statusError,
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: apiErr,
	})
}

func writeEnvelope(w http.ResponseWriter, status int, resp *APIResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("failed to write JSON response")
	}
}

// errorStatus maps the service error taxonomy to an HTTP status and code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, recommend.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, recommend.ErrExpired):
		return http.StatusNotFound, "EXPIRED"
	case errors.Is(err, recommend.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, recommend.ErrIllegalTransition):
		return http.StatusConflict, "ILLEGAL_TRANSITION"
	case errors.Is(err, recommend.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, recommend.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// respondServiceError maps err and logs server-side failures. Client errors
// echo the error text; server errors do not.
func respondServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	logger := logging.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("operation", op).Str("code", code).Msg("request failed")
		if status == http.StatusInternalServerError {
			msg = "internal error"
		} else {
			msg = "upstream service unavailable, retry later"
		}
	} else {
		logger.Debug().Err(err).Str("operation", op).Str("code", code).Msg("request rejected")
	}
	respondError(w, r, status, &APIError{Code: code, Message: msg})
}

// respondBadRequest writes a 400 INVALID_ARGUMENT.
func respondBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	respondError(w, r, http.StatusBadRequest, &APIError{Code: "INVALID_ARGUMENT", Message: msg})
}

// validateRequest validates v with the shared validator. It returns nil or a
// VALIDATION_ERROR ready to send.
func validateRequest(v any) *APIError {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return nil
	}
	apiErr := verr.ToAPIError()
	return &APIError{Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details}
}
