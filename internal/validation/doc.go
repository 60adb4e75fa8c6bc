// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package validation provides struct validation using go-playground/validator v10.
//
// The package wraps a thread-safe singleton validator with custom tags for the
// recommendation domain and translates failures into the VALIDATION_ERROR
// response format used by internal/api.
//
// # Custom Tags
//
//   - reckind: CONTENT or GROUP, case-insensitive
//   - rating: an explicit rating between 1 and 5
//
// # Struct Tag Examples
//
//	type FeedbackRequest struct {
//	    Rating  int    `json:"rating" validate:"rating"`
//	    Comment string `json:"comment" validate:"max=2000"`
//	}
//
//	type PageRequest struct {
//	    Limit  int `validate:"gte=1,lte=100"`
//	    Offset int `validate:"gte=0"`
//	}
//
// # API Error Integration
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
//
// A single failure produces:
//
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "Rating must be between 1 and 5",
//	    "details": {"field": "Rating", "tag": "rating", "value": 7}
//	}
//
// # Thread Safety
//
// GetValidator and ValidateStruct are safe for concurrent use. Struct
// reflection data is cached after the first validation of each type.
package validation
