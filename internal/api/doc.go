// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

/*
Package api exposes the recommendation service over HTTP using the chi router.

The API is a thin layer: handlers parse and validate parameters, call the
service contract and map the error taxonomy onto status codes. Every data
response uses the same envelope:

	{
	  "status": "success" | "error",
	  "data": ...,
	  "metadata": {"timestamp": "...", "request_id": "...", "query_time_ms": 3},
	  "error": {"code": "NOT_FOUND", "message": "..."}
	}

# Identity

The platform gateway authenticates callers and forwards the numeric user id
in the X-User-ID header. Requests under /api/v1 without a valid id are
rejected with 401. Admin routes under /api/v1/admin require the configured
admin token as a bearer token and are refused with 403 when none is set.

# Routes

	GET  /health, /health/live, /health/ready
	GET  /metrics
	GET  /api/v1/recommendations/personal?page=&page_size=
	GET  /api/v1/recommendations/groups?page=&page_size=
	GET  /api/v1/recommendations/trending?limit=
	GET  /api/v1/recommendations/now?media_id=&limit=
	POST /api/v1/recommendations/{kind}/{id}/view
	POST /api/v1/recommendations/{kind}/{id}/dismiss
	POST /api/v1/recommendations/{kind}/{id}/positive
	POST /api/v1/recommendations/{kind}/{id}/feedback   {"rating": 4, "comment": "..."}
	GET  /api/v1/groups/{groupID}/recommendations?page=&page_size=
	GET  /api/v1/preferences
	GET  /api/v1/compatibility/{otherUserID}
	POST /api/v1/admin/refresh/{userID}
	POST /api/v1/admin/sweeps/{sweep}
	POST /api/v1/admin/cleanup

# Error Mapping

	ErrInvalidArgument    400 INVALID_ARGUMENT
	ErrNotFound           404 NOT_FOUND (EXPIRED for expired rows)
	ErrIllegalTransition  409 ILLEGAL_TRANSITION
	ErrConflict           409 CONFLICT
	ErrUnavailable        503 UPSTREAM_UNAVAILABLE
*/
package api
