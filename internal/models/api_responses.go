// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package models holds the JSON envelope shared by every HTTP endpoint.
package models

import (
	"time"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Stable error codes returned in APIError.Code.
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeMovieNotFound       = "MOVIE_NOT_FOUND"
	ErrCodeCatalogInconsistent = "CATALOG_INCONSISTENT"
	ErrCodeIndexUnavailable    = "INDEX_UNAVAILABLE"
	ErrCodeRateLimited         = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeRouteNotFound       = "NOT_FOUND"
	ErrCodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
)

// APIResponse wraps every API payload.
//
//	{
//	  "status": "success",
//	  "data": [{"movie_id": 2, "movie_name": "Jumanji", ...}],
//	  "metadata": {"timestamp": "2026-01-01T12:00:00Z", "query_time_ms": 12}
//	}
//
// Errors carry status "error" and an Error, with Data null.
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata describes how a response was produced.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	Count       *int      `json:"count,omitempty"`
}

// APIError is the machine readable part of an error response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthStatus is returned by the liveness and readiness probes.
type HealthStatus struct {
	Status       string            `json:"status"`
	CatalogSize  int               `json:"catalog_size,omitempty"`
	IndexBackend string            `json:"index_backend,omitempty"`
	Checks       map[string]string `json:"checks,omitempty"`
}
