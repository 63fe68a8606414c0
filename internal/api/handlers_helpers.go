// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/neighbor"
	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/validation"
)

// sanitizeLogValue escapes control characters so user input cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// respondJSON writes response with status. RequestID and Timestamp are
// filled in when unset.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	if response.Metadata.Timestamp.IsZero() {
		response.Metadata.Timestamp = time.Now().UTC()
	}
	if response.Metadata.RequestID == "" {
		response.Metadata.RequestID = logging.RequestIDFromContext(r.Context())
	}

	data, err := json.Marshal(response)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write JSON response")
	}
}

func respondSuccess(w http.ResponseWriter, r *http.Request, data any, meta models.Metadata) { //nolint:gocritic // metadata is small
	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status:   models.StatusSuccess,
		Data:     data,
		Metadata: meta,
	})
}

// respondError writes an error envelope. err is logged for 5xx responses
// only; client errors are expected traffic.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	respondErrorDetails(w, r, status, code, message, nil, err)
}

func respondErrorDetails(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any, err error) {
	if err != nil && status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}

	respondJSON(w, r, status, &models.APIResponse{
		Status: models.StatusError,
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func respondValidation(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondErrorDetails(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
}

// respondDomainError maps assembler and catalog errors to API errors.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var consistency *recommend.ConsistencyError
	switch {
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Request canceled")
	case errors.As(err, &consistency):
		respondErrorDetails(w, r, http.StatusInternalServerError, models.ErrCodeCatalogInconsistent,
			"The similarity index returned a movie missing from the catalog",
			map[string]any{"movie_id": consistency.NeighborMovieID}, err)
	case errors.Is(err, catalog.ErrNotFound):
		respondError(w, r, http.StatusNotFound, models.ErrCodeMovieNotFound, notFoundMessage(err), nil)
	case errors.Is(err, neighbor.ErrService):
		w.Header().Set("Retry-After", "5")
		respondError(w, r, http.StatusServiceUnavailable, models.ErrCodeIndexUnavailable,
			"The similarity index is unavailable, try again shortly", err)
	case errors.Is(err, recommend.ErrInvalidRequest):
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
	default:
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Internal server error", err)
	}
}

func notFoundMessage(err error) string {
	var nf *catalog.NotFoundError
	if errors.As(err, &nf) {
		if nf.Kind == "title" {
			return fmt.Sprintf("No movie titled %q", nf.Key)
		}
		return fmt.Sprintf("No movie with id %s", nf.Key)
	}
	return "Movie not found"
}

// parseIntParam parses an optional integer query parameter. A missing value
// yields def; a malformed one is an error.
func parseIntParam(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}

// parseCommaSeparated splits a comma separated value, dropping empties.
func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
