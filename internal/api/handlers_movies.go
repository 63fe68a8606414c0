// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/validation"
)

type movieSearchRequest struct {
	Search string `json:"search" validate:"max=200"`
	Limit  int    `json:"limit" validate:"min=1,max=100"`
}

// Movies handles GET /api/v1/movies?search=&limit=. It backs the title
// picker, so results are ordered by title.
func (h *Handler) Movies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := parseIntParam(r, "limit", 20)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
		return
	}
	req := movieSearchRequest{Search: r.URL.Query().Get("search"), Limit: limit}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	movies := h.catalog.Search(req.Search, req.Limit)
	count := len(movies)
	respondSuccess(w, r, movies, models.Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Count:       &count,
	})
}

// Movie handles GET /api/v1/movies/{id}.
func (h *Handler) Movie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "id must be a positive integer", nil)
		return
	}

	entry, err := h.catalog.ResolveAttributes(id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondSuccess(w, r, entry, models.Metadata{})
}

// Genres handles GET /api/v1/genres.
func (h *Handler) Genres(w http.ResponseWriter, r *http.Request) {
	genres := append([]string(nil), catalog.GenreVocabulary...)
	count := len(genres)
	respondSuccess(w, r, genres, models.Metadata{Count: &count})
}
