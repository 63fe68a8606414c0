// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/validation"
)

// recommendationsResponse is the data payload of GET /api/v1/recommendations.
type recommendationsResponse struct {
	Title   string             `json:"title"`
	Count   int                `json:"count"`
	Genres  []string           `json:"genres"`
	Results []recommend.Record `json:"results"`
}

// Recommendations handles GET /api/v1/recommendations.
//
// Query parameters:
//   - title: exact catalog title (required)
//   - count: results wanted, default recommend.default_count
//   - genre: repeatable genre filter
//   - genres: comma separated genre filter, merged with genre
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, verr, err := h.parseRecommendRequest(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
		return
	}
	if verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		records []recommend.Record
		cached  bool
	)
	if c, ok := h.recommender.(cachedRecommender); ok {
		records, cached, err = c.RecommendCached(ctx, req)
	} else {
		records, err = h.recommender.Recommend(ctx, req)
	}
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	count := len(records)
	genres := req.Genres
	if genres == nil {
		genres = []string{}
	}
	respondSuccess(w, r, recommendationsResponse{
		Title:   req.Title,
		Count:   req.Count,
		Genres:  genres,
		Results: records,
	}, models.Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Cached:      cached,
		Count:       &count,
	})
}

// parseRecommendRequest returns a request with canonical genre spelling.
// err reports unparseable input; verr reports rule violations.
func (h *Handler) parseRecommendRequest(r *http.Request) (recommend.Request, *validation.RequestValidationError, error) {
	q := r.URL.Query()

	count, err := parseIntParam(r, "count", h.cfg.DefaultCount)
	if err != nil {
		return recommend.Request{}, nil, err
	}
	if count > h.cfg.MaxCount {
		return recommend.Request{}, nil, fmt.Errorf("count must be at most %d", h.cfg.MaxCount)
	}

	var genres []string
	for _, g := range q["genre"] {
		genres = append(genres, parseCommaSeparated(g)...)
	}
	genres = append(genres, parseCommaSeparated(q.Get("genres"))...)

	req := recommend.Request{
		Title:  q.Get("title"),
		Count:  count,
		Genres: genres,
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		return req, verr, nil
	}

	req.Genres = canonicalGenres(req.Genres)
	return req, nil, nil
}

// canonicalGenres maps validated genres to vocabulary spelling, deduplicated.
func canonicalGenres(genres []string) []string {
	if len(genres) == 0 {
		return nil
	}
	out := make([]string, 0, len(genres))
	seen := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		c, ok := catalog.CanonicalGenre(g)
		if !ok {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
