// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/cinematch/internal/catalog"
)

// Display defaults used when the index metadata lacks a field.
const (
	UnknownTitle = "Unknown Title"
	UnknownGenre = "Unknown Genre"
)

// Record is one recommended movie.
type Record struct {
	MovieID int `json:"movie_id"`

	// MovieName and MovieGenre come from the index metadata, not the catalog.
	// MovieGenre is space-delimited.
	MovieName  string `json:"movie_name"`
	MovieGenre string `json:"movie_genre"`

	// ExternalRefID is the IMDb number joined from the catalog. Empty when
	// the catalog has no cross reference for the movie.
	ExternalRefID string `json:"external_ref_id"`

	PosterURL string  `json:"poster_url,omitempty"`
	Score     float64 `json:"score"`
}

// Request asks for up to Count movies similar to Title. A non-empty Genres
// keeps only records sharing at least one genre with it.
type Request struct {
	Title  string   `json:"title" validate:"required,max=500"`
	Count  int      `json:"count" validate:"min=1"`
	Genres []string `json:"genres,omitempty" validate:"omitempty,max=18,dive,genre"`
}

// Recommender produces recommendations. Assembler and CachedAssembler
// implement it.
type Recommender interface {
	Recommend(ctx context.Context, req Request) ([]Record, error)
}

// Catalog is the read-only catalog view the assembler needs.
type Catalog interface {
	ResolveID(title string) (int, error)
	ResolveAttributes(movieID int) (catalog.Entry, error)
}

// PosterResolver looks up a poster URL for an external reference id.
type PosterResolver interface {
	PosterURL(ctx context.Context, externalRefID string) (string, error)
}

// ErrInvalidRequest is returned for requests the assembler cannot serve.
var ErrInvalidRequest = errors.New("invalid recommendation request")

// ConsistencyError reports a neighbor the catalog does not know. The index
// and catalog disagree, which is a data fault rather than a user error.
type ConsistencyError struct {
	QueryMovieID    int
	NeighborMovieID int
	Err             error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("index returned movie %d for movie %d but the catalog has no such entry: %v",
		e.NeighborMovieID, e.QueryMovieID, e.Err)
}

// Unwrap exposes the catalog error, so errors.Is(err, catalog.ErrNotFound)
// holds for consistency faults too. Callers separating bad input from bad
// data should test errors.As for *ConsistencyError first.
func (e *ConsistencyError) Unwrap() error {
	return e.Err
}
