// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package neighbor queries a nearest-neighbor index for movies similar to a
// given movie id.
//
// Three backends implement Client: Pinecone over its REST data plane,
// pgvector in PostgreSQL, and an in-memory cosine index for development.
// Open wires the configured backend behind a circuit breaker, a per-call
// timeout and Prometheus instrumentation.
//
// Errors fall into two classes:
//
//   - *LookupError (errors.Is ErrNoMatches): the index answered but had no
//     usable matches. Callers treat this as "no recommendations".
//   - *ServiceError (errors.Is ErrService): the index could not be reached,
//     answered with a failure status, timed out, or the breaker is open.
//
// Clients never retry.
package neighbor

import (
	"context"
	"errors"
	"fmt"
)

// Metadata keys written at index build time.
const (
	MetadataMovieName  = "movie_name"
	MetadataMovieGenre = "movie_genre"
)

var (
	// ErrNoMatches is wrapped by *LookupError.
	ErrNoMatches = errors.New("no neighbor matches")

	// ErrService is wrapped by *ServiceError.
	ErrService = errors.New("neighbor index unavailable")
)

// Match is one neighbor returned by the index. Position in the returned
// slice is the rank, closest first.
type Match struct {
	ItemID   int            `json:"item_id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Client queries neighbors of movieID. The result has at most count matches
// ordered by decreasing similarity and usually starts with movieID itself.
type Client interface {
	QueryNeighbors(ctx context.Context, movieID, count int) ([]Match, error)
}

// LookupError reports an empty or malformed index response.
type LookupError struct {
	Backend string
	MovieID int
	Reason  string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: movie %d: %s: %s", e.Backend, e.MovieID, ErrNoMatches, e.Reason)
}

// Unwrap lets errors.Is(err, ErrNoMatches) match.
func (e *LookupError) Unwrap() error {
	return ErrNoMatches
}

// ServiceError reports a failure to get an answer from the index.
type ServiceError struct {
	Backend string
	Op      string

	// StatusCode is the HTTP status for HTTP backends, 0 otherwise.
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Backend, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap exposes both ErrService and the underlying cause.
func (e *ServiceError) Unwrap() []error {
	return []error{ErrService, e.Err}
}

func noMatches(backend string, movieID int, reason string) error {
	return &LookupError{Backend: backend, MovieID: movieID, Reason: reason}
}

func validateCount(count int) error {
	if count < 1 {
		return fmt.Errorf("neighbor count must be positive, got %d", count)
	}
	return nil
}
