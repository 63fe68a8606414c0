// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/neighbor"
)

// Assembler joins catalog lookups with neighbor queries. It holds no mutable
// state and is safe for concurrent use.
type Assembler struct {
	catalog Catalog
	index   neighbor.Client
	posters PosterResolver
	logger  zerolog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithPosters enriches records with poster URLs. Poster failures leave
// PosterURL empty and never fail the request.
func WithPosters(r PosterResolver) Option {
	return func(a *Assembler) {
		a.posters = r
	}
}

// WithLogger sets the assembler logger.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// NewAssembler creates an assembler over cat and index.
func NewAssembler(cat Catalog, index neighbor.Client, opts ...Option) *Assembler {
	a := &Assembler{
		catalog: cat,
		index:   index,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With().Str("component", "recommend").Logger()
	return a
}

// Recommend returns up to req.Count movies similar to req.Title.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (a *Assembler) Recommend(ctx context.Context, req Request) ([]Record, error) {
	start := time.Now()
	records, err := a.recommend(ctx, req)
	metrics.RecordRecommendation(outcome(records, err), len(records), time.Since(start))
	return records, err
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (a *Assembler) recommend(ctx context.Context, req Request) ([]Record, error) {
	if req.Count < 1 {
		return nil, fmt.Errorf("%w: count must be positive, got %d", ErrInvalidRequest, req.Count)
	}

	logger := logging.CtxWithLogger(ctx, a.logger)

	movieID, err := a.catalog.ResolveID(req.Title)
	if err != nil {
		return nil, err
	}

	logger = logger.With().Int("movie_id", movieID).Logger()
	logger.Debug().
		Str("title", req.Title).
		Int("count", req.Count).
		Strs("genres", req.Genres).
		Msg("Resolved recommendation seed")

	// One extra for the self match, which the index normally ranks first.
	matches, err := a.index.QueryNeighbors(ctx, movieID, req.Count+1)
	if err != nil {
		if errors.Is(err, neighbor.ErrNoMatches) {
			logger.Debug().Err(err).Msg("No neighbors for movie")
			return []Record{}, nil
		}
		return nil, fmt.Errorf("query neighbors of movie %d: %w", movieID, err)
	}

	filter := genreSet(req.Genres)
	records := make([]Record, 0, req.Count)
	candidates, skipped := 0, 0

	// At most Count non-self neighbors are considered, so a filtered result
	// is always a subset of the unfiltered one.
	for _, m := range matches {
		if m.ItemID == movieID {
			continue
		}
		if candidates == req.Count {
			break
		}
		candidates++

		name := metadataString(m.Metadata, neighbor.MetadataMovieName, UnknownTitle)
		genre := metadataString(m.Metadata, neighbor.MetadataMovieGenre, UnknownGenre)
		if len(filter) > 0 && !intersects(filter, genre) {
			skipped++
			continue
		}

		entry, err := a.catalog.ResolveAttributes(m.ItemID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				logger.Error().
					Int("neighbor_movie_id", m.ItemID).
					Msg("Neighbor index references a movie missing from the catalog")
				return nil, &ConsistencyError{QueryMovieID: movieID, NeighborMovieID: m.ItemID, Err: err}
			}
			return nil, fmt.Errorf("resolve attributes of movie %d: %w", m.ItemID, err)
		}

		records = append(records, Record{
			MovieID:       m.ItemID,
			MovieName:     name,
			MovieGenre:    genre,
			ExternalRefID: entry.ExternalRefID,
			Score:         m.Score,
		})
	}

	a.attachPosters(ctx, logger, records)

	logger.Debug().
		Int("matches", len(matches)).
		Int("filtered", skipped).
		Int("returned", len(records)).
		Msg("Recommendation complete")

	return records, nil
}

//nolint:gocritic // zerolog.Logger is passed by value by convention
func (a *Assembler) attachPosters(ctx context.Context, logger zerolog.Logger, records []Record) {
	if a.posters == nil {
		return
	}
	for i := range records {
		if records[i].ExternalRefID == "" {
			continue
		}
		url, err := a.posters.PosterURL(ctx, records[i].ExternalRefID)
		if err != nil {
			logger.Warn().Err(err).
				Int("neighbor_movie_id", records[i].MovieID).
				Str("external_ref_id", records[i].ExternalRefID).
				Msg("Poster lookup failed")
			if ctx.Err() != nil {
				return
			}
			continue
		}
		records[i].PosterURL = url
	}
}

// metadataString reads key as display text. Lists are joined with spaces
// so both "Adventure Fantasy" and ["Adventure","Fantasy"] work.
func metadataString(md map[string]any, key, fallback string) string {
	switch v := md[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			if s, ok := p.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	case []string:
		if s := strings.TrimSpace(strings.Join(v, " ")); s != "" {
			return s
		}
	}
	return fallback
}

func genreSet(genres []string) map[string]struct{} {
	if len(genres) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		if g = strings.TrimSpace(g); g != "" {
			set[strings.ToLower(g)] = struct{}{}
		}
	}
	return set
}

func intersects(filter map[string]struct{}, genre string) bool {
	for _, g := range strings.Fields(genre) {
		if _, ok := filter[strings.ToLower(g)]; ok {
			return true
		}
	}
	return false
}

func outcome(records []Record, err error) string {
	var consistency *ConsistencyError
	switch {
	case err == nil && len(records) == 0:
		return metrics.OutcomeEmpty
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &consistency):
		return metrics.OutcomeInconsistent
	case errors.Is(err, catalog.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, neighbor.ErrService):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeError
	}
}
