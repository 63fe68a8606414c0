// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package neighbor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/breaker"
	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/metrics"
)

// Index is the Client handed to the rest of the application. It bounds each
// call with a timeout, passes it through a circuit breaker and records
// metrics. Index is safe for concurrent use.
type Index struct {
	next    Client
	backend string
	timeout time.Duration
	breaker *breaker.Breaker[[]Match]
	closer  io.Closer
	logger  zerolog.Logger
}

// NewIndex wraps next. closer may be nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewIndex(next Client, backend string, cfg config.IndexConfig, closer io.Closer, logger zerolog.Logger) *Index {
	return &Index{
		next:    next,
		backend: backend,
		timeout: cfg.Timeout,
		breaker: breaker.New[[]Match]("neighbor-"+backend, cfg.Breaker, countsAsSuccess),
		closer:  closer,
		logger:  logger.With().Str("component", "neighbor").Str("backend", backend).Logger(),
	}
}

// countsAsSuccess keeps "no matches" and caller cancellation from tripping
// the breaker.
func countsAsSuccess(err error) bool {
	return errors.Is(err, ErrNoMatches) || errors.Is(err, context.Canceled)
}

// QueryNeighbors implements Client.
func (ix *Index) QueryNeighbors(ctx context.Context, movieID, count int) ([]Match, error) {
	start := time.Now()

	if ix.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ix.timeout)
		defer cancel()
	}

	matches, err := ix.breaker.Execute(func() ([]Match, error) {
		return ix.next.QueryNeighbors(ctx, movieID, count)
	})
	err = ix.classify(ctx, err)

	kind := ""
	switch {
	case err == nil:
	case errors.Is(err, ErrNoMatches):
		kind = "no_matches"
	default:
		kind = "service"
		ix.logger.Warn().Err(err).Int("movie_id", movieID).Int("count", count).Msg("Neighbor query failed")
	}
	metrics.RecordNeighborQuery(ix.backend, kind, time.Since(start))

	return matches, err
}

// classify maps breaker rejections and deadline expiry to ServiceError.
func (ix *Index) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var lookupErr *LookupError
	var svcErr *ServiceError
	switch {
	case errors.As(err, &lookupErr), errors.As(err, &svcErr):
		return err
	case breaker.IsOpen(err):
		return &ServiceError{Backend: ix.backend, Op: "query", Err: fmt.Errorf("circuit %s: %w", ix.breaker.State(), err)}
	case ctx.Err() != nil:
		return &ServiceError{Backend: ix.backend, Op: "query", Err: ctx.Err()}
	default:
		return err
	}
}

// Backend returns the backend name.
func (ix *Index) Backend() string {
	return ix.backend
}

// BreakerState returns the circuit breaker state.
func (ix *Index) BreakerState() string {
	return ix.breaker.State()
}

// Close releases backend resources.
func (ix *Index) Close() error {
	if ix.closer == nil {
		return nil
	}
	return ix.closer.Close()
}

// Open builds the configured backend and wraps it in an Index.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Open(ctx context.Context, cfg config.IndexConfig, logger zerolog.Logger) (*Index, error) {
	switch cfg.Backend {
	case config.IndexBackendPinecone:
		client := NewPineconeClient(cfg.Pinecone, &http.Client{Transport: http.DefaultTransport})
		return NewIndex(client, backendPinecone, cfg, nil, logger), nil

	case config.IndexBackendPgVector:
		client, err := NewPgVectorClient(ctx, cfg.PgVector)
		if err != nil {
			return nil, fmt.Errorf("pgvector: %w", err)
		}
		return NewIndex(client, backendPgVector, cfg, client, logger), nil

	case config.IndexBackendMemory:
		idx, err := LoadMemoryIndex(cfg.MemoryPath)
		if err != nil {
			return nil, fmt.Errorf("memory index: %w", err)
		}
		logger.Info().Int("vectors", idx.Len()).Str("path", cfg.MemoryPath).Msg("Loaded in-memory neighbor index")
		return NewIndex(idx, backendMemory, cfg, nil, logger), nil

	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
}
