// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"context"
	"time"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/recommend"
)

// MovieCatalog is the catalog view used by the movie and health endpoints.
type MovieCatalog interface {
	ResolveAttributes(movieID int) (catalog.Entry, error)
	Search(query string, limit int) []catalog.Entry
	Len() int
}

// IndexStatus reports neighbor index state for readiness.
type IndexStatus interface {
	Backend() string
	BreakerState() string
}

// ProbeStatus reports the most recent background index probe.
type ProbeStatus interface {
	LastProbe() (ok bool, at time.Time, err error)
}

// cachedRecommender is implemented by recommend.CachedAssembler.
type cachedRecommender interface {
	RecommendCached(ctx context.Context, req recommend.Request) ([]recommend.Record, bool, error)
}

// Handler serves the API endpoints.
type Handler struct {
	catalog     MovieCatalog
	recommender recommend.Recommender
	index       IndexStatus
	probe       ProbeStatus
	cfg         config.RecommendConfig
	timeout     time.Duration
	startedAt   time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithIndexStatus exposes index backend and breaker state on /health/ready.
func WithIndexStatus(s IndexStatus) HandlerOption {
	return func(h *Handler) { h.index = s }
}

// WithProbeStatus makes readiness depend on the background index probe.
func WithProbeStatus(p ProbeStatus) HandlerOption {
	return func(h *Handler) { h.probe = p }
}

// WithRequestTimeout bounds each recommendation request.
func WithRequestTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) { h.timeout = d }
}

// NewHandler creates a Handler.
func NewHandler(cat MovieCatalog, rec recommend.Recommender, cfg config.RecommendConfig, opts ...HandlerOption) *Handler {
	h := &Handler{
		catalog:     cat,
		recommender: rec,
		cfg:         cfg,
		timeout:     30 * time.Second,
		startedAt:   time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
