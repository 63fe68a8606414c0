// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/neighbor"
)

// IndexProber is the neighbor index as seen by the probe.
type IndexProber interface {
	QueryNeighbors(ctx context.Context, movieID, count int) ([]neighbor.Match, error)
}

// IndexProbeConfig configures IndexProbeService.
type IndexProbeConfig struct {
	// Interval between probes. Default: 1m
	Interval time.Duration

	// MovieID is queried with count 1.
	MovieID int

	// Timeout bounds a single probe. Default: 5s
	Timeout time.Duration
}

// IndexProbeService periodically queries the neighbor index so readiness
// reflects index reachability before a user request hits it.
//
// An empty result still proves the index answered, so ErrNoMatches counts
// as healthy. Only service errors mark the probe failed.
type IndexProbeService struct {
	index  IndexProber
	config IndexProbeConfig
	logger zerolog.Logger
	name   string

	mu      sync.RWMutex
	ok      bool
	at      time.Time
	lastErr error
}

// NewIndexProbeService creates the probe.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewIndexProbeService(index IndexProber, cfg IndexProbeConfig, logger zerolog.Logger) *IndexProbeService {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &IndexProbeService{
		index:  index,
		config: cfg,
		logger: logger.With().Str("service", "index-probe").Logger(),
		name:   "index-probe",
	}
}

// Serve implements suture.Service. It probes once at start and then on
// every tick.
func (s *IndexProbeService) Serve(ctx context.Context) error {
	s.logger.Info().
		Int("movie_id", s.config.MovieID).
		Dur("interval", s.config.Interval).
		Msg("index probe starting")

	s.probe(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

func (s *IndexProbeService) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	_, err := s.index.QueryNeighbors(probeCtx, s.config.MovieID, 1)
	if errors.Is(err, neighbor.ErrNoMatches) {
		err = nil
	}
	if ctx.Err() != nil {
		// Shutting down; keep the previous result.
		return
	}

	s.mu.Lock()
	wasOK := s.ok || s.at.IsZero()
	s.ok = err == nil
	s.at = time.Now()
	s.lastErr = err
	s.mu.Unlock()

	metrics.SetIndexProbe(err == nil)

	switch {
	case err != nil && wasOK:
		s.logger.Warn().Err(err).Msg("index probe failed")
	case err != nil:
		s.logger.Debug().Err(err).Msg("index probe still failing")
	case !wasOK:
		s.logger.Info().Dur("latency", time.Since(start)).Msg("index probe recovered")
	default:
		s.logger.Debug().Dur("latency", time.Since(start)).Msg("index probe ok")
	}
}

// LastProbe returns the latest result. at is zero before the first probe.
func (s *IndexProbeService) LastProbe() (ok bool, at time.Time, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ok, s.at, s.lastErr
}

// String names the service in suture events.
func (s *IndexProbeService) String() string {
	return s.name
}
