// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ExpiringCache drops expired entries on demand.
type ExpiringCache interface {
	CleanupExpired() int
}

// CacheJanitorService evicts expired recommendation results on a timer.
// The LRU only expires lazily on Get, so entries nobody asks for again
// would otherwise hold memory until evicted by size.
type CacheJanitorService struct {
	cache    ExpiringCache
	interval time.Duration
	logger   zerolog.Logger
}

// NewCacheJanitorService creates the janitor. interval defaults to 1m.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewCacheJanitorService(cache ExpiringCache, interval time.Duration, logger zerolog.Logger) *CacheJanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CacheJanitorService{
		cache:    cache,
		interval: interval,
		logger:   logger.With().Str("service", "cache-janitor").Logger(),
	}
}

// Serve implements suture.Service.
func (s *CacheJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.cache.CleanupExpired(); n > 0 {
				s.logger.Debug().Int("removed", n).Msg("expired recommendation results removed")
			}
		}
	}
}

func (s *CacheJanitorService) String() string {
	return "cache-janitor"
}
