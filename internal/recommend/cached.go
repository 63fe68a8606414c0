// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/cinematch/internal/cache"
	"github.com/tomtom215/cinematch/internal/metrics"
)

// CachedAssembler caches successful results of the wrapped Recommender,
// empty results included. Errors are never cached.
type CachedAssembler struct {
	next  Recommender
	cache *cache.LRU[[]Record]
}

// NewCachedAssembler wraps next with an LRU of size entries kept for ttl.
func NewCachedAssembler(next Recommender, size int, ttl time.Duration) *CachedAssembler {
	return &CachedAssembler{
		next:  next,
		cache: cache.NewLRU[[]Record](size, ttl),
	}
}

// Recommend serves req from the cache or the wrapped Recommender.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (c *CachedAssembler) Recommend(ctx context.Context, req Request) ([]Record, error) {
	records, _, err := c.RecommendCached(ctx, req)
	return records, err
}

// RecommendCached is Recommend that also reports whether the result came
// from the cache.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (c *CachedAssembler) RecommendCached(ctx context.Context, req Request) ([]Record, bool, error) {
	key := cacheKey(req)
	if records, ok := c.cache.Get(key); ok {
		metrics.RecommendCacheHits.Inc()
		return cloneRecords(records), true, nil
	}
	metrics.RecommendCacheMisses.Inc()

	records, err := c.next.Recommend(ctx, req)
	if err != nil {
		return nil, false, err
	}
	c.cache.Add(key, cloneRecords(records))
	return records, false, nil
}

// Purge drops every cached result.
func (c *CachedAssembler) Purge() {
	c.cache.Clear()
}

// CleanupExpired drops expired results and returns how many were removed.
func (c *CachedAssembler) CleanupExpired() int {
	return c.cache.CleanupExpired()
}

// Stats reports cache hits, misses and size.
func (c *CachedAssembler) Stats() (hits, misses int64, size int) {
	return c.cache.Stats()
}

// cacheKey is order and case insensitive in the genre filter. Titles stay
// case sensitive because catalog lookup is exact.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func cacheKey(req Request) string {
	genres := make([]string, 0, len(req.Genres))
	seen := make(map[string]struct{}, len(req.Genres))
	for _, g := range req.Genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if _, dup := seen[g]; g == "" || dup {
			continue
		}
		seen[g] = struct{}{}
		genres = append(genres, g)
	}
	sort.Strings(genres)

	var b strings.Builder
	b.WriteString("rec:")
	b.WriteString(strconv.Itoa(req.Count))
	b.WriteByte(':')
	b.WriteString(strings.Join(genres, ","))
	b.WriteByte(':')
	b.WriteString(req.Title)
	return b.String()
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
