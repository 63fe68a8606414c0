// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package poster resolves movie poster URLs from OMDb by IMDb id.
//
// Lookups are cached in BadgerDB, including "no poster" answers, throttled
// with a token bucket and guarded by a circuit breaker. Posters are
// decoration: callers log failures and carry on without one.
package poster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cinematch/internal/breaker"
	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/metrics"
)

// Lookup results reported to metrics.
const (
	resultHit      = "hit"
	resultFetched  = "fetched"
	resultNoPoster = "no_poster"
	resultError    = "error"
)

var (
	// ErrInvalidRef is returned for reference ids that are not IMDb numbers.
	ErrInvalidRef = errors.New("invalid external reference id")

	// ErrUnavailable wraps OMDb transport failures, bad statuses and open circuits.
	ErrUnavailable = errors.New("poster service unavailable")
)

// Resolver looks up poster URLs. It is safe for concurrent use.
type Resolver struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *breaker.Breaker[string]
	cache    Cache
	cacheTTL time.Duration
	closer   io.Closer
	logger   zerolog.Logger
}

// NewResolver creates a resolver over cache. A nil client uses one with
// cfg.Timeout.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func NewResolver(cfg config.PosterConfig, breakerCfg config.BreakerConfig, cache Cache, client *http.Client, logger zerolog.Logger) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(cfg.RatePerSecond)
	if cfg.RatePerSecond <= 0 {
		limit = rate.Inf
	}
	return &Resolver{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.OMDbAPIKey,
		client:   client,
		limiter:  rate.NewLimiter(limit, burst),
		breaker:  breaker.New[string]("omdb", breakerCfg, canceledByCaller),
		cache:    cache,
		cacheTTL: cfg.CacheTTL,
		logger:   logger.With().Str("component", "poster").Logger(),
	}
}

// Open creates a resolver with a badger cache in cfg.CacheDir. Close
// releases the cache.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func Open(cfg config.PosterConfig, breakerCfg config.BreakerConfig, logger zerolog.Logger) (*Resolver, error) {
	cache, err := OpenBadgerCache(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	r := NewResolver(cfg, breakerCfg, cache, nil, logger)
	r.closer = cache
	return r, nil
}

// PosterURL returns the poster URL for an IMDb number, with or without the
// "tt" prefix. An empty ref returns "" without a lookup. A missing poster
// is "" with no error.
func (r *Resolver) PosterURL(ctx context.Context, externalRefID string) (string, error) {
	ref := strings.TrimPrefix(strings.TrimSpace(externalRefID), "tt")
	if ref == "" {
		return "", nil
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, externalRefID)
	}
	imdbID := fmt.Sprintf("tt%07d", n)

	if cached, found, err := r.cache.Get(imdbID); err != nil {
		r.logger.Warn().Err(err).Str("imdb_id", imdbID).Msg("Poster cache read failed")
	} else if found {
		metrics.RecordPosterLookup(resultHit)
		return cached, nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		metrics.RecordPosterLookup(resultError)
		return "", fmt.Errorf("poster rate limit wait: %w", err)
	}

	posterURL, err := r.breaker.Execute(func() (string, error) {
		return r.fetch(ctx, imdbID)
	})
	if err != nil {
		metrics.RecordPosterLookup(resultError)
		if breaker.IsOpen(err) {
			return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return "", err
	}

	if posterURL == "" {
		metrics.RecordPosterLookup(resultNoPoster)
	} else {
		metrics.RecordPosterLookup(resultFetched)
	}
	if err := r.cache.Set(imdbID, posterURL, r.cacheTTL); err != nil {
		r.logger.Warn().Err(err).Str("imdb_id", imdbID).Msg("Poster cache write failed")
	}
	return posterURL, nil
}

// Close releases the cache opened by Open.
func (r *Resolver) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

type omdbResponse struct {
	Poster   string `json:"Poster"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func (r *Resolver) fetch(ctx context.Context, imdbID string) (string, error) {
	q := url.Values{}
	q.Set("i", imdbID)
	q.Set("apikey", r.apiKey)
	endpoint := strings.TrimRight(r.baseURL, "/") + "/?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build omdb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", fmt.Errorf("omdb request: %w", context.Canceled)
		}
		return "", fmt.Errorf("%w: omdb request: %w", ErrUnavailable, redact(err, r.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return "", fmt.Errorf("%w: omdb returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var body omdbResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode omdb response: %w", ErrUnavailable, err)
	}

	if strings.EqualFold(body.Response, "False") {
		// "Movie not found!" and "Incorrect IMDb ID." are answers, not failures.
		if strings.Contains(strings.ToLower(body.Error), "not found") ||
			strings.Contains(strings.ToLower(body.Error), "incorrect imdb id") {
			return "", nil
		}
		return "", fmt.Errorf("%w: omdb error: %s", ErrUnavailable, body.Error)
	}

	if body.Poster == "N/A" {
		return "", nil
	}
	return body.Poster, nil
}

// redact keeps the API key out of url.Error messages.
// canceledByCaller keeps client disconnects from tripping the breaker.
func canceledByCaller(err error) bool {
	return errors.Is(err, context.Canceled)
}

func redact(err error, secret string) error {
	if secret == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, secret) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, secret, "REDACTED"))
}
