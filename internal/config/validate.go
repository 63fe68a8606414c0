// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for incoherent settings.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateIndex(); err != nil {
		return err
	}
	if err := c.validatePoster(); err != nil {
		return err
	}
	return c.validateRecommend()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be positive")
	}
	if !c.Server.RateLimitDisabled && (c.Server.RateLimitReqs < 1 || c.Server.RateLimitWindow <= 0) {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive unless DISABLE_RATE_LIMIT is set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Source {
	case CatalogSourceCSV:
		if c.Catalog.MoviesPath == "" {
			return errors.New("CATALOG_PATH is required for the csv catalog source")
		}
	case CatalogSourceDuckDB:
		if c.Catalog.DSN == "" && c.Catalog.MoviesPath == "" {
			return errors.New("CATALOG_DSN or CATALOG_PATH is required for the duckdb catalog source")
		}
	case CatalogSourceSQL:
		if c.Catalog.DSN == "" {
			return errors.New("CATALOG_DSN is required for the sql catalog source")
		}
		if !strings.HasPrefix(c.Catalog.DSN, "sqlite://") &&
			!strings.HasPrefix(c.Catalog.DSN, "postgres://") &&
			!strings.HasPrefix(c.Catalog.DSN, "postgresql://") {
			return fmt.Errorf("CATALOG_DSN must start with sqlite:// or postgres://, got %q", redactDSN(c.Catalog.DSN))
		}
	default:
		return fmt.Errorf("CATALOG_SOURCE must be csv, duckdb or sql, got %q", c.Catalog.Source)
	}
	if c.Catalog.Source != CatalogSourceCSV && c.Catalog.DSN != "" && c.Catalog.Table == "" {
		return errors.New("CATALOG_TABLE is required when CATALOG_DSN is set")
	}
	return nil
}

func (c *Config) validateIndex() error {
	if c.Index.Timeout <= 0 {
		return errors.New("INDEX_TIMEOUT must be positive")
	}
	switch c.Index.Backend {
	case IndexBackendPinecone:
		if c.Index.Pinecone.Host == "" || c.Index.Pinecone.APIKey == "" {
			return errors.New("PINECONE_HOST and PINECONE_API_KEY are required for the pinecone backend")
		}
		if err := validateHTTPURL(c.Index.Pinecone.Host, "PINECONE_HOST"); err != nil {
			return err
		}
	case IndexBackendPgVector:
		if c.Index.PgVector.DSN == "" {
			return errors.New("PGVECTOR_DSN is required for the pgvector backend")
		}
		if c.Index.PgVector.Table == "" {
			return errors.New("PGVECTOR_TABLE must not be empty")
		}
	case IndexBackendMemory:
		if c.Index.MemoryPath == "" {
			return errors.New("INDEX_MEMORY_PATH is required for the memory backend")
		}
	default:
		return fmt.Errorf("INDEX_BACKEND must be pinecone, pgvector or memory, got %q", c.Index.Backend)
	}
	b := c.Index.Breaker
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0, 1], got %v", b.FailureRatio)
	}
	if b.Timeout <= 0 {
		return errors.New("BREAKER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validatePoster() error {
	if !c.Poster.Enabled {
		return nil
	}
	if c.Poster.OMDbAPIKey == "" {
		return errors.New("OMDB_API_KEY is required when POSTER_ENABLED is true")
	}
	if err := validateHTTPURL(c.Poster.BaseURL, "OMDB_BASE_URL"); err != nil {
		return err
	}
	if c.Poster.RatePerSecond <= 0 || c.Poster.Burst < 1 {
		return errors.New("POSTER_RATE_PER_SECOND and POSTER_BURST must be positive")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.MaxCount < 1 {
		return fmt.Errorf("RECOMMEND_MAX_COUNT must be positive, got %d", r.MaxCount)
	}
	if r.DefaultCount < 1 || r.DefaultCount > r.MaxCount {
		return fmt.Errorf("RECOMMEND_DEFAULT_COUNT must be between 1 and %d, got %d", r.MaxCount, r.DefaultCount)
	}
	if r.CacheTTL > 0 && r.CacheSize < 1 {
		return errors.New("RECOMMEND_CACHE_SIZE must be positive when the result cache is enabled")
	}
	return nil
}

// validateHTTPURL checks that rawURL is an http(s) base URL.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}
	return nil
}

// redactDSN strips credentials before a DSN is echoed in an error.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
