// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package config loads Cinematch configuration from built-in defaults, an
// optional YAML file and environment variables, in that order of precedence.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
package config

import "time"

// Catalog source kinds.
const (
	CatalogSourceCSV    = "csv"
	CatalogSourceDuckDB = "duckdb"
	CatalogSourceSQL    = "sql"
)

// Neighbor index backends.
const (
	IndexBackendPinecone = "pinecone"
	IndexBackendPgVector = "pgvector"
	IndexBackendMemory   = "memory"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Index     IndexConfig     `koanf:"index"`
	Poster    PosterConfig    `koanf:"poster"`
	Recommend RecommendConfig `koanf:"recommend"`
	Health    HealthConfig    `koanf:"health"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists allowed origins. "*" allows all.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs requests are allowed per RateLimitWindow per client IP.
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// CatalogConfig selects where the movie catalog is loaded from.
type CatalogConfig struct {
	// Source is csv, duckdb or sql.
	Source string `koanf:"source"`

	// MoviesPath is a MovieLens style movies.csv (movieId,title,genres).
	// An imdbId column in this file is used when present.
	MoviesPath string `koanf:"movies_path"`

	// LinksPath is an optional links.csv (movieId,imdbId,tmdbId).
	LinksPath string `koanf:"links_path"`

	// DSN is used by the duckdb and sql sources. For duckdb an empty DSN
	// opens an in-memory database and reads the CSV paths with read_csv_auto.
	// For sql the scheme picks the driver: sqlite:// or postgres://.
	DSN string `koanf:"dsn"`

	// Table is the catalog table for the duckdb (with DSN) and sql sources.
	Table string `koanf:"table"`

	// RejectDuplicates makes duplicate titles a load error instead of a warning.
	RejectDuplicates bool `koanf:"reject_duplicates"`
}

// IndexConfig selects and configures the nearest-neighbor backend.
type IndexConfig struct {
	Backend  string         `koanf:"backend"`
	Timeout  time.Duration  `koanf:"timeout"`
	Pinecone PineconeConfig `koanf:"pinecone"`
	PgVector PgVectorConfig `koanf:"pgvector"`
	Breaker  BreakerConfig  `koanf:"breaker"`

	// MemoryPath is a JSON file of {"id","values","metadata"} vectors loaded
	// by the memory backend.
	MemoryPath string `koanf:"memory_path"`
}

// PineconeConfig holds Pinecone data plane settings.
type PineconeConfig struct {
	// Host is the index host, e.g. https://movie-recommendation-system-abc123.svc.us-east-1.pinecone.io
	Host      string `koanf:"host"`
	APIKey    string `koanf:"api_key"`
	Namespace string `koanf:"namespace"`
}

// PgVectorConfig holds pgvector settings.
type PgVectorConfig struct {
	DSN   string `koanf:"dsn"`
	Table string `koanf:"table"`
}

// BreakerConfig configures circuit breakers around external services.
type BreakerConfig struct {
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// PosterConfig configures OMDb poster resolution.
type PosterConfig struct {
	Enabled       bool          `koanf:"enabled"`
	OMDbAPIKey    string        `koanf:"omdb_api_key"`
	BaseURL       string        `koanf:"base_url"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	Burst         int           `koanf:"burst"`

	// CacheDir is the badger directory. Empty runs the cache in memory.
	CacheDir string        `koanf:"cache_dir"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// RecommendConfig holds assembler settings.
type RecommendConfig struct {
	DefaultCount int `koanf:"default_count"`
	MaxCount     int `koanf:"max_count"`

	// CacheTTL and CacheSize configure the result cache. A zero TTL disables it.
	CacheTTL  time.Duration `koanf:"cache_ttl"`
	CacheSize int           `koanf:"cache_size"`
}

// HealthConfig configures the background index probe.
type HealthConfig struct {
	ProbeInterval time.Duration `koanf:"probe_interval"`

	// ProbeMovieID is queried on every probe. Zero disables probing.
	ProbeMovieID int `koanf:"probe_movie_id"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string { //nolint:gocritic // small config struct
	return joinHostPort(s.Host, s.Port)
}
