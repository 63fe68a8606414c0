// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cinematch/config.yaml",
	"/etc/cinematch/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Catalog: CatalogConfig{
			Source:     CatalogSourceCSV,
			MoviesPath: "data/movies.csv",
			LinksPath:  "data/links.csv",
			Table:      "movies",
		},
		Index: IndexConfig{
			Backend: IndexBackendPinecone,
			Timeout: 5 * time.Second,
			PgVector: PgVectorConfig{
				Table: "movie_embeddings",
			},
			Breaker: BreakerConfig{
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      30 * time.Second,
				MinRequests:  10,
				FailureRatio: 0.6,
			},
		},
		Poster: PosterConfig{
			Enabled:       false,
			BaseURL:       "https://www.omdbapi.com/",
			Timeout:       5 * time.Second,
			RatePerSecond: 10,
			Burst:         5,
			CacheTTL:      7 * 24 * time.Hour,
		},
		Recommend: RecommendConfig{
			DefaultCount: 20,
			MaxCount:     100,
			CacheSize:    1000,
		},
		Health: HealthConfig{
			ProbeInterval: time.Minute,
			ProbeMovieID:  1,
		},
	}
}

// Load loads configuration in three layers:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Server
	"http_port":           "server.port",
	"http_host":           "server.host",
	"http_timeout":        "server.timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Catalog
	"catalog_source":            "catalog.source",
	"catalog_path":              "catalog.movies_path",
	"catalog_links_path":        "catalog.links_path",
	"catalog_dsn":               "catalog.dsn",
	"catalog_table":             "catalog.table",
	"catalog_reject_duplicates": "catalog.reject_duplicates",

	// Index
	"index_backend":         "index.backend",
	"index_timeout":         "index.timeout",
	"index_memory_path":     "index.memory_path",
	"pinecone_host":         "index.pinecone.host",
	"pinecone_api_key":      "index.pinecone.api_key",
	"pinecone_namespace":    "index.pinecone.namespace",
	"pgvector_dsn":          "index.pgvector.dsn",
	"pgvector_table":        "index.pgvector.table",
	"breaker_max_requests":  "index.breaker.max_requests",
	"breaker_interval":      "index.breaker.interval",
	"breaker_timeout":       "index.breaker.timeout",
	"breaker_min_requests":  "index.breaker.min_requests",
	"breaker_failure_ratio": "index.breaker.failure_ratio",

	// Poster
	"poster_enabled":         "poster.enabled",
	"omdb_api_key":           "poster.omdb_api_key",
	"omdb_base_url":          "poster.base_url",
	"poster_timeout":         "poster.timeout",
	"poster_rate_per_second": "poster.rate_per_second",
	"poster_burst":           "poster.burst",
	"poster_cache_dir":       "poster.cache_dir",
	"poster_cache_ttl":       "poster.cache_ttl",

	// Recommend
	"recommend_default_count": "recommend.default_count",
	"recommend_max_count":     "recommend.max_count",
	"recommend_cache_ttl":     "recommend.cache_ttl",
	"recommend_cache_size":    "recommend.cache_size",

	// Health
	"health_probe_interval": "health.probe_interval",
	"health_probe_movie_id": "health.probe_movie_id",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are skipped.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - PINECONE_API_KEY -> index.pinecone.api_key
//   - OMDB_API_KEY -> poster.omdb_api_key
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
