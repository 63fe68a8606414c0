// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package main runs the Cinematch recommendation server.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, config.yaml, environment)
//  2. Logging
//  3. Movie catalog (CSV, DuckDB or SQL)
//  4. Neighbor index client (Pinecone, pgvector or in-memory)
//  5. Optional poster resolver (OMDb with a Badger cache)
//  6. Supervisor tree with the HTTP server, index probe and cache janitor
//
// SIGINT and SIGTERM cancel the tree; the HTTP server drains in-flight
// requests for up to 10s.
//
// Minimal local run against an in-memory index:
//
//	export CATALOG_PATH=./data/movies.csv
//	export CATALOG_LINKS_PATH=./data/links.csv
//	export INDEX_BACKEND=memory
//	export INDEX_MEMORY_PATH=./data/vectors.json
//	./cinematch
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logger.Info().
		Str("catalog_source", cfg.Catalog.Source).
		Str("index_backend", cfg.Index.Backend).
		Bool("posters", cfg.Poster.Enabled).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting Cinematch")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Startup failed")
		stop()
		os.Exit(1)
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Error().Err(err).Msg("Error releasing resources")
		}
	}()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create supervisor tree")
		return
	}
	a.supervise(tree, cfg, logger)

	logger.Info().Int("movies", a.catalog.Len()).Msg("Serving")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logger.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logger.Info().Msg("Stopped")
}
