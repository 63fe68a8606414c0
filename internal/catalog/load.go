// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/metrics"
)

// Load reads entries from the configured source and builds the snapshot.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Load(ctx context.Context, cfg config.CatalogConfig, logger zerolog.Logger) (*Catalog, error) {
	logger = logger.With().Str("component", "catalog").Str("source", cfg.Source).Logger()
	start := time.Now()

	var (
		entries []Entry
		err     error
	)
	switch cfg.Source {
	case config.CatalogSourceCSV:
		entries, err = LoadCSV(cfg.MoviesPath, cfg.LinksPath)
	case config.CatalogSourceDuckDB:
		entries, err = LoadDuckDB(ctx, cfg.DSN, cfg.Table, cfg.MoviesPath, cfg.LinksPath)
	case config.CatalogSourceSQL:
		entries, err = LoadSQL(ctx, cfg.DSN, cfg.Table)
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	cat, err := New(entries, WithRejectDuplicates(cfg.RejectDuplicates))
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	for _, d := range cat.Duplicates() {
		logger.Warn().
			Str("title", d.Title).
			Int("kept_id", d.KeptID).
			Int("shadowed_id", d.ShadowedID).
			Msg("Duplicate catalog title, first entry wins")
	}
	metrics.SetCatalogStats(cat.Len(), len(cat.Duplicates()))

	logger.Info().
		Int("entries", cat.Len()).
		Int("genres", len(cat.Genres())).
		Dur("duration", time.Since(start)).
		Msg("Catalog loaded")

	return cat, nil
}
