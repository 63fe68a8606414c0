// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/api"
	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/neighbor"
	"github.com/tomtom215/cinematch/internal/poster"
	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/supervisor"
	"github.com/tomtom215/cinematch/internal/supervisor/services"
)

// app holds the wired components. close releases what open acquired.
type app struct {
	catalog     *catalog.Catalog
	index       *neighbor.Index
	posters     *poster.Resolver
	recommender recommend.Recommender
	cache       *recommend.CachedAssembler
	probe       *services.IndexProbeService
	handler     http.Handler
}

// newApp loads the catalog, opens the neighbor index and optional poster
// resolver, and builds the HTTP handler.
//
//nolint:gocritic // zerolog.Logger is passed by value
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	cat, err := catalog.Load(ctx, cfg.Catalog, logger)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	index, err := neighbor.Open(ctx, cfg.Index, logger)
	if err != nil {
		return nil, fmt.Errorf("open neighbor index: %w", err)
	}
	a := &app{catalog: cat, index: index}

	var opts []recommend.Option
	opts = append(opts, recommend.WithLogger(logger))
	if cfg.Poster.Enabled {
		a.posters, err = poster.Open(cfg.Poster, cfg.Index.Breaker, logger)
		if err != nil {
			_ = a.close()
			return nil, fmt.Errorf("open poster resolver: %w", err)
		}
		opts = append(opts, recommend.WithPosters(a.posters))
	}

	a.recommender = recommend.NewAssembler(cat, index, opts...)
	if cfg.Recommend.CacheTTL > 0 {
		a.cache = recommend.NewCachedAssembler(a.recommender, cfg.Recommend.CacheSize, cfg.Recommend.CacheTTL)
		a.recommender = a.cache
	}

	handlerOpts := []api.HandlerOption{
		api.WithIndexStatus(index),
		api.WithRequestTimeout(cfg.Server.Timeout),
	}
	if cfg.Health.ProbeMovieID > 0 {
		a.probe = services.NewIndexProbeService(index, services.IndexProbeConfig{
			Interval: cfg.Health.ProbeInterval,
			MovieID:  cfg.Health.ProbeMovieID,
			Timeout:  cfg.Index.Timeout,
		}, logger)
		handlerOpts = append(handlerOpts, api.WithProbeStatus(a.probe))
	}

	handler := api.NewHandler(cat, a.recommender, cfg.Recommend, handlerOpts...)
	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFromServer(cfg.Server))
	a.handler = api.NewRouter(handler, mw).SetupChi()

	return a, nil
}

// supervise adds the app's services to tree.
//
//nolint:gocritic // zerolog.Logger is passed by value
func (a *app) supervise(tree *supervisor.SupervisorTree, cfg *config.Config, logger zerolog.Logger) *http.Server {
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second, logger))

	if a.probe != nil {
		tree.AddMaintenanceService(a.probe)
	}
	if a.cache != nil {
		tree.AddMaintenanceService(services.NewCacheJanitorService(a.cache, cfg.Recommend.CacheTTL, logger))
	}
	return server
}

func (a *app) close() error {
	var errs []error
	if a.posters != nil {
		errs = append(errs, a.posters.Close())
	}
	if a.index != nil {
		errs = append(errs, a.index.Close())
	}
	return errors.Join(errs...)
}
