// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Cinegraph server builds a knowledge graph over the TMDB movie
// dataset and serves graph-based recommendations over HTTP.
//
// # Quick Start
//
//	CINEGRAPH_DATA_DIR=./data ./cinegraph
//
// The data directory must contain tmdb_5000_movies.csv and
// tmdb_5000_credits.csv. On first start the graph is built from the
// CSVs and persisted; later starts load it from disk as long as the
// dataset is unchanged.
//
// # Configuration
//
// Settings load from built-in defaults, an optional config.yaml and
// environment variables, in increasing precedence. See the config
// package for the full list of keys.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cinegraph/cinegraph/internal/api"
	"github.com/cinegraph/cinegraph/internal/config"
	"github.com/cinegraph/cinegraph/internal/ingest"
	"github.com/cinegraph/cinegraph/internal/kg/store"
	"github.com/cinegraph/cinegraph/internal/logging"
	"github.com/cinegraph/cinegraph/internal/recommend"
	"github.com/cinegraph/cinegraph/internal/supervisor"
	"github.com/cinegraph/cinegraph/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("data_dir", cfg.Data.Directory).
		Str("movies_csv", cfg.Data.MoviesCSV).
		Str("credits_csv", cfg.Data.CreditsCSV).
		Msg("Starting Cinegraph")

	// Normalized-row cache, optional.
	var rowCache *ingest.RowCache
	if cfg.Data.CacheEnabled {
		cacheDB, err := ingest.OpenRowCacheDB(filepath.Join(cfg.Data.Directory, "rowcache"))
		if err != nil {
			logging.Warn().Err(err).Msg("Row cache unavailable, continuing without it")
		} else {
			defer func() {
				if err := cacheDB.Close(); err != nil {
					logging.Error().Err(err).Msg("Error closing row cache")
				}
			}()
			rowCache = ingest.NewRowCache(cacheDB)
		}
	}

	normalizer := ingest.New(
		filepath.Join(cfg.Data.Directory, cfg.Data.MoviesCSV),
		filepath.Join(cfg.Data.Directory, cfg.Data.CreditsCSV),
		rowCache,
	)

	// Graph persistence, optional.
	var graphStore recommend.GraphStore
	if cfg.Graph.PersistEnabled {
		s, err := store.New(filepath.Join(cfg.Data.Directory, cfg.Graph.ModelFile))
		if err != nil {
			logging.Warn().Err(err).Msg("Graph store unavailable, running in memory")
		} else {
			graphStore = s
		}
	}

	engine := recommend.New(normalizer, graphStore, recommend.WithSeed(cfg.Recommend.Seed))

	handlers := api.NewHandlers(engine, cfg.API.DefaultLimit, cfg.API.MaxLimit)
	middleware := api.NewMiddleware(&api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
		RateLimitDisabled:  cfg.Server.RateLimitDisabled,
	})
	router := api.NewRouter(handlers, middleware, cfg.Server.Timeout)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddEngineService(services.NewEngineInitService(engine))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	logging.Info().Msg("Cinegraph stopped gracefully")
}
