// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package config provides layered configuration loading for Cinegraph.
//
// Configuration is loaded via Koanf v2 with the following precedence
// (highest wins):
//
//  1. Environment variables (CINEGRAPH_DATA_DIR, HTTP_PORT, LOG_LEVEL, ...)
//  2. Optional YAML config file (config.yaml)
//  3. Built-in defaults
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Cinegraph server.
type Config struct {
	Data      DataConfig      `koanf:"data"`
	Graph     GraphConfig     `koanf:"graph"`
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// DataConfig describes the source datasets and the writable data directory.
type DataConfig struct {
	// Directory holds the persisted graph blob and the normalized-row cache.
	Directory string `koanf:"directory"`

	// MoviesCSV is the movie-attributes dataset (TMDB movies export),
	// relative to the data directory.
	MoviesCSV string `koanf:"movies_csv"`

	// CreditsCSV is the cast/crew dataset, joined to movies on movie id,
	// relative to the data directory.
	CreditsCSV string `koanf:"credits_csv"`

	// CacheEnabled controls the normalized-row cache. When disabled the
	// normalizer re-reads the CSVs on every cold start.
	CacheEnabled bool `koanf:"cache_enabled"`
}

// GraphConfig controls graph construction and persistence.
type GraphConfig struct {
	// ModelFile is the filename of the persisted graph blob, relative to
	// the data directory.
	ModelFile string `koanf:"model_file"`

	// PersistEnabled controls whether the built graph is written back to
	// disk. When persistence fails the engine keeps serving from memory.
	PersistEnabled bool `koanf:"persist_enabled"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// APIConfig holds API result bounds.
type APIConfig struct {
	// DefaultLimit is applied when a request omits n/limit.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit is the upper bound accepted for n/limit.
	MaxLimit int `koanf:"max_limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// RecommendConfig holds recommender settings.
type RecommendConfig struct {
	// Seed seeds the random-sampling source. 0 selects a time-based seed.
	Seed int64 `koanf:"seed"`
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if c.Data.Directory == "" {
		return fmt.Errorf("data.directory must not be empty")
	}
	if c.Data.MoviesCSV == "" {
		return fmt.Errorf("data.movies_csv must not be empty")
	}
	if c.Data.CreditsCSV == "" {
		return fmt.Errorf("data.credits_csv must not be empty")
	}
	if c.Graph.ModelFile == "" {
		return fmt.Errorf("graph.model_file must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.API.DefaultLimit < 1 || c.API.DefaultLimit > c.API.MaxLimit {
		return fmt.Errorf("api.default_limit must be between 1 and api.max_limit, got %d", c.API.DefaultLimit)
	}
	if c.API.MaxLimit < 1 {
		return fmt.Errorf("api.max_limit must be at least 1, got %d", c.API.MaxLimit)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs < 1 {
			return fmt.Errorf("server.rate_limit_reqs must be at least 1, got %d", c.Server.RateLimitReqs)
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("server.rate_limit_window must be positive, got %s", c.Server.RateLimitWindow)
		}
	}
	return nil
}
