// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cinegraph/config.yaml",
	"/etc/cinegraph/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all sensible default values.
// These are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Directory:    "data",
			MoviesCSV:    "tmdb_5000_movies.csv",
			CreditsCSV:   "tmdb_5000_credits.csv",
			CacheEnabled: true,
		},
		Graph: GraphConfig{
			ModelFile:      "kg_model.bin",
			PersistEnabled: true,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		API: APIConfig{
			DefaultLimit: 10,
			MaxLimit:     50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Recommend: RecommendConfig{
			Seed: 0,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
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

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - CINEGRAPH_DATA_DIR -> data.directory
//   - MOVIES_CSV         -> data.movies_csv
//   - HTTP_PORT          -> server.port
//   - LOG_LEVEL          -> logging.level
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Data mappings
		"cinegraph_data_dir": "data.directory",
		"movies_csv":         "data.movies_csv",
		"credits_csv":        "data.credits_csv",
		"row_cache_enabled":  "data.cache_enabled",

		// Graph mappings
		"kg_model_file":      "graph.model_file",
		"kg_persist_enabled": "graph.persist_enabled",

		// Server mappings
		"http_host":           "server.host",
		"http_port":           "server.port",
		"http_timeout":        "server.timeout",
		"cors_origins":        "server.cors_origins",
		"rate_limit_requests": "server.rate_limit_reqs",
		"rate_limit_window":   "server.rate_limit_window",
		"disable_rate_limit":  "server.rate_limit_disabled",

		// API mappings
		"api_default_limit": "api.default_limit",
		"api_max_limit":     "api.max_limit",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Recommender mappings
		"recommend_seed": "recommend.seed",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unmapped keys are skipped so random environment variables do not
	// pollute the config.
	return ""
}

// findConfigFile searches for a config file in the default paths.
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

// sliceConfigPaths defines which config paths are parsed as
// comma-separated slices when supplied via environment variables.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars arrive as strings, but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
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
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}
