// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package ingest turns the raw TMDB CSV pair into normalized movie
// rows ready for graph construction.
//
// The movies and credits files are joined on movie id inside an
// in-memory DuckDB instance, which handles CSV quoting, type sniffing
// and the join itself. The embedded JSON columns (genres, keywords,
// companies, cast, crew) are then decoded per row. Normalized rows are
// cached in BadgerDB keyed by a checksum of the source files, so
// unchanged datasets skip the whole pass on restart.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"

	"github.com/cinegraph/cinegraph/internal/kg"
	"github.com/cinegraph/cinegraph/internal/logging"
	"github.com/cinegraph/cinegraph/internal/metrics"
)

// ErrDataUnavailable is returned when a source CSV file cannot be read.
var ErrDataUnavailable = errors.New("ingest: source dataset unavailable")

// Normalizer produces normalized movie rows from the TMDB dataset.
type Normalizer struct {
	moviesCSV  string
	creditsCSV string
	cache      *RowCache
}

// New creates a normalizer over the given CSV paths. cache may be nil
// to disable row caching.
func New(moviesCSV, creditsCSV string, cache *RowCache) *Normalizer {
	return &Normalizer{
		moviesCSV:  moviesCSV,
		creditsCSV: creditsCSV,
		cache:      cache,
	}
}

// Checksum returns the dataset identity without normalizing anything.
func (n *Normalizer) Checksum() (string, error) {
	checksum, err := DatasetChecksum(n.moviesCSV, n.creditsCSV)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return checksum, nil
}

// namedObject matches the TMDB embedded JSON shape [{"id":..,"name":..},...].
type namedObject struct {
	Name string `json:"name"`
}

// crewMember matches one entry of the credits crew column.
type crewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// Rows returns the normalized rows together with the dataset checksum
// that identifies the source files they came from. A cached result for
// the same checksum is returned without touching DuckDB.
func (n *Normalizer) Rows(ctx context.Context) ([]kg.MovieRow, string, error) {
	checksum, err := DatasetChecksum(n.moviesCSV, n.creditsCSV)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	if n.cache != nil {
		if rows, ok := n.cache.Get(checksum); ok {
			metrics.RowCacheHits.Inc()
			logging.Debug().Int("rows", len(rows)).Str("checksum", checksum[:12]).
				Msg("Normalized rows served from cache")
			return rows, checksum, nil
		}
		metrics.RowCacheMisses.Inc()
	}

	rows, err := n.normalize(ctx)
	if err != nil {
		return nil, "", err
	}

	if n.cache != nil {
		if err := n.cache.Put(checksum, rows); err != nil {
			logging.Warn().Err(err).Msg("Failed to cache normalized rows")
		}
	}

	return rows, checksum, nil
}

// normalize runs the DuckDB join and decodes each joined record.
func (n *Normalizer) normalize(ctx context.Context) ([]kg.MovieRow, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	// cast is a reserved word in SQL; the credits columns are quoted.
	query := fmt.Sprintf(`
		SELECT
			m.id,
			COALESCE(m.title, ''),
			COALESCE(CAST(m.release_date AS VARCHAR), ''),
			COALESCE(m.vote_average, 0),
			COALESCE(m.popularity, 0),
			COALESCE(m.vote_count, 0),
			COALESCE(m.genres, '[]'),
			COALESCE(m.keywords, '[]'),
			COALESCE(m.production_companies, '[]'),
			COALESCE(c."cast", '[]'),
			COALESCE(c.crew, '[]')
		FROM read_csv_auto('%s', quote='"', escape='"') AS m
		INNER JOIN read_csv_auto('%s', quote='"', escape='"') AS c
			ON m.id = c.movie_id
		ORDER BY m.id`,
		escapePath(n.moviesCSV), escapePath(n.creditsCSV))

	result, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer func() { _ = result.Close() }()

	var out []kg.MovieRow
	dropped := 0
	for result.Next() {
		var (
			id                                      sql.NullInt64
			title, releaseDate                      string
			rating, popularity                      float64
			voteCount                               int
			genresJSON, keywordsJSON, companiesJSON string
			castJSON, crewJSON                      string
		)
		if err := result.Scan(&id, &title, &releaseDate,
			&rating, &popularity, &voteCount,
			&genresJSON, &keywordsJSON, &companiesJSON,
			&castJSON, &crewJSON); err != nil {
			return nil, fmt.Errorf("scan joined row: %w", err)
		}

		if !id.Valid || strings.TrimSpace(title) == "" {
			dropped++
			continue
		}

		out = append(out, kg.MovieRow{
			ID:         int(id.Int64),
			Title:      title,
			Year:       extractYear(releaseDate),
			Rating:     rating,
			Popularity: popularity,
			VoteCount:  voteCount,
			Genres:     parseNameList(genresJSON),
			Keywords:   parseNameList(keywordsJSON),
			Companies:  parseNameList(companiesJSON),
			Actors:     parseNameList(castJSON),
			Directors:  parseDirectors(crewJSON),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("iterate joined rows: %w", err)
	}

	metrics.RowsNormalized.Add(float64(len(out)))
	metrics.RowsDropped.Add(float64(dropped))
	logging.Info().Int("rows", len(out)).Int("dropped", dropped).
		Msg("Dataset normalized")

	return out, nil
}

// escapePath doubles single quotes for embedding in a SQL literal.
func escapePath(p string) string {
	return strings.ReplaceAll(p, "'", "''")
}

// parseNameList decodes a TMDB embedded JSON array into its name
// fields, preserving source order. Malformed JSON yields an empty list
// rather than failing the row.
func parseNameList(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var objs []namedObject
	if err := json.Unmarshal([]byte(raw), &objs); err != nil {
		return nil
	}
	names := make([]string, 0, len(objs))
	for _, o := range objs {
		if o.Name != "" {
			names = append(names, o.Name)
		}
	}
	return names
}

// parseDirectors decodes the crew column and keeps the names of
// members whose job is exactly "Director", in source order.
func parseDirectors(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var crew []crewMember
	if err := json.Unmarshal([]byte(raw), &crew); err != nil {
		return nil
	}
	var names []string
	for _, m := range crew {
		if m.Job == "Director" && m.Name != "" {
			names = append(names, m.Name)
		}
	}
	return names
}

// extractYear takes the leading segment of an ISO release date
// ("2010-07-15" becomes "2010"). Empty dates map to "Unknown".
func extractYear(releaseDate string) string {
	releaseDate = strings.TrimSpace(releaseDate)
	if releaseDate == "" {
		return "Unknown"
	}
	if i := strings.IndexByte(releaseDate, '-'); i >= 0 {
		return releaseDate[:i]
	}
	return releaseDate
}
