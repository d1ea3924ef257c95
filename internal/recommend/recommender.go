// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package recommend is the facade over the knowledge graph: it owns
// graph lifecycle (load-or-build with persistence) and exposes the
// ranked query operations in their outward-facing shape.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/cinegraph/cinegraph/internal/kg"
	"github.com/cinegraph/cinegraph/internal/kg/store"
	"github.com/cinegraph/cinegraph/internal/logging"
	"github.com/cinegraph/cinegraph/internal/metrics"
)

// DataProvider supplies the normalized dataset. Checksum must be cheap
// relative to Rows so initialization can test persisted-graph freshness
// before paying for a full normalization pass.
type DataProvider interface {
	Checksum() (string, error)
	Rows(ctx context.Context) ([]kg.MovieRow, string, error)
}

// GraphStore persists a built graph between runs.
type GraphStore interface {
	Save(g *kg.Graph, sourceChecksum string) error
	Load() (*kg.Graph, *store.Metadata, error)
}

// Recommender is the engine facade. It is safe for concurrent use
// after Initialize; operations before initialization fail with
// ErrNotInitialized.
type Recommender struct {
	provider DataProvider
	store    GraphStore // nil disables persistence

	initMu sync.Mutex

	mu              sync.RWMutex
	graph           *kg.Graph
	checksum        string
	persistDegraded bool

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Recommender.
type Option func(*Recommender)

// WithSeed fixes the random source used by RandomMovies. A zero seed
// keeps the default time-based seeding.
func WithSeed(seed int64) Option {
	return func(r *Recommender) {
		if seed != 0 {
			r.rng = rand.New(rand.NewSource(seed))
		}
	}
}

// New creates a recommender over the given provider. gs may be nil to
// run purely in memory.
func New(provider DataProvider, gs GraphStore, opts ...Option) *Recommender {
	r := &Recommender{
		provider: provider,
		store:    gs,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initialize builds or loads the knowledge graph. Once it succeeds,
// repeated calls are no-ops; after a failure it can be retried, which
// is what the supervisor does. A persisted graph is reused only when
// its source checksum matches the live dataset.
func (r *Recommender) Initialize(ctx context.Context) error {
	r.initMu.Lock()
	defer r.initMu.Unlock()

	if _, err := r.current(); err == nil {
		return nil
	}
	return r.initialize(ctx)
}

func (r *Recommender) initialize(ctx context.Context) error {
	checksum, err := r.provider.Checksum()
	if err != nil {
		return fmt.Errorf("dataset checksum: %w", err)
	}

	if r.store != nil {
		if g, meta, err := r.store.Load(); err == nil {
			if meta.SourceChecksum == checksum {
				r.adopt(g, checksum, false)
				logging.Info().
					Int("nodes", g.NodeCount()).
					Int("edges", g.EdgeCount).
					Time("saved_at", meta.SavedAt).
					Msg("Knowledge graph loaded from disk")
				return nil
			}
			logging.Info().Msg("Persisted graph is stale, rebuilding")
		} else if !errors.Is(err, store.ErrNotFound) {
			logging.Warn().Err(err).Msg("Failed to load persisted graph, rebuilding")
		}
	}

	rows, checksum, err := r.provider.Rows(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	start := time.Now()
	g, err := kg.Build(rows)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	metrics.GraphBuildDuration.Observe(time.Since(start).Seconds())

	degraded := false
	if r.store != nil {
		if err := r.store.Save(g, checksum); err != nil {
			// The engine still serves from memory; only persistence
			// across restarts is lost.
			degraded = true
			logging.Warn().Err(err).Msg("Failed to persist graph, continuing in memory")
		}
	}

	r.adopt(g, checksum, degraded)
	info := g.Stats()
	logging.Info().
		Int("movies", info.NodeTypes["movie"]).
		Int("genres", info.NodeTypes["genre"]).
		Int("directors", info.NodeTypes["director"]).
		Int("actors", info.NodeTypes["actor"]).
		Int("nodes", info.TotalNodes).
		Int("edges", info.TotalEdges).
		Dur("build_time", time.Since(start)).
		Msg("Knowledge graph built")
	return nil
}

// adopt installs the graph and publishes its stats.
func (r *Recommender) adopt(g *kg.Graph, checksum string, degraded bool) {
	r.mu.Lock()
	r.graph = g
	r.checksum = checksum
	r.persistDegraded = degraded
	r.mu.Unlock()

	info := g.Stats()
	metrics.SetGraphStats(info.NodeTypes, info.TotalEdges)
}

// current returns the active graph or ErrNotInitialized.
func (r *Recommender) current() (*kg.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.graph == nil {
		return nil, ErrNotInitialized
	}
	return r.graph, nil
}

// validateCount checks a requested result count against the shared
// bounds.
func validateCount(n int) error {
	if n < MinResults || n > MaxResults {
		return fmt.Errorf("%w: count %d outside [%d, %d]", ErrInvalidArgument, n, MinResults, MaxResults)
	}
	return nil
}

// RecommendByKeyword returns up to n movies ranked by relevance to the
// keyword.
func (r *Recommender) RecommendByKeyword(ctx context.Context, keyword string, n int) ([]MovieDetail, error) {
	defer metrics.RecordQuery("recommend_keyword", time.Now())

	if keyword == "" {
		return nil, fmt.Errorf("%w: empty keyword", ErrInvalidArgument)
	}
	if err := validateCount(n); err != nil {
		return nil, err
	}
	g, err := r.current()
	if err != nil {
		return nil, err
	}

	return r.rankedDetails(g, g.FindMoviesByKeyword(keyword, n)), nil
}

// RecommendSimilar returns up to n movies similar to the one resolved
// from title. An unresolvable title yields ErrNotFound.
func (r *Recommender) RecommendSimilar(ctx context.Context, title string, n int) ([]MovieDetail, error) {
	defer metrics.RecordQuery("recommend_similar", time.Now())

	if title == "" {
		return nil, fmt.Errorf("%w: empty title", ErrInvalidArgument)
	}
	if err := validateCount(n); err != nil {
		return nil, err
	}
	g, err := r.current()
	if err != nil {
		return nil, err
	}

	if _, ok := g.FindMovieByTitle(title); !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, title)
	}
	return r.rankedDetails(g, g.FindSimilarMovies(title, n)), nil
}

// Search returns up to limit movies whose title contains the query.
func (r *Recommender) Search(ctx context.Context, query string, limit int) ([]MovieDetail, error) {
	defer metrics.RecordQuery("search", time.Now())

	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidArgument)
	}
	if err := validateCount(limit); err != nil {
		return nil, err
	}
	g, err := r.current()
	if err != nil {
		return nil, err
	}

	details := make([]MovieDetail, 0, limit)
	for _, d := range g.SearchMovies(query, limit) {
		details = append(details, detailFrom(d, TypeSearch))
	}
	return details, nil
}

// MovieDetailsByID returns the full detail of one movie.
func (r *Recommender) MovieDetailsByID(ctx context.Context, id int) (*MovieDetail, error) {
	defer metrics.RecordQuery("details_id", time.Now())

	g, err := r.current()
	if err != nil {
		return nil, err
	}
	d, ok := g.MovieDetails(id)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	detail := detailFrom(d, TypeDetails)
	return &detail, nil
}

// MovieDetailsByTitle resolves a title and returns the movie's detail.
func (r *Recommender) MovieDetailsByTitle(ctx context.Context, title string) (*MovieDetail, error) {
	defer metrics.RecordQuery("details_title", time.Now())

	if title == "" {
		return nil, fmt.Errorf("%w: empty title", ErrInvalidArgument)
	}
	g, err := r.current()
	if err != nil {
		return nil, err
	}
	idx, ok := g.FindMovieByTitle(title)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, title)
	}
	d, _ := g.MovieDetails(g.Nodes[idx].Movie.ID)
	detail := detailFrom(d, TypeDetails)
	return &detail, nil
}

// MultiRecommend combines keyword recommendations across several terms
// when keywords are given, or falls back to similar-movie
// recommendation for the reference movie. Keyword results are merged
// in first-seen rank order with duplicates dropped, capped at n. An
// unresolvable reference movie yields an empty result, not an error.
func (r *Recommender) MultiRecommend(ctx context.Context, keywords []string, movie string, n int) ([]MovieDetail, error) {
	defer metrics.RecordQuery("multi_recommend", time.Now())

	if len(keywords) == 0 && movie == "" {
		return nil, fmt.Errorf("%w: need keywords or a reference movie", ErrInvalidArgument)
	}
	if err := validateCount(n); err != nil {
		return nil, err
	}
	g, err := r.current()
	if err != nil {
		return nil, err
	}

	if len(keywords) > 0 {
		seen := make(map[int]struct{})
		var union []kg.Ranked
		for _, kw := range keywords {
			for _, res := range g.FindMoviesByKeyword(kw, n) {
				if _, dup := seen[res.ID]; dup {
					continue
				}
				seen[res.ID] = struct{}{}
				union = append(union, res)
			}
		}
		if len(union) > n {
			union = union[:n]
		}
		return r.rankedDetails(g, union), nil
	}

	return r.rankedDetails(g, g.FindSimilarMovies(movie, n)), nil
}

// SearchSuggestions returns up to limit titles useful as "did you
// mean" candidates when a title fails to resolve.
func (r *Recommender) SearchSuggestions(ctx context.Context, title string, limit int) []string {
	g, err := r.current()
	if err != nil {
		return nil
	}
	// Suggest by the leading word of the failed title.
	term := title
	if i := indexSpace(title); i > 0 {
		term = title[:i]
	}
	var titles []string
	for _, d := range g.SearchMovies(term, limit) {
		titles = append(titles, d.Title)
	}
	return titles
}

func indexSpace(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			return i
		}
	}
	return -1
}

// RandomMovies returns n distinct movies drawn uniformly at random.
func (r *Recommender) RandomMovies(ctx context.Context, n int) ([]MovieDetail, error) {
	defer metrics.RecordQuery("random", time.Now())

	if err := validateCount(n); err != nil {
		return nil, err
	}
	g, err := r.current()
	if err != nil {
		return nil, err
	}

	r.rngMu.Lock()
	ids := g.RandomMovies(n, r.rng)
	r.rngMu.Unlock()

	return r.detailsFor(g, ids, TypeRecommendation), nil
}

// GraphInfo returns node and edge counts for the active graph.
func (r *Recommender) GraphInfo(ctx context.Context) (kg.Info, error) {
	g, err := r.current()
	if err != nil {
		return kg.Info{}, err
	}
	return g.Stats(), nil
}

// SystemInfo reports operational state, including before
// initialization.
func (r *Recommender) SystemInfo(ctx context.Context) SystemInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info := SystemInfo{
		Initialized:     r.graph != nil,
		PersistDegraded: r.persistDegraded,
		DatasetChecksum: r.checksum,
	}
	if r.graph != nil {
		info.Graph = r.graph.Stats()
	}
	return info
}

// detailsFor expands movie ids into outward details, dropping ids that
// cannot be resolved.
func (r *Recommender) detailsFor(g *kg.Graph, ids []int, typeTag string) []MovieDetail {
	details := make([]MovieDetail, 0, len(ids))
	for _, id := range ids {
		d, ok := g.MovieDetails(id)
		if !ok {
			continue
		}
		details = append(details, detailFrom(d, typeTag))
	}
	return details
}

// rankedDetails expands scored query results into outward details in
// rank order, carrying the score on each record.
func (r *Recommender) rankedDetails(g *kg.Graph, results []kg.Ranked) []MovieDetail {
	details := make([]MovieDetail, 0, len(results))
	for _, res := range results {
		d, ok := g.MovieDetails(res.ID)
		if !ok {
			continue
		}
		detail := detailFrom(d, TypeRecommendation)
		detail.Score = res.Score
		details = append(details, detail)
	}
	return details
}
