// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/cinegraph/cinegraph/internal/kg"
	"github.com/cinegraph/cinegraph/internal/kg/store"
)

// fakeProvider serves a fixed row set with a fixed checksum.
type fakeProvider struct {
	rows     []kg.MovieRow
	checksum string
	rowCalls int
	err      error
}

func (p *fakeProvider) Checksum() (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.checksum, nil
}

func (p *fakeProvider) Rows(ctx context.Context) ([]kg.MovieRow, string, error) {
	if p.err != nil {
		return nil, "", p.err
	}
	p.rowCalls++
	return p.rows, p.checksum, nil
}

// fakeStore keeps the persisted graph in memory.
type fakeStore struct {
	graph    *kg.Graph
	checksum string
	saveErr  error
	saves    int
}

func (s *fakeStore) Save(g *kg.Graph, sourceChecksum string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.graph = g
	s.checksum = sourceChecksum
	s.saves++
	return nil
}

func (s *fakeStore) Load() (*kg.Graph, *store.Metadata, error) {
	if s.graph == nil {
		return nil, nil, store.ErrNotFound
	}
	return s.graph, &store.Metadata{SourceChecksum: s.checksum}, nil
}

func testRows() []kg.MovieRow {
	return []kg.MovieRow{
		{
			ID: 1, Title: "Inception", Year: "2010",
			Rating: 8.3, Popularity: 150, VoteCount: 14000,
			Genres:    []string{"Science Fiction", "Action"},
			Directors: []string{"Christopher Nolan"},
			Actors:    []string{"Leonardo DiCaprio", "Elliot Page", "Tom Hardy", "Ken Watanabe", "Cillian Murphy", "Michael Caine"},
			Keywords:  []string{"dream", "heist", "subconscious", "architecture", "paradox", "limbo"},
			Companies: []string{"Legendary Pictures", "Syncopy", "Warner Bros.", "Extra Studio"},
		},
		{
			ID: 2, Title: "Interstellar", Year: "2014",
			Rating: 8.6, Popularity: 120, VoteCount: 12000,
			Genres:    []string{"Science Fiction", "Adventure"},
			Directors: []string{"Christopher Nolan"},
			Actors:    []string{"Matthew McConaughey"},
			Keywords:  []string{"space"},
		},
		{
			ID: 3, Title: "The Notebook", Year: "2004",
			Rating: 7.8, Popularity: 60, VoteCount: 5000,
			Genres:    []string{"Drama", "Romance"},
			Directors: []string{"Nick Cassavetes"},
			Actors:    []string{"Ryan Gosling"},
		},
	}
}

func newInitialized(t *testing.T) *Recommender {
	t.Helper()
	r := New(&fakeProvider{rows: testRows(), checksum: "c1"}, nil, WithSeed(1))
	if err := r.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return r
}

func TestOperationsBeforeInitialize(t *testing.T) {
	r := New(&fakeProvider{rows: testRows(), checksum: "c1"}, nil)
	ctx := context.Background()

	if _, err := r.RecommendByKeyword(ctx, "nolan", 5); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("RecommendByKeyword error = %v, want ErrNotInitialized", err)
	}
	if _, err := r.Search(ctx, "inc", 5); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Search error = %v, want ErrNotInitialized", err)
	}
	if _, err := r.GraphInfo(ctx); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("GraphInfo error = %v, want ErrNotInitialized", err)
	}

	info := r.SystemInfo(ctx)
	if info.Initialized {
		t.Error("SystemInfo reports initialized before Initialize")
	}
}

func TestInitializeBuildsAndPersists(t *testing.T) {
	fs := &fakeStore{}
	provider := &fakeProvider{rows: testRows(), checksum: "c1"}
	r := New(provider, fs)

	if err := r.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if fs.saves != 1 {
		t.Errorf("store saves = %d, want 1", fs.saves)
	}
	if fs.checksum != "c1" {
		t.Errorf("persisted checksum = %q, want c1", fs.checksum)
	}

	// Second call is a no-op.
	if err := r.Initialize(context.Background()); err != nil {
		t.Fatalf("repeat Initialize() error = %v", err)
	}
	if provider.rowCalls != 1 {
		t.Errorf("provider Rows called %d times, want 1", provider.rowCalls)
	}
}

func TestInitializeLoadsFreshPersistedGraph(t *testing.T) {
	g, err := kg.Build(testRows())
	if err != nil {
		t.Fatal(err)
	}
	fs := &fakeStore{graph: g, checksum: "c1"}
	provider := &fakeProvider{rows: testRows(), checksum: "c1"}
	r := New(provider, fs)

	if err := r.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if provider.rowCalls != 0 {
		t.Errorf("Rows called %d times, want 0 (graph served from store)", provider.rowCalls)
	}
}

func TestInitializeRebuildsStaleGraph(t *testing.T) {
	g, err := kg.Build(testRows())
	if err != nil {
		t.Fatal(err)
	}
	fs := &fakeStore{graph: g, checksum: "old"}
	provider := &fakeProvider{rows: testRows(), checksum: "new"}
	r := New(provider, fs)

	if err := r.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if provider.rowCalls != 1 {
		t.Errorf("Rows called %d times, want 1 (stale graph rebuilt)", provider.rowCalls)
	}
	if fs.checksum != "new" {
		t.Errorf("persisted checksum = %q, want new", fs.checksum)
	}
}

func TestInitializePersistFailureDegrades(t *testing.T) {
	fs := &fakeStore{saveErr: errors.New("disk full")}
	r := New(&fakeProvider{rows: testRows(), checksum: "c1"}, fs)

	if err := r.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v, want in-memory fallback", err)
	}

	info := r.SystemInfo(context.Background())
	if !info.Initialized || !info.PersistDegraded {
		t.Errorf("SystemInfo = %+v, want initialized and degraded", info)
	}

	// Queries still work from memory.
	if _, err := r.Search(context.Background(), "inception", 5); err != nil {
		t.Errorf("Search after degraded init error = %v", err)
	}
}

func TestRecommendByKeyword(t *testing.T) {
	r := newInitialized(t)
	ctx := context.Background()

	details, err := r.RecommendByKeyword(ctx, "nolan", 10)
	if err != nil {
		t.Fatalf("RecommendByKeyword() error = %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("got %d results, want 2", len(details))
	}
	for _, d := range details {
		if d.Type != TypeRecommendation {
			t.Errorf("type tag = %q, want %q", d.Type, TypeRecommendation)
		}
		if d.Score <= 0 {
			t.Errorf("score = %v, want positive", d.Score)
		}
	}
	if details[0].Score < details[1].Score {
		t.Errorf("scores not descending: %v then %v", details[0].Score, details[1].Score)
	}
}

func TestRecommendByKeywordValidation(t *testing.T) {
	r := newInitialized(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		keyword string
		n       int
	}{
		{"empty keyword", "", 5},
		{"zero count", "nolan", 0},
		{"negative count", "nolan", -1},
		{"over max", "nolan", 51},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.RecommendByKeyword(ctx, tt.keyword, tt.n); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestRecommendSimilar(t *testing.T) {
	r := newInitialized(t)
	ctx := context.Background()

	details, err := r.RecommendSimilar(ctx, "Inception", 10)
	if err != nil {
		t.Fatalf("RecommendSimilar() error = %v", err)
	}
	if len(details) != 1 || details[0].ID != 2 {
		t.Fatalf("results = %+v, want only Interstellar", details)
	}
	if details[0].Type != TypeRecommendation {
		t.Errorf("type tag = %q, want %q", details[0].Type, TypeRecommendation)
	}

	if _, err := r.RecommendSimilar(ctx, "No Such Film", 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown title error = %v, want ErrNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	r := newInitialized(t)

	details, err := r.Search(context.Background(), "inter", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(details) != 1 || details[0].Title != "Interstellar" {
		t.Fatalf("results = %+v, want Interstellar", details)
	}
	if details[0].Type != TypeSearch {
		t.Errorf("type tag = %q, want %q", details[0].Type, TypeSearch)
	}
}

func TestMovieDetailPresentationCaps(t *testing.T) {
	r := newInitialized(t)

	d, err := r.MovieDetailsByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("MovieDetailsByID() error = %v", err)
	}
	if d.Type != TypeDetails {
		t.Errorf("type tag = %q, want %q", d.Type, TypeDetails)
	}
	if len(d.Actors) > detailMaxActors {
		t.Errorf("actors = %d, want at most %d", len(d.Actors), detailMaxActors)
	}
	if len(d.Keywords) > detailMaxKeywords {
		t.Errorf("keywords = %d, want at most %d", len(d.Keywords), detailMaxKeywords)
	}
	if len(d.Companies) > detailMaxCompanies {
		t.Errorf("companies = %d, want at most %d", len(d.Companies), detailMaxCompanies)
	}
	if d.Genres == nil || d.Directors == nil {
		t.Error("entity lists must be non-nil")
	}
}

func TestMovieDetailsByTitle(t *testing.T) {
	r := newInitialized(t)
	ctx := context.Background()

	d, err := r.MovieDetailsByTitle(ctx, "notebook")
	if err != nil {
		t.Fatalf("MovieDetailsByTitle() error = %v", err)
	}
	if d.ID != 3 {
		t.Errorf("resolved id = %d, want 3", d.ID)
	}

	if _, err := r.MovieDetailsByTitle(ctx, "Casablanca"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown title error = %v, want ErrNotFound", err)
	}
	if _, err := r.MovieDetailsByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id error = %v, want ErrNotFound", err)
	}
}

func TestRandomMovies(t *testing.T) {
	r := newInitialized(t)

	details, err := r.RandomMovies(context.Background(), 3)
	if err != nil {
		t.Fatalf("RandomMovies() error = %v", err)
	}
	if len(details) != 3 {
		t.Fatalf("got %d results, want 3", len(details))
	}
	seen := make(map[int]bool)
	for _, d := range details {
		if seen[d.ID] {
			t.Fatalf("duplicate id %d", d.ID)
		}
		seen[d.ID] = true
		if d.Type != TypeRecommendation {
			t.Errorf("type tag = %q, want %q", d.Type, TypeRecommendation)
		}
	}

	if _, err := r.RandomMovies(context.Background(), 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero count error = %v, want ErrInvalidArgument", err)
	}
}

func TestMultiRecommendKeywordUnion(t *testing.T) {
	r := newInitialized(t)
	ctx := context.Background()

	// "nolan" yields both Nolan films, "notebook" adds the third; the
	// shared director appears once despite matching both terms.
	details, err := r.MultiRecommend(ctx, []string{"nolan", "notebook"}, "", 10)
	if err != nil {
		t.Fatalf("MultiRecommend() error = %v", err)
	}
	if len(details) != 3 {
		t.Fatalf("got %d results, want 3: %+v", len(details), details)
	}
	seen := make(map[int]bool)
	for _, d := range details {
		if seen[d.ID] {
			t.Fatalf("duplicate id %d", d.ID)
		}
		seen[d.ID] = true
		if d.Type != TypeRecommendation {
			t.Errorf("type tag = %q, want %q", d.Type, TypeRecommendation)
		}
	}

	// The cap applies to the merged set.
	capped, err := r.MultiRecommend(ctx, []string{"nolan", "notebook"}, "", 2)
	if err != nil {
		t.Fatalf("MultiRecommend() error = %v", err)
	}
	if len(capped) != 2 {
		t.Errorf("got %d results, want 2", len(capped))
	}
}

func TestMultiRecommendMovieFallback(t *testing.T) {
	r := newInitialized(t)
	ctx := context.Background()

	details, err := r.MultiRecommend(ctx, nil, "Inception", 10)
	if err != nil {
		t.Fatalf("MultiRecommend() error = %v", err)
	}
	if len(details) != 1 || details[0].ID != 2 {
		t.Fatalf("results = %+v, want only Interstellar", details)
	}

	// An unresolvable reference movie is an empty result, not an error.
	empty, err := r.MultiRecommend(ctx, nil, "No Such Film", 10)
	if err != nil {
		t.Fatalf("MultiRecommend() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("results = %+v, want none", empty)
	}
}

func TestMultiRecommendValidation(t *testing.T) {
	r := newInitialized(t)
	ctx := context.Background()

	if _, err := r.MultiRecommend(ctx, nil, "", 10); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("no input error = %v, want ErrInvalidArgument", err)
	}
	if _, err := r.MultiRecommend(ctx, []string{"nolan"}, "", 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero count error = %v, want ErrInvalidArgument", err)
	}
	if _, err := r.MultiRecommend(ctx, []string{"nolan"}, "", 51); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("over-max count error = %v, want ErrInvalidArgument", err)
	}
}

func TestGraphInfo(t *testing.T) {
	r := newInitialized(t)

	info, err := r.GraphInfo(context.Background())
	if err != nil {
		t.Fatalf("GraphInfo() error = %v", err)
	}
	if info.NodeTypes["movie"] != 3 {
		t.Errorf("movie count = %d, want 3", info.NodeTypes["movie"])
	}
	if info.TotalEdges == 0 {
		t.Error("edge count is zero")
	}
}

func TestSearchSuggestions(t *testing.T) {
	r := newInitialized(t)

	// The full title fails to resolve but its leading word still matches.
	got := r.SearchSuggestions(context.Background(), "Inception Part Two", 5)
	if len(got) != 1 || got[0] != "Inception" {
		t.Errorf("SearchSuggestions() = %v, want [Inception]", got)
	}
}
