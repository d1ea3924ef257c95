// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package kg

import (
	"math"
	"math/rand"
	"testing"
)

// testGraph builds a small fixture: three Christopher Nolan films plus
// one unrelated drama.
func testGraph(t *testing.T) *Graph {
	t.Helper()
	rows := []MovieRow{
		{
			ID: 1, Title: "Inception", Year: "2010",
			Rating: 8.3, Popularity: 150, VoteCount: 14000,
			Genres:    []string{"Science Fiction", "Action"},
			Directors: []string{"Christopher Nolan"},
			Actors:    []string{"Leonardo DiCaprio"},
			Keywords:  []string{"dream", "heist"},
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
			ID: 3, Title: "The Dark Knight", Year: "2008",
			Rating: 9.0, Popularity: 130, VoteCount: 16000,
			Genres:    []string{"Action", "Crime"},
			Directors: []string{"Christopher Nolan"},
			Actors:    []string{"Christian Bale"},
		},
		{
			ID: 4, Title: "The Notebook", Year: "2004",
			Rating: 7.8, Popularity: 60, VoteCount: 5000,
			Genres:    []string{"Drama", "Romance"},
			Directors: []string{"Nick Cassavetes"},
			Actors:    []string{"Ryan Gosling"},
		},
	}
	g, err := Build(rows)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return g
}

func TestFindMoviesByKeywordDirector(t *testing.T) {
	g := testGraph(t)

	results := g.FindMoviesByKeyword("nolan", 10)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3: %v", len(results), results)
	}
	for _, r := range results {
		if r.ID == 4 {
			t.Error("unrelated movie matched a director term")
		}
		if r.Score <= 0 {
			t.Errorf("movie %d has non-positive score %v", r.ID, r.Score)
		}
	}

	// Equal relevance (one director edge each), so metadata breaks the
	// tie: The Dark Knight leads on rating and votes.
	if results[0].ID != 3 {
		t.Errorf("top result = %d, want 3 (The Dark Knight)", results[0].ID)
	}
}

func TestFindMoviesByKeywordDirectMatch(t *testing.T) {
	g := testGraph(t)

	results := g.FindMoviesByKeyword("inception", 10)
	if len(results) != 1 || results[0].ID != 1 {
		t.Errorf("FindMoviesByKeyword(inception) = %v, want only id 1", results)
	}

	// Only the movie node itself matches, so relevance is exactly the
	// direct-match bonus; popularity and votes saturate their caps.
	want := 0.5*2.0 + 0.3*(8.3/10) + 0.1*1 + 0.1*1
	if math.Abs(results[0].Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", results[0].Score, want)
	}
}

func TestFindMoviesByKeywordNoMatch(t *testing.T) {
	g := testGraph(t)
	if results := g.FindMoviesByKeyword("zzzz", 10); results != nil {
		t.Errorf("unmatched term returned %v, want nil", results)
	}
	if results := g.FindMoviesByKeyword("", 10); results != nil {
		t.Errorf("empty term returned %v, want nil", results)
	}
}

func TestFindMoviesByKeywordTopN(t *testing.T) {
	g := testGraph(t)
	results := g.FindMoviesByKeyword("nolan", 2)
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestRelevanceWeights(t *testing.T) {
	g := testGraph(t)
	inception, _ := g.lookup(MovieKey(1))

	tests := []struct {
		name  string
		nodes []string
		want  float64
	}{
		{"direct only", []string{MovieKey(1)}, 2.0},
		{"director", []string{nodeKey(TypeDirector, sanitizeName("Christopher Nolan"))}, 1.5},
		{"genre", []string{nodeKey(TypeGenre, sanitizeName("Action"))}, 1.0},
		{"actor", []string{nodeKey(TypeActor, sanitizeName("Leonardo DiCaprio"))}, 0.8},
		{"keyword", []string{nodeKey(TypeKeyword, "dream")}, 0.6},
		{"sum", []string{
			MovieKey(1),
			nodeKey(TypeGenre, sanitizeName("Action")),
			nodeKey(TypeKeyword, "dream"),
		}, 3.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matching := make(map[int32]struct{})
			for _, key := range tt.nodes {
				idx, ok := g.lookup(key)
				if !ok {
					t.Fatalf("fixture node %q missing", key)
				}
				matching[idx] = struct{}{}
			}
			got := g.relevanceScore(inception, matching)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("relevanceScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindSimilarMovies(t *testing.T) {
	g := testGraph(t)

	results := g.FindSimilarMovies("Inception", 10)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %v", len(results), results)
	}
	for _, r := range results {
		if r.ID == 1 {
			t.Fatal("movie recommended to itself")
		}
		if r.ID == 4 {
			t.Fatal("zero-overlap movie included")
		}
	}

	// The Dark Knight shares {Action, Nolan} out of a smaller neighbor
	// set and sits closer in year, so it outranks Interstellar.
	if results[0].ID != 3 || results[1].ID != 2 {
		t.Errorf("ranking = %v, want ids [3 2]", results)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores not descending: %v", results)
	}
}

func TestFindSimilarMoviesUnknownTitle(t *testing.T) {
	g := testGraph(t)
	if results := g.FindSimilarMovies("No Such Film", 10); results != nil {
		t.Errorf("unknown title returned %v, want nil", results)
	}
}

func TestFindMovieByTitle(t *testing.T) {
	g := testGraph(t)

	tests := []struct {
		name    string
		title   string
		wantID  int
		wantHit bool
	}{
		{"exact", "Inception", 1, true},
		{"case insensitive", "inception", 1, true},
		{"substring", "dark knight", 3, true},
		{"first match wins", "the", 3, true},
		{"missing", "Casablanca", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := g.FindMovieByTitle(tt.title)
			if ok != tt.wantHit {
				t.Fatalf("FindMovieByTitle(%q) hit = %v, want %v", tt.title, ok, tt.wantHit)
			}
			if ok && g.Nodes[idx].Movie.ID != tt.wantID {
				t.Errorf("resolved id = %d, want %d", g.Nodes[idx].Movie.ID, tt.wantID)
			}
		})
	}
}

func TestYearSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"same year", "2010", "2010", 1.0},
		{"four apart", "2010", "2014", 0.6},
		{"decade apart", "2000", "2010", 0.0},
		{"beyond decade", "1990", "2010", 0.0},
		{"unknown left", "Unknown", "2010", 0.0},
		{"unknown right", "2010", "Unknown", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := yearSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("yearSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMovieDetails(t *testing.T) {
	g := testGraph(t)

	d, ok := g.MovieDetails(1)
	if !ok {
		t.Fatal("details for movie 1 missing")
	}
	if d.Title != "Inception" || d.Year != "2010" {
		t.Errorf("attrs = %q/%q", d.Title, d.Year)
	}
	if len(d.Genres) != 2 || len(d.Directors) != 1 || len(d.Actors) != 1 || len(d.Keywords) != 2 {
		t.Errorf("buckets = genres %d directors %d actors %d keywords %d",
			len(d.Genres), len(d.Directors), len(d.Actors), len(d.Keywords))
	}
	if d.Companies == nil {
		t.Error("companies should be an empty slice, not nil")
	}

	if _, ok := g.MovieDetails(999); ok {
		t.Error("details for nonexistent id should miss")
	}
}

func TestSearchMovies(t *testing.T) {
	g := testGraph(t)

	results := g.SearchMovies("the", 10)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	// Insertion order: The Dark Knight before The Notebook.
	if results[0].ID != 3 || results[1].ID != 4 {
		t.Errorf("order = [%d %d], want [3 4]", results[0].ID, results[1].ID)
	}

	if limited := g.SearchMovies("the", 1); len(limited) != 1 {
		t.Errorf("limit ignored: got %d results", len(limited))
	}
	if none := g.SearchMovies("zzzz", 10); len(none) != 0 {
		t.Errorf("unmatched query returned %d results", len(none))
	}
}

func TestRandomMovies(t *testing.T) {
	g := testGraph(t)
	rng := rand.New(rand.NewSource(1))

	ids := g.RandomMovies(3, rng)
	if len(ids) != 3 {
		t.Fatalf("got %d ids, want 3", len(ids))
	}
	seen := make(map[int]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d in sample", id)
		}
		seen[id] = true
	}

	// Requesting more than the population clamps.
	if all := g.RandomMovies(50, rng); len(all) != g.MovieCount() {
		t.Errorf("oversized request returned %d ids, want %d", len(all), g.MovieCount())
	}
	if none := g.RandomMovies(0, rng); none != nil {
		t.Errorf("zero request returned %v, want nil", none)
	}
}
