// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package kg

import (
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// Relevance weights for keyword search. A movie whose own title matches
// the term scores a direct-match bonus; matching nodes adjacent to the
// movie add a type-weighted bonus each. Company nodes never match and
// therefore contribute nothing.
const (
	directMatchBonus = 2.0
	directorWeight   = 1.5
	genreWeight      = 1.0
	actorWeight      = 0.8
	keywordWeight    = 0.6
)

// keywordMatchTypes are the node types eligible for keyword matching.
// The type filter applies to every candidate node regardless of which
// attribute (title or name) carries the match.
var keywordMatchTypes = map[NodeType]bool{
	TypeMovie:    true,
	TypeGenre:    true,
	TypeDirector: true,
	TypeActor:    true,
	TypeKeyword:  true,
}

// scored pairs an arena index with a ranking score.
type scored struct {
	idx   int32
	score float64
}

// Ranked is one result of a scored query: a movie id with the score
// that placed it.
type Ranked struct {
	ID    int
	Score float64
}

// sortScoredDesc orders candidates by descending score. The sort is
// stable and candidates are collected in node insertion order, so equal
// scores rank deterministically.
func sortScoredDesc(items []scored) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})
}

// FindMoviesByKeyword ranks movies by relevance to a search term and
// returns up to topN scored results, best first.
//
// Relevance sums a direct-match bonus with type-weighted bonuses for
// each matching neighbor entity. Movies with zero relevance are
// excluded. The final ranking blends relevance with normalized rating,
// popularity and vote count:
//
//	final = 0.5*relevance + 0.3*(rating/10) + 0.1*min(popularity/100, 1) + 0.1*min(votes/1000, 1)
func (g *Graph) FindMoviesByKeyword(term string, topN int) []Ranked {
	term = strings.ToLower(term)
	if term == "" || topN <= 0 {
		return nil
	}

	matching := make(map[int32]struct{})
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if !keywordMatchTypes[n.Type] {
			continue
		}
		if strings.Contains(strings.ToLower(n.DisplayName()), term) {
			matching[int32(i)] = struct{}{}
		}
	}
	if len(matching) == 0 {
		return nil
	}

	candidates := make([]scored, 0, 16)
	for _, movieIdx := range g.TypeIndex[TypeMovie] {
		relevance := g.relevanceScore(movieIdx, matching)
		if relevance <= 0 {
			continue
		}

		attrs := g.Nodes[movieIdx].Movie
		rating := attrs.Rating / 10
		popularity := min(attrs.Popularity/100, 1)
		votes := min(float64(attrs.VoteCount)/1000, 1)

		final := 0.5*relevance + 0.3*rating + 0.1*popularity + 0.1*votes
		candidates = append(candidates, scored{idx: movieIdx, score: final})
	}

	sortScoredDesc(candidates)
	return g.ranked(candidates, topN)
}

// relevanceScore computes the keyword relevance of one movie against
// the set of matching nodes.
func (g *Graph) relevanceScore(movieIdx int32, matching map[int32]struct{}) float64 {
	var score float64
	if _, ok := matching[movieIdx]; ok {
		score += directMatchBonus
	}

	for _, e := range g.Adj[movieIdx] {
		if _, ok := matching[e.To]; !ok {
			continue
		}
		switch g.Nodes[e.To].Type {
		case TypeDirector:
			score += directorWeight
		case TypeGenre:
			score += genreWeight
		case TypeActor:
			score += actorWeight
		case TypeKeyword:
			score += keywordWeight
		}
	}
	return score
}

// FindSimilarMovies resolves a title and returns up to topN scored
// results for structurally similar movies, best first. The resolved movie is never
// part of its own results; an unresolvable title yields nil.
//
// Similarity blends neighbor-set overlap with metadata closeness:
//
//	combined = 0.6*jaccard + 0.2*(1 - |ratingA-ratingB|/10) + 0.2*max(0, 1 - |yearA-yearB|/10)
//
// Movies sharing no neighbor entities are skipped, and the year term is
// zero when either year token is unparseable.
func (g *Graph) FindSimilarMovies(title string, topN int) []Ranked {
	if topN <= 0 {
		return nil
	}
	movieIdx, ok := g.FindMovieByTitle(title)
	if !ok {
		return nil
	}

	features := g.neighborSet(movieIdx)
	attrs := g.Nodes[movieIdx].Movie

	candidates := make([]scored, 0, 16)
	for _, otherIdx := range g.TypeIndex[TypeMovie] {
		if otherIdx == movieIdx {
			continue
		}

		common := 0
		otherDegree := len(g.Adj[otherIdx])
		for _, e := range g.Adj[otherIdx] {
			if _, shared := features[e.To]; shared {
				common++
			}
		}
		if common == 0 {
			continue
		}

		union := len(features) + otherDegree - common
		jaccard := float64(common) / float64(union)

		other := g.Nodes[otherIdx].Movie
		ratingSim := 1 - abs(attrs.Rating-other.Rating)/10
		yearSim := yearSimilarity(attrs.Year, other.Year)

		combined := 0.6*jaccard + 0.2*ratingSim + 0.2*yearSim
		candidates = append(candidates, scored{idx: otherIdx, score: combined})
	}

	sortScoredDesc(candidates)
	return g.ranked(candidates, topN)
}

// yearSimilarity compares two 4-digit year tokens on a linear decade
// scale. Unparseable tokens (including the "Unknown" sentinel) yield 0.
func yearSimilarity(a, b string) float64 {
	ya, err := parseYear(a)
	if err != nil {
		return 0
	}
	yb, err := parseYear(b)
	if err != nil {
		return 0
	}
	diff := ya - yb
	if diff < 0 {
		diff = -diff
	}
	return max(0, 1-float64(diff)/10)
}

// parseYear parses the leading 4 characters of a year token.
func parseYear(s string) (int, error) {
	if len(s) > 4 {
		s = s[:4]
	}
	return strconv.Atoi(s)
}

// FindMovieByTitle resolves a title to a movie node by case-insensitive
// substring match. The first match in insertion order wins.
func (g *Graph) FindMovieByTitle(title string) (int32, bool) {
	needle := strings.ToLower(title)
	if needle == "" {
		return 0, false
	}
	for _, idx := range g.TypeIndex[TypeMovie] {
		if strings.Contains(strings.ToLower(g.Nodes[idx].Movie.Title), needle) {
			return idx, true
		}
	}
	return 0, false
}

// Detail is a movie's full entity profile: its attributes merged with
// its neighbor entities bucketed back into per-category name lists.
// Lists are uncapped here; presentation caps are the facade's concern.
type Detail struct {
	MovieAttrs
	Genres    []string
	Directors []string
	Actors    []string
	Keywords  []string
	Companies []string
}

// MovieDetails expands the movie with the given id into its full
// profile. The second return is false when the id is not in the graph.
func (g *Graph) MovieDetails(id int) (*Detail, bool) {
	idx, ok := g.lookup(MovieKey(id))
	if !ok {
		return nil, false
	}
	return g.detailAt(idx), true
}

// detailAt builds the Detail for a movie arena index.
func (g *Graph) detailAt(idx int32) *Detail {
	d := &Detail{
		MovieAttrs: *g.Nodes[idx].Movie,
		Genres:     []string{},
		Directors:  []string{},
		Actors:     []string{},
		Keywords:   []string{},
		Companies:  []string{},
	}
	for _, e := range g.Adj[idx] {
		n := &g.Nodes[e.To]
		if n.Name == "" {
			continue
		}
		switch n.Type {
		case TypeGenre:
			d.Genres = append(d.Genres, n.Name)
		case TypeDirector:
			d.Directors = append(d.Directors, n.Name)
		case TypeActor:
			d.Actors = append(d.Actors, n.Name)
		case TypeKeyword:
			d.Keywords = append(d.Keywords, n.Name)
		case TypeCompany:
			d.Companies = append(d.Companies, n.Name)
		}
	}
	return d
}

// SearchMovies returns the details of movies whose title contains the
// query, case-insensitive, in insertion order, stopping once limit
// results are collected.
func (g *Graph) SearchMovies(query string, limit int) []*Detail {
	needle := strings.ToLower(query)
	if needle == "" || limit <= 0 {
		return nil
	}

	results := make([]*Detail, 0, limit)
	for _, idx := range g.TypeIndex[TypeMovie] {
		if !strings.Contains(strings.ToLower(g.Nodes[idx].Movie.Title), needle) {
			continue
		}
		results = append(results, g.detailAt(idx))
		if len(results) >= limit {
			break
		}
	}
	return results
}

// RandomMovies draws a uniform sample without replacement of up to n
// movie ids using the provided random source. It performs a partial
// Fisher-Yates shuffle over a copy of the movie bucket.
func (g *Graph) RandomMovies(n int, rng *rand.Rand) []int {
	movies := g.TypeIndex[TypeMovie]
	if n > len(movies) {
		n = len(movies)
	}
	if n <= 0 {
		return nil
	}

	pool := make([]int32, len(movies))
	copy(pool, movies)

	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
		ids = append(ids, g.Nodes[pool[i]].Movie.ID)
	}
	return ids
}

// ranked converts sorted candidates into at most topN results.
func (g *Graph) ranked(candidates []scored, topN int) []Ranked {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	results := make([]Ranked, len(candidates))
	for i, c := range candidates {
		results[i] = Ranked{ID: g.Nodes[c.idx].Movie.ID, Score: c.score}
	}
	return results
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
