// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package kg

import (
	"errors"
	"strconv"
)

// ErrEmptyInput is returned by Build when given zero rows.
var ErrEmptyInput = errors.New("kg: no input rows")

// Per-movie fan-out bounds. Entity lists are truncated to these sizes
// in source order before being attached, keeping the graph tractable
// under an implicit "most prominent first" ordering from upstream.
const (
	MaxGenres    = 5
	MaxDirectors = 3
	MaxActors    = 5
	MaxKeywords  = 5
	MaxCompanies = 3
)

// MovieRow is one normalized movie record, the unit of ingestion.
// Rows are produced once per ingestion pass and folded into the graph;
// they are not retained afterward.
type MovieRow struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	Year       string   `json:"year"`
	Rating     float64  `json:"rating"`
	Popularity float64  `json:"popularity"`
	VoteCount  int      `json:"vote_count"`
	Genres     []string `json:"genres"`
	Keywords   []string `json:"keywords"`
	Directors  []string `json:"directors"`
	Actors     []string `json:"actors"`
	Companies  []string `json:"companies"`
}

// category binds an entity list accessor to its node type, relation
// label and fan-out bound.
type category struct {
	typ   NodeType
	rel   Relation
	bound int
	names func(*MovieRow) []string
}

var categories = []category{
	{TypeGenre, RelHasGenre, MaxGenres, func(r *MovieRow) []string { return r.Genres }},
	{TypeDirector, RelDirectedBy, MaxDirectors, func(r *MovieRow) []string { return r.Directors }},
	{TypeActor, RelStarring, MaxActors, func(r *MovieRow) []string { return r.Actors }},
	{TypeKeyword, RelHasKeyword, MaxKeywords, func(r *MovieRow) []string { return r.Keywords }},
	{TypeCompany, RelProducedBy, MaxCompanies, func(r *MovieRow) []string { return r.Companies }},
}

// MovieKey returns the node key for a movie id. Movies are keyed by
// numeric id, so they can never collide with name-keyed entity nodes.
func MovieKey(id int) string {
	return nodeKey(TypeMovie, strconv.Itoa(id))
}

// Build constructs the knowledge graph from normalized rows. Movie
// attributes are overwritten on repeated ids (last write wins); entity
// nodes and edges are deduplicated by (type, sanitized name) key.
func Build(rows []MovieRow) (*Graph, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	g := NewGraph()
	for i := range rows {
		row := &rows[i]
		movieIdx := g.addNode(Node{
			Type: TypeMovie,
			Key:  MovieKey(row.ID),
			Movie: &MovieAttrs{
				ID:         row.ID,
				Title:      row.Title,
				Year:       row.Year,
				Rating:     row.Rating,
				Popularity: row.Popularity,
				VoteCount:  row.VoteCount,
			},
		})

		for _, cat := range categories {
			names := cat.names(row)
			if len(names) > cat.bound {
				names = names[:cat.bound]
			}
			for _, name := range names {
				if name == "" {
					continue
				}
				entityIdx := g.addNode(Node{
					Type: cat.typ,
					Key:  nodeKey(cat.typ, sanitizeName(name)),
					Name: name,
				})
				g.addEdge(movieIdx, entityIdx, cat.rel)
			}
		}
	}

	return g, nil
}
