// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package kg

import "testing"

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "spaces", input: "Science Fiction", want: "Science_Fiction"},
		{name: "slash", input: "Action/Adventure", want: "Action_Adventure"},
		{name: "hyphen", input: "Spider-Man", want: "Spider_Man"},
		{name: "colon", input: "Mission: Impossible", want: "Mission__Impossible"},
		{name: "case preserved", input: "Christopher Nolan", want: "Christopher_Nolan"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeName(tt.input); got != tt.want {
				t.Errorf("sanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeNameTruncation(t *testing.T) {
	long := make([]rune, 80)
	for i := range long {
		long[i] = 'a'
	}
	got := sanitizeName(string(long))
	if len([]rune(got)) != 50 {
		t.Errorf("sanitizeName truncated to %d runes, want 50", len([]rune(got)))
	}
}

// entityNode builds an entity Node literal the way Build does.
func entityNode(t NodeType, name string) Node {
	return Node{Type: t, Key: nodeKey(t, sanitizeName(name)), Name: name}
}

// movieNode builds a movie Node literal the way Build does.
func movieNode(attrs *MovieAttrs) Node {
	return Node{Type: TypeMovie, Key: MovieKey(attrs.ID), Movie: attrs}
}

func TestAddNodeIdentity(t *testing.T) {
	g := NewGraph()

	a := g.addNode(entityNode(TypeGenre, "Science Fiction"))
	b := g.addNode(entityNode(TypeGenre, "Science Fiction"))
	if a != b {
		t.Errorf("same entity produced two nodes: %d and %d", a, b)
	}

	// Same sanitized name under a different type is a distinct node.
	c := g.addNode(entityNode(TypeKeyword, "Science Fiction"))
	if c == a {
		t.Error("genre and keyword with the same name collapsed into one node")
	}

	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}
}

func TestAddNodeMovieAttrsLastWriteWins(t *testing.T) {
	g := NewGraph()
	g.addNode(movieNode(&MovieAttrs{ID: 42, Title: "First", Rating: 5.0}))
	idx := g.addNode(movieNode(&MovieAttrs{ID: 42, Title: "Second", Rating: 7.0}))

	if g.MovieCount() != 1 {
		t.Fatalf("MovieCount() = %d, want 1", g.MovieCount())
	}
	if got := g.Nodes[idx].Movie.Title; got != "Second" {
		t.Errorf("movie title = %q, want %q", got, "Second")
	}
}

func TestAddEdgeDedup(t *testing.T) {
	g := NewGraph()
	m := g.addNode(movieNode(&MovieAttrs{ID: 1, Title: "Movie"}))
	e := g.addNode(entityNode(TypeGenre, "Action"))

	g.addEdge(m, e, RelHasGenre)
	g.addEdge(m, e, RelHasGenre)

	if g.EdgeCount != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount)
	}
	if len(g.Adj[m]) != 1 || len(g.Adj[e]) != 1 {
		t.Errorf("adjacency lengths = %d/%d, want 1/1", len(g.Adj[m]), len(g.Adj[e]))
	}
	if g.Adj[e][0].To != m {
		t.Error("reverse edge does not point back at the movie")
	}
}

func TestTypeIndexConsistency(t *testing.T) {
	g := NewGraph()
	g.addNode(movieNode(&MovieAttrs{ID: 1, Title: "A"}))
	g.addNode(entityNode(TypeGenre, "Action"))
	g.addNode(movieNode(&MovieAttrs{ID: 2, Title: "B"}))

	total := 0
	for typ, bucket := range g.TypeIndex {
		total += len(bucket)
		for _, idx := range bucket {
			if g.Nodes[idx].Type != typ {
				t.Errorf("node %d in bucket %s has type %s", idx, typ, g.Nodes[idx].Type)
			}
		}
	}
	if total != g.NodeCount() {
		t.Errorf("type index covers %d nodes, graph has %d", total, g.NodeCount())
	}

	movies := g.TypeIndex[TypeMovie]
	if len(movies) != 2 || g.Nodes[movies[0]].Movie.ID != 1 || g.Nodes[movies[1]].Movie.ID != 2 {
		t.Error("movie bucket does not preserve insertion order")
	}
}

func TestReindex(t *testing.T) {
	g := NewGraph()
	g.addNode(movieNode(&MovieAttrs{ID: 7, Title: "Seven"}))
	g.addNode(entityNode(TypeGenre, "Thriller"))

	g.index = nil
	g.Reindex()

	if _, ok := g.lookup(MovieKey(7)); !ok {
		t.Error("movie not found after Reindex")
	}
	if _, ok := g.lookup(nodeKey(TypeGenre, "Thriller")); !ok {
		t.Error("genre not found after Reindex")
	}
}

func TestStats(t *testing.T) {
	g := NewGraph()
	m := g.addNode(movieNode(&MovieAttrs{ID: 1, Title: "A"}))
	e := g.addNode(entityNode(TypeGenre, "Action"))
	g.addEdge(m, e, RelHasGenre)

	info := g.Stats()
	if info.TotalNodes != 2 {
		t.Errorf("TotalNodes = %d, want 2", info.TotalNodes)
	}
	if info.TotalEdges != 1 {
		t.Errorf("TotalEdges = %d, want 1", info.TotalEdges)
	}
	if info.NodeTypes["movie"] != 1 || info.NodeTypes["genre"] != 1 {
		t.Errorf("NodeTypes = %v", info.NodeTypes)
	}
}
