// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package kg implements the movie knowledge graph: a typed, undirected,
// attributed graph connecting movies to genres, directors, actors,
// keywords and production companies, plus the pure query algorithms
// that run over it.
//
// Nodes live in an arena slice in insertion order; edges reference
// nodes by stable arena index. A type index maps each node type to the
// ordered arena indices of that type, so queries that enumerate "all
// movies" never scan the full node set. The graph is bipartite-like by
// construction: every edge connects a movie node to a non-movie entity
// node, and the query algorithms rely on that shape.
//
// After construction the graph is immutable and safe for concurrent
// readers without locking.
package kg

import (
	"strings"
)

// NodeType tags the variant of a graph node.
type NodeType uint8

// Node type tags. Movie nodes carry MovieAttrs; all other types are
// entity nodes carrying only a display name.
const (
	TypeMovie NodeType = iota
	TypeGenre
	TypeDirector
	TypeActor
	TypeKeyword
	TypeCompany
)

// String returns the lowercase name of the node type.
func (t NodeType) String() string {
	switch t {
	case TypeMovie:
		return "movie"
	case TypeGenre:
		return "genre"
	case TypeDirector:
		return "director"
	case TypeActor:
		return "actor"
	case TypeKeyword:
		return "keyword"
	case TypeCompany:
		return "company"
	default:
		return "unknown"
	}
}

// EntityTypes lists the non-movie node types in a fixed order.
var EntityTypes = []NodeType{TypeGenre, TypeDirector, TypeActor, TypeKeyword, TypeCompany}

// Relation labels the edge between a movie and an entity node.
type Relation string

// Relation labels per entity category.
const (
	RelHasGenre   Relation = "has_genre"
	RelDirectedBy Relation = "directed_by"
	RelStarring   Relation = "starring"
	RelHasKeyword Relation = "has_keyword"
	RelProducedBy Relation = "produced_by"
)

// MovieAttrs holds the attributes of a movie node.
type MovieAttrs struct {
	ID         int
	Title      string
	Year       string
	Rating     float64
	Popularity float64
	VoteCount  int
}

// Node is a tagged variant over the six node kinds. Movie is non-nil
// exactly when Type is TypeMovie; Name is the entity display name and
// is empty for movies.
type Node struct {
	Type  NodeType
	Key   string
	Name  string
	Movie *MovieAttrs
}

// DisplayName returns the human-readable name of the node: the title
// for movies, the entity name otherwise.
func (n *Node) DisplayName() string {
	if n.Type == TypeMovie && n.Movie != nil {
		return n.Movie.Title
	}
	return n.Name
}

// Edge references a neighbor by arena index together with the relation
// label. Undirected edges are stored in both adjacency lists.
type Edge struct {
	To  int32
	Rel Relation
}

// Graph is the knowledge graph aggregate. The exported fields form the
// serializable state; the key index is derived and rebuilt via Reindex
// after deserialization.
//
// Invariants:
//   - exactly one node exists per (type, sanitized key) pair
//   - every edge connects a movie node to an entity node
//   - TypeIndex buckets hold arena indices in insertion order and are
//     consistent with Nodes
type Graph struct {
	Nodes     []Node
	Adj       [][]Edge
	TypeIndex map[NodeType][]int32
	EdgeCount int

	index map[string]int32
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		TypeIndex: make(map[NodeType][]int32),
		index:     make(map[string]int32),
	}
}

// sanitizeName normalizes an entity name into the path-safe key
// fragment used for node identity: whitespace and the characters
// '/', '-', ':' become underscores and the result is truncated to 50
// characters. Case is preserved, so "Nolan" and "nolan" are distinct.
// Distinct people sharing a sanitized name collapse onto one node; that
// is the intended (lossy) identity convention.
func sanitizeName(name string) string {
	r := strings.NewReplacer(" ", "_", "/", "_", "-", "_", ":", "_")
	s := r.Replace(name)
	if runes := []rune(s); len(runes) > 50 {
		return string(runes[:50])
	}
	return s
}

// nodeKey builds the composite identity key for a node.
func nodeKey(t NodeType, sanitized string) string {
	return t.String() + "_" + sanitized
}

// lookup returns the arena index of the node with the given key.
func (g *Graph) lookup(key string) (int32, bool) {
	idx, ok := g.index[key]
	return idx, ok
}

// addNode inserts a node if absent and returns its arena index. For an
// existing movie node the attributes are overwritten from the new node
// (last write wins); entity nodes are never updated in place.
func (g *Graph) addNode(n Node) int32 {
	if idx, ok := g.index[n.Key]; ok {
		if n.Type == TypeMovie {
			g.Nodes[idx].Movie = n.Movie
		}
		return idx
	}

	idx := int32(len(g.Nodes))
	g.Nodes = append(g.Nodes, n)
	g.Adj = append(g.Adj, nil)
	g.index[n.Key] = idx
	g.TypeIndex[n.Type] = append(g.TypeIndex[n.Type], idx)
	return idx
}

// addEdge inserts an undirected movie-entity edge if absent. The
// duplicate check scans the movie side, whose degree is bounded by the
// per-category fan-out limits.
func (g *Graph) addEdge(movie, entity int32, rel Relation) {
	for _, e := range g.Adj[movie] {
		if e.To == entity {
			return
		}
	}
	g.Adj[movie] = append(g.Adj[movie], Edge{To: entity, Rel: rel})
	g.Adj[entity] = append(g.Adj[entity], Edge{To: movie, Rel: rel})
	g.EdgeCount++
}

// Reindex rebuilds the derived key index from the node arena. It must
// be called after the graph is deserialized.
func (g *Graph) Reindex() {
	g.index = make(map[string]int32, len(g.Nodes))
	for i := range g.Nodes {
		g.index[g.Nodes[i].Key] = int32(i)
	}
}

// NodeCount returns the total number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// MovieCount returns the number of movie nodes.
func (g *Graph) MovieCount() int {
	return len(g.TypeIndex[TypeMovie])
}

// neighborSet collects the arena indices adjacent to a node.
func (g *Graph) neighborSet(idx int32) map[int32]struct{} {
	set := make(map[int32]struct{}, len(g.Adj[idx]))
	for _, e := range g.Adj[idx] {
		set[e.To] = struct{}{}
	}
	return set
}

// Info summarizes graph membership for diagnostics.
type Info struct {
	TotalNodes int            `json:"total_nodes"`
	TotalEdges int            `json:"total_edges"`
	NodeTypes  map[string]int `json:"node_types"`
}

// Stats returns node and edge counts, bucketed per type.
func (g *Graph) Stats() Info {
	types := make(map[string]int, len(g.TypeIndex))
	for t, bucket := range g.TypeIndex {
		types[t.String()] = len(bucket)
	}
	return Info{
		TotalNodes: len(g.Nodes),
		TotalEdges: g.EdgeCount,
		NodeTypes:  types,
	}
}
