// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import (
	"errors"

	"github.com/cinegraph/cinegraph/internal/kg"
)

// Sentinel errors returned by the recommender facade.
var (
	// ErrNotInitialized is returned when an operation runs before the
	// graph has been built or loaded.
	ErrNotInitialized = errors.New("recommend: engine not initialized")

	// ErrInvalidArgument is returned for out-of-range or empty
	// parameters.
	ErrInvalidArgument = errors.New("recommend: invalid argument")

	// ErrNotFound is returned when a movie cannot be resolved.
	ErrNotFound = errors.New("recommend: movie not found")
)

// Result type tags distinguishing how a MovieDetail was produced.
const (
	TypeRecommendation = "knowledge_graph_recommendation"
	TypeSearch         = "knowledge_graph_search"
	TypeDetails        = "knowledge_graph_details"
)

// Presentation caps applied to entity lists in MovieDetail. Genres and
// directors are already bounded tighter by graph construction.
const (
	detailMaxActors    = 5
	detailMaxKeywords  = 5
	detailMaxCompanies = 3
)

// Request bounds shared by every operation that takes a result count.
const (
	MinResults = 1
	MaxResults = 50
)

// MovieDetail is the outward-facing movie representation.
type MovieDetail struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	Year       string   `json:"year"`
	Rating     float64  `json:"rating"`
	Popularity float64  `json:"popularity"`
	VoteCount  int      `json:"vote_count"`
	Genres     []string `json:"genres"`
	Directors  []string `json:"directors"`
	Actors     []string `json:"actors"`
	Keywords   []string `json:"keywords"`
	Companies  []string `json:"companies"`
	Type       string   `json:"type"`

	// Score is set only on ranked query results.
	Score float64 `json:"score,omitempty"`
}

// SystemInfo reports the engine's operational state.
type SystemInfo struct {
	Initialized     bool    `json:"initialized"`
	PersistDegraded bool    `json:"persist_degraded"`
	DatasetChecksum string  `json:"dataset_checksum,omitempty"`
	Graph           kg.Info `json:"graph"`
}

// capped returns at most n entries of list, never nil, so the JSON
// encoding is always an array.
func capped(list []string, n int) []string {
	if list == nil {
		return []string{}
	}
	if len(list) > n {
		return list[:n]
	}
	return list
}

// detailFrom converts an internal graph detail into the outward
// representation with presentation caps applied.
func detailFrom(d *kg.Detail, typeTag string) MovieDetail {
	return MovieDetail{
		ID:         d.ID,
		Title:      d.Title,
		Year:       d.Year,
		Rating:     d.Rating,
		Popularity: d.Popularity,
		VoteCount:  d.VoteCount,
		Genres:     capped(d.Genres, kg.MaxGenres),
		Directors:  capped(d.Directors, kg.MaxDirectors),
		Actors:     capped(d.Actors, detailMaxActors),
		Keywords:   capped(d.Keywords, detailMaxKeywords),
		Companies:  capped(d.Companies, detailMaxCompanies),
		Type:       typeTag,
	}
}
