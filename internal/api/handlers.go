// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package api provides the HTTP layer: Chi routing, middleware and the
// knowledge graph endpoint handlers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/cinegraph/cinegraph/internal/kg"
	"github.com/cinegraph/cinegraph/internal/logging"
	"github.com/cinegraph/cinegraph/internal/recommend"
)

// Engine is the recommender surface the handlers depend on.
type Engine interface {
	RecommendByKeyword(ctx context.Context, keyword string, n int) ([]recommend.MovieDetail, error)
	RecommendSimilar(ctx context.Context, title string, n int) ([]recommend.MovieDetail, error)
	Search(ctx context.Context, query string, limit int) ([]recommend.MovieDetail, error)
	MovieDetailsByID(ctx context.Context, id int) (*recommend.MovieDetail, error)
	MovieDetailsByTitle(ctx context.Context, title string) (*recommend.MovieDetail, error)
	MultiRecommend(ctx context.Context, keywords []string, movie string, n int) ([]recommend.MovieDetail, error)
	SearchSuggestions(ctx context.Context, title string, limit int) []string
	RandomMovies(ctx context.Context, n int) ([]recommend.MovieDetail, error)
	GraphInfo(ctx context.Context) (kg.Info, error)
	SystemInfo(ctx context.Context) recommend.SystemInfo
}

// Handlers holds the endpoint implementations.
type Handlers struct {
	engine       Engine
	defaultLimit int
	maxLimit     int
}

// NewHandlers creates the endpoint set. defaultLimit is used when the
// client omits a count parameter; maxLimit caps it.
func NewHandlers(engine Engine, defaultLimit, maxLimit int) *Handlers {
	return &Handlers{
		engine:       engine,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// countRequest validates a requested result count.
type countRequest struct {
	Count int `validate:"min=1,max=50"`
}

// resolveCount reads a count query parameter, applies the default and
// rejects out-of-range values with a 400. The second return is false
// when the error response has already been written.
func (h *Handlers) resolveCount(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	return h.checkCount(w, getIntParam(r, key, h.defaultLimit))
}

// checkCount validates a requested result count against the shared
// range and the configured maximum, writing a 400 on violation.
func (h *Handlers) checkCount(w http.ResponseWriter, n int) (int, bool) {
	if apiErr := validateRequest(&countRequest{Count: n}); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return 0, false
	}
	if n > h.maxLimit {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("count must be between 1 and %d", h.maxLimit), nil)
		return 0, false
	}
	return n, true
}

// handleEngineError maps facade sentinel errors onto HTTP statuses.
func handleEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recommend.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, recommend.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, recommend.ErrNotInitialized):
		respondError(w, http.StatusServiceUnavailable, "NOT_INITIALIZED",
			"knowledge graph is not initialized", err)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"internal server error", err)
	}
}

// RecommendKeyword handles GET /api/v1/kg/recommend-keyword.
func (h *Handlers) RecommendKeyword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "keyword parameter is required", nil)
		return
	}
	n, ok := h.resolveCount(w, r, "n")
	if !ok {
		return
	}

	recs, err := h.engine.RecommendByKeyword(r.Context(), keyword, n)
	if err != nil {
		handleEngineError(w, err)
		return
	}
	if len(recs) == 0 {
		h.respondNotFoundWithSuggestions(w, r, keyword, "no movies matched the keyword")
		return
	}

	respondSuccess(w, map[string]interface{}{
		"keyword":         keyword,
		"recommendations": recs,
		"count":           len(recs),
	}, start)
}

// RecommendSimilar handles GET /api/v1/kg/recommend-similar. A title
// that fails to resolve, or one with no similar movies, produces a 404
// carrying suggestion titles.
func (h *Handlers) RecommendSimilar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	title := r.URL.Query().Get("title")
	if title == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "title parameter is required", nil)
		return
	}
	n, ok := h.resolveCount(w, r, "n")
	if !ok {
		return
	}

	recs, err := h.engine.RecommendSimilar(r.Context(), title, n)
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			h.respondNotFoundWithSuggestions(w, r, title, "movie not found")
			return
		}
		handleEngineError(w, err)
		return
	}
	if len(recs) == 0 {
		h.respondNotFoundWithSuggestions(w, r, title, "no similar movies found")
		return
	}

	respondSuccess(w, map[string]interface{}{
		"title":           title,
		"recommendations": recs,
		"count":           len(recs),
	}, start)
}

// Search handles GET /api/v1/kg/search.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "q parameter is required", nil)
		return
	}
	limit, ok := h.resolveCount(w, r, "limit")
	if !ok {
		return
	}

	results, err := h.engine.Search(r.Context(), query, limit)
	if err != nil {
		handleEngineError(w, err)
		return
	}

	respondSuccess(w, map[string]interface{}{
		"query":   query,
		"results": results,
		"count":   len(results),
	}, start)
}

// MovieDetails handles GET /api/v1/kg/movie-details, accepting either
// an id or a title parameter.
func (h *Handlers) MovieDetails(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	title := r.URL.Query().Get("title")
	id := getIntParam(r, "id", 0)
	if title == "" && id == 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "either id or title parameter is required", nil)
		return
	}

	var (
		detail *recommend.MovieDetail
		err    error
	)
	if id != 0 {
		detail, err = h.engine.MovieDetailsByID(r.Context(), id)
	} else {
		detail, err = h.engine.MovieDetailsByTitle(r.Context(), title)
	}
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) && title != "" {
			h.respondNotFoundWithSuggestions(w, r, title, "movie not found")
			return
		}
		handleEngineError(w, err)
		return
	}

	respondSuccess(w, detail, start)
}

// RandomMovies handles GET /api/v1/kg/movies/random.
func (h *Handlers) RandomMovies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	n, ok := h.resolveCount(w, r, "n")
	if !ok {
		return
	}

	movies, err := h.engine.RandomMovies(r.Context(), n)
	if err != nil {
		handleEngineError(w, err)
		return
	}

	respondSuccess(w, map[string]interface{}{
		"movies": movies,
		"count":  len(movies),
	}, start)
}

// multiRecommendRequest is the POST /multi-recommend body.
type multiRecommendRequest struct {
	Keywords []string `json:"keywords"`
	Movie    string   `json:"movie"`
	N        int      `json:"n"`
}

// MultiRecommend handles POST /api/v1/kg/multi-recommend: keyword-union
// recommendations across several terms, or similar-movie recommendation
// when only a reference movie is given.
func (h *Handlers) MultiRecommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req multiRecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	if len(req.Keywords) == 0 && req.Movie == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"either keywords or movie is required", nil)
		return
	}
	n := req.N
	if n == 0 {
		n = h.defaultLimit
	}
	n, ok := h.checkCount(w, n)
	if !ok {
		return
	}

	recs, err := h.engine.MultiRecommend(r.Context(), req.Keywords, req.Movie, n)
	if err != nil {
		handleEngineError(w, err)
		return
	}

	respondSuccess(w, map[string]interface{}{
		"request": map[string]interface{}{
			"keywords": req.Keywords,
			"movie":    req.Movie,
			"n":        n,
		},
		"recommendations": recs,
		"count":           len(recs),
	}, start)
}

// GraphInfo handles GET /api/v1/kg/graph-info.
func (h *Handlers) GraphInfo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	info, err := h.engine.GraphInfo(r.Context())
	if err != nil {
		handleEngineError(w, err)
		return
	}
	respondSuccess(w, info, start)
}

// SystemInfo handles GET /api/v1/kg/system-info. It reports state even
// when the engine is not initialized.
func (h *Handlers) SystemInfo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, h.engine.SystemInfo(r.Context()), start)
}

// Health handles GET /health. The service is healthy once the HTTP
// layer runs; readiness of the graph is reported separately.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	info := h.engine.SystemInfo(r.Context())
	status := "ok"
	if !info.Initialized {
		status = "initializing"
	}
	respondSuccess(w, map[string]interface{}{
		"status":      status,
		"initialized": info.Initialized,
	}, start)
}

// respondNotFoundWithSuggestions sends a 404 whose details carry
// near-miss titles for the failed lookup.
func (h *Handlers) respondNotFoundWithSuggestions(w http.ResponseWriter, r *http.Request, term, message string) {
	suggestions := h.engine.SearchSuggestions(r.Context(), term, 5)
	if suggestions == nil {
		suggestions = []string{}
	}
	logging.Ctx(r.Context()).Debug().
		Str("term", sanitizeLogValue(term)).
		Int("suggestions", len(suggestions)).
		Msg("No results for query")
	respondErrorWithDetails(w, http.StatusNotFound, "NOT_FOUND", message,
		map[string]interface{}{"suggestions": suggestions})
}
