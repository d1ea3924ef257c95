// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package services

import (
	"context"

	"github.com/thejerf/suture/v4"
)

// Initializer is the engine bootstrap surface.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// EngineInitService runs the one-shot graph initialization under
// supervision. On failure suture restarts it with backoff; once the
// graph is up the service terminates and is not restarted.
type EngineInitService struct {
	engine Initializer
}

// NewEngineInitService wraps the recommender bootstrap.
func NewEngineInitService(engine Initializer) *EngineInitService {
	return &EngineInitService{engine: engine}
}

// Serve implements suture.Service.
func (s *EngineInitService) Serve(ctx context.Context) error {
	if err := s.engine.Initialize(ctx); err != nil {
		return err
	}
	return suture.ErrDoNotRestart
}

// String identifies the service in supervisor logs.
func (s *EngineInitService) String() string {
	return "engine-init"
}
