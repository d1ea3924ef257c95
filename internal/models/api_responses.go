// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package models defines the shared API response shapes used by all
// HTTP endpoints.
package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints. Status is "success" or "error"; Error is populated only
// when Status is "error".
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"recommendations": [...], "count": 10},
//	  "metadata": {"timestamp": "2026-08-29T12:00:00Z", "query_time_ms": 3}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError represents an error response with structured details.
//
// Common error codes:
//   - VALIDATION_ERROR: invalid input parameters
//   - NOT_FOUND: no movie matched the query
//   - NOT_INITIALIZED: the knowledge graph failed to initialize
//   - INTERNAL_ERROR: unexpected failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
