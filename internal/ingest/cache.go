// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package ingest

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/cinegraph/cinegraph/internal/kg"
	"github.com/cinegraph/cinegraph/internal/logging"
)

const rowCacheKeyPrefix = "rows:"

// RowCache stores normalized rows in BadgerDB keyed by the dataset
// checksum. A dataset change produces a new checksum and therefore a
// clean miss; stale entries are left for Badger's GC.
type RowCache struct {
	db *badger.DB
}

// NewRowCache wraps an open Badger database.
func NewRowCache(db *badger.DB) *RowCache {
	return &RowCache{db: db}
}

// OpenRowCacheDB opens the Badger database backing the row cache.
// Badger's own logger is silenced; the cache logs through the
// application logger instead.
func OpenRowCacheDB(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open row cache: %w", err)
	}
	return db, nil
}

// cacheEntry is the stored value. The checksum is repeated inside the
// value so a corrupted or mismatched entry can be rejected outright.
type cacheEntry struct {
	Checksum string        `json:"checksum"`
	Rows     []kg.MovieRow `json:"rows"`
}

// Get returns the cached rows for a dataset checksum, if present.
func (c *RowCache) Get(checksum string) ([]kg.MovieRow, bool) {
	var entry cacheEntry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(rowCacheKeyPrefix + checksum))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logging.Warn().Err(err).Msg("Row cache read failed")
		}
		return nil, false
	}
	if entry.Checksum != checksum || len(entry.Rows) == 0 {
		return nil, false
	}
	return entry.Rows, true
}

// Put stores normalized rows under the dataset checksum.
func (c *RowCache) Put(checksum string, rows []kg.MovieRow) error {
	data, err := json.Marshal(cacheEntry{Checksum: checksum, Rows: rows})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(rowCacheKeyPrefix+checksum), data)
	})
}
