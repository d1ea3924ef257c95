// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package store persists the knowledge graph to a single file.
//
// The graph is serialized with Go's gob encoding, gzip-compressed and
// wrapped in a header carrying a schema version, the checksum of the
// source dataset it was built from, and a SHA-256 checksum of the
// uncompressed payload. Saves are atomic: the file is written to a
// temporary sibling and renamed into place, so readers never observe a
// partial write.
package store

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cinegraph/cinegraph/internal/kg"
	"github.com/cinegraph/cinegraph/internal/metrics"
)

// SchemaVersion is bumped whenever the serialized graph layout changes
// incompatibly. Files with a different version are rejected on load.
const SchemaVersion = 1

var (
	// ErrNotFound is returned by Load when no graph file exists.
	ErrNotFound = errors.New("store: graph file not found")

	// ErrSchemaMismatch is returned by Load when the file was written
	// with a different schema version.
	ErrSchemaMismatch = errors.New("store: schema version mismatch")

	// ErrChecksumMismatch is returned by Load when the payload does not
	// match its recorded checksum.
	ErrChecksumMismatch = errors.New("store: payload checksum mismatch")
)

// Metadata describes a stored graph.
type Metadata struct {
	// SchemaVersion is the serialization schema the file was written with.
	SchemaVersion int `json:"schema_version"`

	// SourceChecksum identifies the dataset the graph was built from.
	// A mismatch against the live dataset means the graph is stale.
	SourceChecksum string `json:"source_checksum"`

	// SavedAt is when the graph was persisted.
	SavedAt time.Time `json:"saved_at"`

	// Checksum is the SHA-256 of the uncompressed gob payload.
	Checksum string `json:"checksum"`

	// NodeCount and EdgeCount summarize the stored graph.
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`
}

// storedFile is the on-disk format.
type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// Store persists a single knowledge graph at a fixed path.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a store for the given file path, creating the parent
// directory if needed.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}
	return &Store{path: path}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Save persists the graph, recording sourceChecksum so a later Load can
// detect whether the underlying dataset changed.
func (s *Store) Save(g *kg.Graph, sourceChecksum string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		metrics.StoreOperations.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("encode graph: %w", err)
	}
	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		metrics.StoreOperations.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("compress graph: %w", err)
	}
	if err := gzw.Close(); err != nil {
		metrics.StoreOperations.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("finalize compression: %w", err)
	}

	sf := storedFile{
		Metadata: Metadata{
			SchemaVersion:  SchemaVersion,
			SourceChecksum: sourceChecksum,
			SavedAt:        time.Now(),
			Checksum:       hex.EncodeToString(hash[:]),
			NodeCount:      g.NodeCount(),
			EdgeCount:      g.EdgeCount,
			SizeBytes:      int64(compressed.Len()),
		},
		CompressedData: compressed.Bytes(),
	}

	if err := s.writeAtomic(sf); err != nil {
		metrics.StoreOperations.WithLabelValues("save", "error").Inc()
		return err
	}

	metrics.StoreOperations.WithLabelValues("save", "success").Inc()
	return nil
}

// writeAtomic writes the stored file to a temp sibling and renames it
// over the target path.
func (s *Store) writeAtomic(sf storedFile) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := gob.NewEncoder(tmp).Encode(sf); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write graph file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close graph file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace graph file: %w", err)
	}
	return nil
}

// Load reads the stored graph, verifies its integrity and rebuilds the
// derived indices. The returned metadata carries the source checksum
// the caller compares against the live dataset.
func (s *Store) Load() (*kg.Graph, *Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			metrics.StoreOperations.WithLabelValues("load", "miss").Inc()
			return nil, nil, ErrNotFound
		}
		metrics.StoreOperations.WithLabelValues("load", "error").Inc()
		return nil, nil, fmt.Errorf("open graph file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		metrics.StoreOperations.WithLabelValues("load", "error").Inc()
		return nil, nil, fmt.Errorf("read graph file: %w", err)
	}

	if sf.Metadata.SchemaVersion != SchemaVersion {
		metrics.StoreOperations.WithLabelValues("load", "error").Inc()
		return nil, nil, fmt.Errorf("%w: file has v%d, want v%d",
			ErrSchemaMismatch, sf.Metadata.SchemaVersion, SchemaVersion)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		metrics.StoreOperations.WithLabelValues("load", "error").Inc()
		return nil, nil, fmt.Errorf("decompress graph: %w", err)
	}
	defer func() { _ = gzr.Close() }()

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		metrics.StoreOperations.WithLabelValues("load", "error").Inc()
		return nil, nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(rawData)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		metrics.StoreOperations.WithLabelValues("load", "error").Inc()
		return nil, nil, fmt.Errorf("%w: expected %s, got %s",
			ErrChecksumMismatch, sf.Metadata.Checksum, checksum)
	}

	var g kg.Graph
	if err := gob.NewDecoder(bytes.NewReader(rawData)).Decode(&g); err != nil {
		metrics.StoreOperations.WithLabelValues("load", "error").Inc()
		return nil, nil, fmt.Errorf("decode graph: %w", err)
	}
	g.Reindex()

	metrics.StoreOperations.WithLabelValues("load", "success").Inc()
	return &g, &sf.Metadata, nil
}
