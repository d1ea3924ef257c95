// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// DatasetChecksum computes a SHA-256 identity over the source files in
// the given order. Any byte change in either file, or a swap of the
// two, yields a different checksum.
func DatasetChecksum(paths ...string) (string, error) {
	h := sha256.New()
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", path, err)
		}
		// The path participates so renames invalidate too.
		_, _ = io.WriteString(h, path)
		if _, err := io.Copy(h, f); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("hash %s: %w", path, err)
		}
		_ = f.Close()
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
