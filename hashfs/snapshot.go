// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package hashfs

import (
	"maps"
	"slices"

	"github.com/kilnbuild/kiln/digest"
)

// Snapshot is a mapping from absolute path to content digest.
//
// The snapshot computed by a scan is the "new" snapshot, and the one
// loaded from the store is the "old" snapshot of the previous build.
// Snapshot is not safe for concurrent writes.
type Snapshot struct {
	m map[string]digest.Digest
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{m: make(map[string]digest.Digest)}
}

// Len returns number of entries in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.m)
}

// Get returns the digest of fname.
func (s *Snapshot) Get(fname string) (digest.Digest, bool) {
	if s == nil {
		return digest.Digest{}, false
	}
	d, ok := s.m[fname]
	return d, ok
}

// Set sets the digest of fname.
func (s *Snapshot) Set(fname string, d digest.Digest) {
	s.m[fname] = d
}

// Delete removes fname from the snapshot.
func (s *Snapshot) Delete(fname string) {
	delete(s.m, fname)
}

// Paths returns sorted paths in the snapshot.
func (s *Snapshot) Paths() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.m))
}

// Clone returns a copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return NewSnapshot()
	}
	return &Snapshot{m: maps.Clone(s.m)}
}

// Digests returns the set of all digests in the snapshot.
func (s *Snapshot) Digests() map[digest.Digest]bool {
	ds := make(map[digest.Digest]bool, s.Len())
	if s == nil {
		return ds
	}
	for _, d := range s.m {
		ds[d] = true
	}
	return ds
}

// PathsOf returns sorted paths whose digest is d.
func (s *Snapshot) PathsOf(d digest.Digest) []string {
	if s == nil {
		return nil
	}
	var paths []string
	for fname, fd := range s.m {
		if fd == d {
			paths = append(paths, fname)
		}
	}
	slices.Sort(paths)
	return paths
}
