// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"maps"
	"slices"

	"github.com/kilnbuild/kiln/digest"
	"github.com/kilnbuild/kiln/hashfs"
	"github.com/kilnbuild/kiln/scandeps"
)

// Reason is why a translation unit is compiled.
type Reason int

const (
	// Changed is for a unit whose own content is new or changed,
	// or whose object is missing.
	Changed Reason = iota
	// HeaderChanged is for a unit that includes a changed header.
	HeaderChanged
)

func (r Reason) String() string {
	switch r {
	case Changed:
		return "changed"
	case HeaderChanged:
		return "header-changed"
	}
	return "unknown"
}

// CompileEntry is a translation unit to compile.
type CompileEntry struct {
	Digest digest.Digest
	Reason Reason
	// Headers are sorted changed headers that reached the unit.
	// Empty for Changed.
	Headers []string
}

// CompileSet maps translation unit path to its compile entry.
type CompileSet map[string]*CompileEntry

// Paths returns sorted paths in the compile set.
func (cs CompileSet) Paths() []string {
	return slices.Sorted(maps.Keys(cs))
}

// Digests returns distinct digests in the compile set with the first
// path carrying each digest, ordered by the path.
func (cs CompileSet) Digests() ([]digest.Digest, map[digest.Digest]string) {
	var ds []digest.Digest
	first := make(map[digest.Digest]string)
	for _, fname := range cs.Paths() {
		d := cs[fname].Digest
		if _, ok := first[d]; ok {
			continue
		}
		first[d] = fname
		ds = append(ds, d)
	}
	return ds, first
}

// SelectCompileSet selects translation units to compile by comparing
// the new snapshot of this build with the old snapshot of the previous
// build. It also returns digests of objects that no snapshot path refers
// to anymore.
//
// Paths in the snapshot that are not in the graph (e.g. a config file)
// never join the compile set.
func SelectCompileSet(g *scandeps.Graph, newSnap, oldSnap *hashfs.Snapshot, objs ObjectChecker) (CompileSet, []digest.Digest) {
	cs := make(CompileSet)
	consumed := make(map[string]bool)
	var changedHeaders []string
	for _, fname := range newSnap.Paths() {
		d, _ := newSnap.Get(fname)
		f, inGraph := g.Files[fname]
		od, ok := oldSnap.Get(fname)
		if ok && od == d {
			if !inGraph || f.Kind == scandeps.Header || objs.Has(d) {
				consumed[fname] = true
				continue
			}
		}
		if !inGraph {
			continue
		}
		switch f.Kind {
		case scandeps.TranslationUnit:
			cs[fname] = &CompileEntry{Digest: d, Reason: Changed}
		case scandeps.Header:
			changedHeaders = append(changedHeaders, fname)
		}
	}
	for _, h := range changedHeaders {
		for _, u := range g.DependentUnits(h) {
			e, ok := cs[u]
			if !ok {
				d, _ := newSnap.Get(u)
				cs[u] = &CompileEntry{
					Digest:  d,
					Reason:  HeaderChanged,
					Headers: []string{h},
				}
				continue
			}
			if e.Reason == HeaderChanged {
				e.Headers = append(e.Headers, h)
			}
		}
	}

	live := newSnap.Digests()
	orphans := make(map[digest.Digest]bool)
	for _, fname := range oldSnap.Paths() {
		if consumed[fname] {
			continue
		}
		od, _ := oldSnap.Get(fname)
		if !live[od] {
			orphans[od] = true
		}
	}
	return cs, slices.SortedFunc(maps.Keys(orphans), func(a, b digest.Digest) int {
		return slices.Compare(a[:], b[:])
	})
}
