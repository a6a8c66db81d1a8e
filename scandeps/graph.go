// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"maps"
	"slices"

	"github.com/kilnbuild/kiln/hashfs"
	"github.com/kilnbuild/kiln/prototypes"
)

// Graph is an include dependency graph of scanned files.
// Every path in the relations is a key of Files.
type Graph struct {
	// Files are scanned files by absolute path.
	Files map[string]*SourceFile

	// HeaderIncluders maps a header to the headers that include it.
	HeaderIncluders map[string][]string

	// HeaderUnits maps a header to the translation units that include it.
	// Edges are unfiltered.
	HeaderUnits map[string][]string

	// UnitHeaders maps a translation unit to the headers it includes.
	UnitHeaders map[string][]string
}

// newGraph merges scan results into a graph.
// It drops includes of files outside of the scanned set.
func newGraph(files []*SourceFile) *Graph {
	g := &Graph{
		Files:           make(map[string]*SourceFile, len(files)),
		HeaderIncluders: make(map[string][]string),
		HeaderUnits:     make(map[string][]string),
		UnitHeaders:     make(map[string][]string),
	}
	for _, f := range files {
		g.Files[f.Path] = f
	}
	for _, fname := range g.Paths() {
		f := g.Files[fname]
		var includes []string
		for _, inc := range f.Includes {
			if inc == fname {
				continue
			}
			if _, ok := g.Files[inc]; !ok {
				continue
			}
			includes = append(includes, inc)
		}
		slices.Sort(includes)
		f.Includes = slices.Compact(includes)
		for _, inc := range f.Includes {
			if g.Files[inc].Kind != Header {
				continue
			}
			switch f.Kind {
			case Header:
				g.HeaderIncluders[inc] = append(g.HeaderIncluders[inc], fname)
			case TranslationUnit:
				g.HeaderUnits[inc] = append(g.HeaderUnits[inc], fname)
				g.UnitHeaders[fname] = append(g.UnitHeaders[fname], inc)
			}
		}
	}
	return g
}

// Paths returns sorted paths of all scanned files.
func (g *Graph) Paths() []string {
	return slices.Sorted(maps.Keys(g.Files))
}

// Units returns sorted paths of translation units.
func (g *Graph) Units() []string {
	var units []string
	for _, fname := range g.Paths() {
		if g.Files[fname].Kind == TranslationUnit {
			units = append(units, fname)
		}
	}
	return units
}

// Roots returns sorted paths of translation units that are link roots.
func (g *Graph) Roots() []string {
	var roots []string
	for _, fname := range g.Units() {
		if g.Files[fname].Role != RoleNone {
			roots = append(roots, fname)
		}
	}
	return roots
}

// IsHeader reports whether fname is a scanned header.
func (g *Graph) IsHeader(fname string) bool {
	f, ok := g.Files[fname]
	return ok && f.Kind == Header
}

// IsUnit reports whether fname is a scanned translation unit.
func (g *Graph) IsUnit(fname string) bool {
	f, ok := g.Files[fname]
	return ok && f.Kind == TranslationUnit
}

// Prototypes returns the signature set of fname, or nil if not scanned.
func (g *Graph) Prototypes(fname string) *prototypes.Set {
	f, ok := g.Files[fname]
	if !ok {
		return nil
	}
	return f.Prototypes
}

// Snapshot returns the digests of scanned files.
func (g *Graph) Snapshot() *hashfs.Snapshot {
	s := hashfs.NewSnapshot()
	for fname, f := range g.Files {
		s.Set(fname, f.Digest)
	}
	return s
}

// HeaderClosure returns sorted headers reachable from fnames by
// following includes through headers. fnames themselves are included
// if they are headers.
func (g *Graph) HeaderClosure(fnames ...string) []string {
	visited := make(map[string]bool)
	var stack []string
	for _, fname := range fnames {
		if g.IsHeader(fname) && !visited[fname] {
			visited[fname] = true
			stack = append(stack, fname)
		}
	}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, inc := range g.Files[h].Includes {
			if g.IsHeader(inc) && !visited[inc] {
				visited[inc] = true
				stack = append(stack, inc)
			}
		}
	}
	return slices.Sorted(maps.Keys(visited))
}

// Includers returns sorted headers that include h directly or
// transitively, including h itself.
func (g *Graph) Includers(h string) []string {
	visited := map[string]bool{h: true}
	stack := []string{h}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, inc := range g.HeaderIncluders[cur] {
			if !visited[inc] {
				visited[inc] = true
				stack = append(stack, inc)
			}
		}
	}
	return slices.Sorted(maps.Keys(visited))
}

// DependentUnits returns sorted translation units that include header h
// directly or through other headers. Edges are unfiltered.
func (g *Graph) DependentUnits(h string) []string {
	units := make(map[string]bool)
	for _, inc := range g.Includers(h) {
		for _, u := range g.HeaderUnits[inc] {
			units[u] = true
		}
	}
	return slices.Sorted(maps.Keys(units))
}
