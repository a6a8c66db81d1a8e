// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/kilnbuild/kiln/prototypes"
	"github.com/kilnbuild/kiln/scandeps"
)

// LinkUnit is a link output built from a root translation unit.
type LinkUnit struct {
	Root string
	Role scandeps.Role
	Name string
	// Imports are library names to link with.
	Imports []string
	// Members are translation units to link, root first, then sorted.
	Members []string
	// NeedsRelink is set if a member's change may alter the output.
	NeedsRelink bool
}

// OutputName returns the output name of the unit: its declared name,
// or the root's file name without extension.
func (u *LinkUnit) OutputName() string {
	if u.Name != "" {
		return u.Name
	}
	base := filepath.Base(u.Root)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SelectLinkUnits computes link units for roots in the graph.
// edges are the prototype-filtered header to unit edges.
// Libraries come before binaries, each sorted by root.
func SelectLinkUnits(g *scandeps.Graph, edges prototypes.Edges, cs CompileSet) ([]*LinkUnit, error) {
	var libs, bins []*LinkUnit
	mainOwner := make(map[string]string)
	for _, root := range g.Roots() {
		f := g.Files[root]
		u := &LinkUnit{
			Root:    root,
			Role:    f.Role,
			Name:    f.Name,
			Imports: f.Imports,
			Members: linkMembers(g, edges, root),
		}
		u.NeedsRelink = needsRelink(g, cs, u.Members)
		if u.Role == scandeps.RoleLibrary {
			libs = append(libs, u)
			continue
		}
		for _, m := range u.Members {
			if !g.Files[m].DeclaresMain {
				continue
			}
			if other, ok := mainOwner[m]; ok {
				return nil, MainConflictError{
					Roots:  [2]string{other, root},
					Member: m,
				}
			}
			mainOwner[m] = root
		}
		bins = append(bins, u)
	}
	return append(libs, bins...), nil
}

// linkMembers returns the root and translation units reachable from it
// through included headers and filtered edges, transitively.
// A header leads to its filtered units only from a unit that references
// a symbol the header declares, so including a header without using it
// doesn't pull in the units defining it.
func linkMembers(g *scandeps.Graph, edges prototypes.Edges, root string) []string {
	visited := map[string]bool{root: true}
	queue := []string{root}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		ps := g.Prototypes(u)
		for _, h := range g.HeaderClosure(g.UnitHeaders[u]...) {
			if !ps.References(g.Prototypes(h)) {
				continue
			}
			for _, t := range edges.Units(h) {
				if visited[t] {
					continue
				}
				visited[t] = true
				queue = append(queue, t)
			}
		}
	}
	members := make([]string, 0, len(visited))
	for m := range visited {
		if m != root {
			members = append(members, m)
		}
	}
	slices.Sort(members)
	return append([]string{root}, members...)
}

// needsRelink reports whether any member triggers relink.
// A changed member always does. A member compiled only because of
// changed headers does if its signatures intersect one of the headers'.
func needsRelink(g *scandeps.Graph, cs CompileSet, members []string) bool {
	for _, m := range members {
		e, ok := cs[m]
		if !ok {
			continue
		}
		switch e.Reason {
		case Changed:
			return true
		case HeaderChanged:
			ps := g.Prototypes(m)
			for _, h := range e.Headers {
				if ps.Intersects(g.Prototypes(h)) {
					return true
				}
			}
		}
	}
	return false
}
