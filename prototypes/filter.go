// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package prototypes

import (
	"slices"
)

// Edges maps a header to the translation units that include it and
// whose signature sets intersect the header's.
type Edges map[string][]string

// Units returns the filtered translation units of header h.
func (e Edges) Units(h string) []string {
	return e[h]
}

// Has reports whether the edge h -> unit survived filtering.
func (e Edges) Has(h, unit string) bool {
	_, found := slices.BinarySearch(e[h], unit)
	return found
}

// Filter keeps the header -> translation unit edges of headerUnits whose
// signature sets intersect. lookup returns the signature set of a file.
func Filter(headerUnits map[string][]string, lookup func(fname string) *Set) Edges {
	edges := make(Edges)
	for h, units := range headerUnits {
		hs := lookup(h)
		if hs.Len() == 0 {
			continue
		}
		for _, u := range units {
			if hs.Intersects(lookup(u)) {
				edges[h] = append(edges[h], u)
			}
		}
		slices.Sort(edges[h])
	}
	return edges
}
