// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"sync"
)

type stats struct {
	mu sync.Mutex
	s  Stats
}

func newStats(total int) *stats {
	return &stats{
		s: Stats{
			Total: total,
		},
	}
}

type stepResult int

const (
	stepCompiled stepResult = iota
	stepLinked
	stepUpToDate
	stepSkipped
	stepFailed
)

func (s *stats) update(r stepResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.s.Done++
	switch r {
	case stepCompiled:
		s.s.Compiled++
	case stepLinked:
		s.s.Linked++
	case stepUpToDate:
		s.s.UpToDate++
	case stepSkipped:
		s.s.Skipped++
	case stepFailed:
		s.s.Fail++
	}
}

func (s *stats) setDedup(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.s.Dedup = n
}

func (s *stats) setPruned(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.s.Pruned = n
}

// Stats keeps statistics about the build.
type Stats struct {
	Done     int // completed steps, including up-to-date, skipped and failed
	Fail     int // failed steps
	Compiled int // compile steps that succeeded
	Linked   int // link steps that succeeded
	UpToDate int // link units that needed no relink
	Skipped  int // link units not linked because a member failed to compile
	Dedup    int // compile-set paths served by another path's object
	Pruned   int // removed orphan objects
	Total    int // total steps of the build
}

func (s *stats) stats() Stats {
	if s == nil {
		return Stats{}
	}
	s.mu.Lock()
	stats := s.s
	s.mu.Unlock()
	return stats
}
