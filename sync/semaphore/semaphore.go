// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package semaphore provides a named counting semaphore with stats.
package semaphore

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Semaphore is a counting semaphore. Each acquired slot has a
// one-based slot id, used as a worker id in logs.
type Semaphore struct {
	name string
	ch   chan int

	waits atomic.Int64
	reqs  atomic.Int64
}

type slotKey struct{}

// New creates a new semaphore with name and capacity n.
// n less than 1 is treated as 1.
func New(name string, n int) *Semaphore {
	if n < 1 {
		n = 1
	}
	ch := make(chan int, n)
	for i := range n {
		ch <- i + 1
	}
	return &Semaphore{
		name: name,
		ch:   ch,
	}
}

// WaitAcquire waits until a slot is available and acquires it.
// It returns a context carrying the slot id and a func to release it.
func (s *Semaphore) WaitAcquire(ctx context.Context) (context.Context, func(), error) {
	s.waits.Add(1)
	defer s.waits.Add(-1)
	select {
	case slot := <-s.ch:
		s.reqs.Add(1)
		return context.WithValue(ctx, slotKey{}, slot), func() {
			s.ch <- slot
		}, nil
	case <-ctx.Done():
		return ctx, func() {}, fmt.Errorf("semaphore %s: %w", s.name, context.Cause(ctx))
	}
}

// Do runs f while holding a slot.
func (s *Semaphore) Do(ctx context.Context, f func(ctx context.Context) error) error {
	ctx, done, err := s.WaitAcquire(ctx)
	if err != nil {
		return err
	}
	defer done()
	return f(ctx)
}

// Slot returns the slot id acquired in ctx, or 0 if ctx doesn't hold a slot.
func Slot(ctx context.Context) int {
	slot, _ := ctx.Value(slotKey{}).(int)
	return slot
}

// Name returns name of the semaphore.
func (s *Semaphore) Name() string {
	return s.name
}

// Capacity returns capacity of the semaphore.
func (s *Semaphore) Capacity() int {
	if s == nil {
		return 0
	}
	return cap(s.ch)
}

// NumServs returns number of slots currently held.
func (s *Semaphore) NumServs() int {
	return cap(s.ch) - len(s.ch)
}

// NumWaits returns number of waiters.
func (s *Semaphore) NumWaits() int {
	return int(s.waits.Load())
}

// NumRequests returns total number of acquired slots.
func (s *Semaphore) NumRequests() int {
	return int(s.reqs.Load())
}
