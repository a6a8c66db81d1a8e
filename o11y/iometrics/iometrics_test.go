// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package iometrics

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIOMetrics(t *testing.T) {
	m := New("scan")
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.ReadDone(100, nil)
			m.OpsDone(nil)
		}()
	}
	wg.Wait()
	m.ReadDone(0, errors.New("read"))
	m.OpsDone(errors.New("stat"))
	m.WriteDone(10, nil)

	want := Stats{
		Ops:     11,
		OpsErrs: 1,
		ROps:    11,
		RBytes:  1000,
		RErrs:   1,
		WOps:    1,
		WBytes:  10,
	}
	if diff := cmp.Diff(want, m.Stats()); diff != "" {
		t.Errorf("Stats diff -want +got:\n%s", diff)
	}
	if got, want := m.String(), "scan: ops=11(err=1) read=11/1000B(err=1) write=1/10B(err=0)"; got != want {
		t.Errorf("String()=%q; want %q", got, want)
	}
}

func TestNil(t *testing.T) {
	var m *IOMetrics
	m.OpsDone(nil)
	m.ReadDone(1, nil)
	m.WriteDone(1, nil)
	if got := m.Stats(); got != (Stats{}) {
		t.Errorf("Stats()=%v; want zero", got)
	}
	if got := m.Name(); got != "" {
		t.Errorf("Name()=%q; want empty", got)
	}
	if got, want := m.String(), "ops=0(err=0) read=0/0B(err=0) write=0/0B(err=0)"; got != want {
		t.Errorf("String()=%q; want %q", got, want)
	}
}
