// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package clog_test is a test for clog package.
package clog_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/kilnbuild/kiln/o11y/clog"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func Test(t *testing.T) {
	var buf syncBuffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})
	ctx := clog.NewContext(context.Background(), logger)

	clog.Infof(ctx, "Info")
	clog.Warningf(ctx, "Warning")
	clog.Errorf(ctx, "Error")
	clog.Debugf(ctx, "Debug")

	var wg sync.WaitGroup
	for _, id := range []string{"id1", "id2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx := clog.NewSpan(ctx, "id", id)
			clog.Infof(cctx, "Child Info")
			clog.Errorf(cctx, "Child Error")
		}()
	}
	wg.Wait()

	got := buf.String()
	for _, want := range []string{"Info", "Warning", "Error", "Child Info id=id1", "Child Info id=id2"} {
		if !strings.Contains(got, want) {
			t.Errorf("log output doesn't contain %q\n%s", want, got)
		}
	}
	if strings.Contains(got, "Debug") {
		t.Errorf("log output contains debug message at info level\n%s", got)
	}
	if clog.V(ctx) {
		t.Errorf("clog.V(ctx)=true at info level; want false")
	}
}

func TestFromContextDefault(t *testing.T) {
	if got := clog.FromContext(context.Background()); got != log.Default() {
		t.Errorf("clog.FromContext(empty)=%p; want default logger %p", got, log.Default())
	}
}
