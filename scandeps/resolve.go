// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/kilnbuild/kiln/o11y/iometrics"
)

// resolver resolves include paths to files.
// It caches stat results and is safe for concurrent use.
type resolver struct {
	includeDirs []string
	stats       sync.Map // path -> bool (regular file exists)
	m           *iometrics.IOMetrics
}

func newResolver(includeDirs []string, m *iometrics.IOMetrics) *resolver {
	return &resolver{includeDirs: includeDirs, m: m}
}

func (r *resolver) isFile(fname string) bool {
	if v, ok := r.stats.Load(fname); ok {
		return v.(bool)
	}
	fi, err := os.Stat(fname)
	if errors.Is(err, fs.ErrNotExist) {
		r.m.OpsDone(nil)
	} else {
		r.m.OpsDone(err)
	}
	exists := err == nil && fi.Mode().IsRegular()
	r.stats.Store(fname, exists)
	return exists
}

// resolve resolves include name for a file in dir.
// It looks in dir first, then in each include directory in order.
// It returns "" if not found.
func (r *resolver) resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		name = filepath.Clean(name)
		if r.isFile(name) {
			return name
		}
		return ""
	}
	fname := filepath.Join(dir, name)
	if r.isFile(fname) {
		return fname
	}
	for _, idir := range r.includeDirs {
		fname := filepath.Join(idir, name)
		if r.isFile(fname) {
			return fname
		}
	}
	return ""
}
