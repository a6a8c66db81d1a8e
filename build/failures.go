// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"sync"
)

// failures manages number of failures.
type failures struct {
	mu       sync.Mutex
	compile  int
	link     int
	firstErr error
}

func (f *failures) add(action string, err error) {
	if err == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.firstErr == nil {
		f.firstErr = err
	}
	if action == actionCompile {
		f.compile++
		return
	}
	f.link++
}

// err returns Error if any step failed.
func (f *failures) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.firstErr == nil {
		return nil
	}
	return Error{
		CompileFailures: f.compile,
		LinkFailures:    f.link,
		First:           f.firstErr,
	}
}
