// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package runtimex

import "testing"

func TestNumCPU(t *testing.T) {
	if got := NumCPU(); got < 1 {
		t.Errorf("NumCPU()=%d; want >= 1", got)
	}
	if got, want := DefaultJobs(), NumCPU()+2; got != want {
		t.Errorf("DefaultJobs()=%d; want %d", got, want)
	}
}
