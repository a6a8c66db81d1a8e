// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package runtimex provides processor counts for sizing worker pools.
package runtimex

import "runtime"

var ncpu int

func init() {
	ncpu = getproccount()
	if ncpu == 0 {
		ncpu = runtime.NumCPU()
	}
}

// NumCPU returns the number of logical CPUs usable by the current process.
// On Windows, it counts processors in all processor groups, while
// runtime.NumCPU only counts a single group (up to 64).
func NumCPU() int {
	return ncpu
}

// DefaultJobs returns the default number of parallel compile and link
// steps.
func DefaultJobs() int {
	n := NumCPU() + 2
	if n < 2 {
		n = 2
	}
	return n
}
