// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"fmt"
)

// StepError is step execution error.
type StepError struct {
	// Action is "compile", "link" or "dependency".
	Action string
	// Target is a source path for compile, a root path for link,
	// or a project directory for dependency.
	Target string
	Cause  error
	// Output is captured diagnostics of the step.
	Output string
}

func (e StepError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Action, e.Target, e.Cause)
}

func (e StepError) Unwrap() error {
	return e.Cause
}

// MissingObjectError is an error when an object of a link member is
// not available at link time.
type MissingObjectError struct {
	Root   string
	Member string
}

func (e MissingObjectError) Error() string {
	return fmt.Sprintf("link %s: missing object for %s", e.Root, e.Member)
}

// MainConflictError is an error when two binary roots share a member
// that declares main.
type MainConflictError struct {
	Roots  [2]string
	Member string
}

func (e MainConflictError) Error() string {
	return fmt.Sprintf("binaries %s and %s both link %s which declares main", e.Roots[0], e.Roots[1], e.Member)
}

// Error is an error of a build with failed steps.
type Error struct {
	CompileFailures int
	LinkFailures    int
	// First is the first step error.
	First error
}

func (e Error) Error() string {
	return fmt.Sprintf("%d compile and %d link failures: %v", e.CompileFailures, e.LinkFailures, e.First)
}

func (e Error) Unwrap() error {
	return e.First
}
