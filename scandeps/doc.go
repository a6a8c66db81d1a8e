// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scandeps scans C/C++ source trees and builds the include
// dependency graph.
//
// It only checks the following forms of #include
//
//	#include "foo.h"
//	#include <foo.h>
//	#include_next <foo.h>
//	#import "foo.h"
//
// Macro includes such as `#include FOO_H` are not expanded, and `#if`
// or `#ifdef` are not evaluated, so every directive in a file counts.
// An include is resolved relative to the including file's directory
// first, then in each include directory in order. Includes that don't
// resolve to a scanned file (e.g. system headers) are dropped.
//
// Translation units may carry annotations on a line of their own:
//
//	//@bin [name]     the unit is the root of an executable
//	//@lib [name]     the unit is the root of a shared library
//	//@import a, b    libraries a and b are linked into the unit's target
//
// A translation unit that defines a top-level main function and has no
// annotation is the root of an executable named after the file.
package scandeps
