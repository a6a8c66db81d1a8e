// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package gccutil builds gcc/clang compatible command lines.
package gccutil

import (
	"path/filepath"
	"strings"
)

// IsCXX reports whether fname is a C++ source file.
func IsCXX(fname string) bool {
	switch filepath.Ext(fname) {
	case ".cc", ".cpp", ".cxx", ".c++", ".hh", ".hpp", ".hxx", ".h++":
		return true
	}
	return false
}

// CompileParams are parameters of a compile command.
type CompileParams struct {
	Compiler    string
	Std         string
	Flags       []string
	IncludeDirs []string
	// PIC is set for objects linked into shared libraries.
	PIC bool
	// Color forces colored diagnostics.
	Color bool

	Source string
	Output string
}

// Args returns a command line to compile Source into Output.
func (p CompileParams) Args() []string {
	args := []string{p.Compiler}
	if p.Color {
		args = append(args, "-fdiagnostics-color=always")
	}
	if p.Std != "" {
		args = append(args, "-std="+p.Std)
	}
	args = append(args, p.Flags...)
	if p.PIC {
		args = append(args, "-fPIC")
	}
	for _, dir := range p.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	return append(args, "-c", p.Source, "-o", p.Output)
}

// Library is a library to link with.
type Library struct {
	Libs []string
	Dirs []string
}

// LinkParams are parameters of a link command.
type LinkParams struct {
	Linker string
	Flags  []string
	// Shared links a shared library instead of an executable.
	Shared bool
	Color  bool

	Objects   []string
	Libraries []Library
	Output    string
}

// Args returns a command line to link Objects into Output.
func (p LinkParams) Args() []string {
	args := []string{p.Linker}
	if p.Color {
		args = append(args, "-fdiagnostics-color=always")
	}
	args = append(args, p.Flags...)
	if p.Shared {
		args = append(args, "-shared")
	}
	args = append(args, p.Objects...)
	for _, lib := range p.Libraries {
		for _, dir := range lib.Dirs {
			args = append(args, "-L"+dir, "-Wl,-rpath,"+dir)
		}
		for _, l := range lib.Libs {
			args = append(args, "-l"+l)
		}
	}
	return append(args, "-o", p.Output)
}

// PkgConfigFlags classifies flags printed by `pkg-config --cflags --libs`.
// Flags other than -I, -L and -l are returned in others.
func PkgConfigFlags(args []string) (includes, dirs, libs, others []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-I", "-L", "-l":
			if i+1 >= len(args) {
				others = append(others, arg)
				continue
			}
			i++
			switch arg {
			case "-I":
				includes = append(includes, args[i])
			case "-L":
				dirs = append(dirs, args[i])
			case "-l":
				libs = append(libs, args[i])
			}
			continue
		}
		switch {
		case strings.HasPrefix(arg, "-I"):
			includes = append(includes, strings.TrimPrefix(arg, "-I"))
		case strings.HasPrefix(arg, "-L"):
			dirs = append(dirs, strings.TrimPrefix(arg, "-L"))
		case strings.HasPrefix(arg, "-l"):
			libs = append(libs, strings.TrimPrefix(arg, "-l"))
		default:
			others = append(others, arg)
		}
	}
	return includes, dirs, libs, others
}
