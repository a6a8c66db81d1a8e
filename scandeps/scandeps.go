// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilnbuild/kiln/digest"
	"github.com/kilnbuild/kiln/o11y/clog"
	"github.com/kilnbuild/kiln/o11y/iometrics"
	"github.com/kilnbuild/kiln/prototypes"
	"github.com/kilnbuild/kiln/runtimex"
)

// Kind is a kind of source file.
type Kind int

const (
	// Header is an include-only file.
	Header Kind = iota
	// TranslationUnit is a compilable source file.
	TranslationUnit
)

func (k Kind) String() string {
	switch k {
	case Header:
		return "header"
	case TranslationUnit:
		return "unit"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Role is a link role of a translation unit.
type Role int

const (
	// RoleNone is a translation unit that is not a link root.
	RoleNone Role = iota
	// RoleBinary is the root of an executable.
	RoleBinary
	// RoleLibrary is the root of a shared library.
	RoleLibrary
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleBinary:
		return "binary"
	case RoleLibrary:
		return "library"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

var extKinds = map[string]Kind{
	".h":   Header,
	".hh":  Header,
	".hpp": Header,
	".hxx": Header,
	".h++": Header,
	".c":   TranslationUnit,
	".cc":  TranslationUnit,
	".cpp": TranslationUnit,
	".cxx": TranslationUnit,
	".c++": TranslationUnit,
}

// KindOf returns the kind of fname by its extension.
func KindOf(fname string) (Kind, bool) {
	k, ok := extKinds[filepath.Ext(fname)]
	return k, ok
}

// SourceFile is a scanned source file. It is not modified after scan.
type SourceFile struct {
	// Path is the absolute path of the file.
	Path   string
	Kind   Kind
	Digest digest.Digest

	// Includes are resolved absolute paths of scanned files that the
	// file includes directly, sorted.
	Includes []string

	// DeclaresMain is true if the translation unit defines main.
	DeclaresMain bool
	// Role is a link role of the translation unit.
	Role Role
	// Name is the output name for link roots.
	Name string
	// Imports are library names to link into the unit's target.
	Imports []string

	Prototypes *prototypes.Set
}

// ScanError is an error to read a source file during scan.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Request is a request to scan source trees.
type Request struct {
	// Roots are directories to scan recursively.
	Roots []string

	// HeaderRoots are directories to scan recursively for headers only,
	// e.g. include directories of dependencies.
	HeaderRoots []string

	// IncludeDirs are include search directories, in order.
	IncludeDirs []string

	// Prototypes caches signature sets by digest. It may be nil.
	Prototypes *prototypes.Cache

	// IOMetrics counts file reads and stats. It may be nil.
	IOMetrics *iometrics.IOMetrics
}

// Scan scans source files in the request's roots and builds the graph.
func Scan(ctx context.Context, req Request) (*Graph, error) {
	started := time.Now()
	fnames, err := walk(ctx, req.Roots, false)
	if err != nil {
		return nil, err
	}
	hnames, err := walk(ctx, req.HeaderRoots, true)
	if err != nil {
		return nil, err
	}
	fnames = append(fnames, hnames...)
	slices.Sort(fnames)
	fnames = slices.Compact(fnames)
	res := newResolver(req.IncludeDirs, req.IOMetrics)
	results := make([]*SourceFile, len(fnames))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtimex.NumCPU())
	for i, fname := range fnames {
		eg.Go(func() error {
			sf, err := scanFile(gctx, req, res, fname)
			if err != nil {
				return err
			}
			results[i] = sf
			return nil
		})
	}
	err = eg.Wait()
	if err != nil {
		return nil, err
	}
	g := newGraph(results)
	clog.Infof(ctx, "scanned %d files (%d units) in %s %s", len(g.Files), len(g.Units()), time.Since(started), req.IOMetrics)
	return g, nil
}

func walk(ctx context.Context, roots []string, headersOnly bool) ([]string, error) {
	seen := make(map[string]bool)
	var fnames []string
	for _, root := range roots {
		root, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		err = filepath.WalkDir(root, func(fname string, d fs.DirEntry, err error) error {
			if err != nil {
				return &ScanError{Path: fname, Err: err}
			}
			if d.IsDir() {
				if fname != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			kind, ok := KindOf(fname)
			if !ok || (headersOnly && kind != Header) {
				return nil
			}
			if seen[fname] {
				return nil
			}
			seen[fname] = true
			fnames = append(fnames, fname)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}
	}
	slices.Sort(fnames)
	return fnames, nil
}

func scanFile(ctx context.Context, req Request, res *resolver, fname string) (*SourceFile, error) {
	kind, _ := KindOf(fname)
	buf, err := os.ReadFile(fname)
	req.IOMetrics.ReadDone(len(buf), err)
	if err != nil {
		return nil, &ScanError{Path: fname, Err: err}
	}
	sf := &SourceFile{
		Path:   fname,
		Kind:   kind,
		Digest: digest.FromBytes(buf),
	}
	dir := filepath.Dir(fname)
	for _, inc := range CPPScan(ctx, fname, buf) {
		p := res.resolve(dir, includeName(inc))
		if p == "" {
			clog.Debugf(ctx, "%s: unresolved include %s", fname, inc)
			continue
		}
		sf.Includes = append(sf.Includes, p)
	}
	sf.Prototypes = req.Prototypes.Extract(sf.Digest, buf)
	if kind != TranslationUnit {
		return sf, nil
	}
	a := scanAnnotations(ctx, fname, buf)
	sf.Role = a.role
	sf.Name = a.name
	sf.Imports = a.imports
	sf.DeclaresMain, err = declaresMain(ctx, fname, buf)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		clog.Warningf(ctx, "%s: main detection failed, fallback to prototypes: %v", fname, err)
		sf.DeclaresMain = sf.Prototypes.HasName("main")
	}
	if sf.Role == RoleNone && sf.DeclaresMain {
		sf.Role = RoleBinary
	}
	if sf.Role != RoleNone && sf.Name == "" {
		base := filepath.Base(fname)
		sf.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return sf, nil
}
