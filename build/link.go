// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kilnbuild/kiln/execute"
	"github.com/kilnbuild/kiln/o11y/clog"
	"github.com/kilnbuild/kiln/scandeps"
	"github.com/kilnbuild/kiln/toolsupport/gccutil"
)

// link links libraries first, then binaries.
// failed are translation units that failed to compile; a unit with a
// failed member is skipped. The root of a failed unit is evicted from
// the new snapshot.
func (b *Builder) link(ctx context.Context, plan *Plan, failed map[string]bool) {
	var libs, bins []*LinkUnit
	for _, u := range plan.Units {
		if u.Role == scandeps.RoleLibrary {
			libs = append(libs, u)
			continue
		}
		bins = append(bins, u)
	}
	for _, units := range [][]*LinkUnit{libs, bins} {
		var mu sync.Mutex
		var evicts []string
		var eg errgroup.Group
		eg.SetLimit(b.jobs)
		for _, u := range units {
			eg.Go(func() error {
				if m, ok := failedMember(u, failed); ok {
					clog.Warningf(ctx, "skip link %s: %s failed to compile", u.Root, m)
					b.stats.update(stepSkipped)
					return nil
				}
				out := b.OutputPath(u)
				if !u.NeedsRelink && fileExists(out) {
					b.stats.update(stepUpToDate)
					return nil
				}
				err := b.linkOne(ctx, plan, u, out)
				if err != nil {
					b.stats.update(stepFailed)
					b.failures.add(actionLink, err)
					mu.Lock()
					evicts = append(evicts, u.Root)
					mu.Unlock()
					return nil
				}
				b.stats.update(stepLinked)
				return nil
			})
		}
		eg.Wait()
		for _, root := range evicts {
			clog.Infof(ctx, "evict %s", root)
			plan.New.Delete(root)
		}
	}
}

func (b *Builder) linkOne(ctx context.Context, plan *Plan, u *LinkUnit, out string) error {
	var objects, remap []string
	linker := b.config.Package.CC
	for _, m := range u.Members {
		d, ok := plan.New.Get(m)
		if !ok || !b.objs.Has(d) {
			return MissingObjectError{Root: u.Root, Member: m}
		}
		obj := b.objs.Path(d)
		objects = append(objects, obj)
		remap = append(remap, obj, b.rel(m))
		if gccutil.IsCXX(m) {
			linker = b.config.Package.CXX
		}
	}
	params := gccutil.LinkParams{
		Linker:    linker,
		Flags:     b.profile.LDFlags,
		Shared:    u.Role == scandeps.RoleLibrary,
		Color:     b.color,
		Objects:   objects,
		Libraries: b.importLibraries(ctx, plan, u),
		Output:    out,
	}
	cmd := execute.NewCmd(actionLink, "LINK "+b.rel(out), params.Args())
	cmd.Dir = b.config.Dir
	cmd.Inputs = objects
	cmd.Outputs = []string{out}
	diag, err := b.run(ctx, cmd, "LINK", b.rel(out), strings.NewReplacer(remap...))
	if err != nil {
		return StepError{
			Action: actionLink,
			Target: u.Root,
			Cause:  err,
			Output: diag,
		}
	}
	return nil
}

// importLibraries resolves imports of the unit: a configured library,
// a library of the project with the name, or a system library.
func (b *Builder) importLibraries(ctx context.Context, plan *Plan, u *LinkUnit) []gccutil.Library {
	var libs []gccutil.Library
	for _, name := range u.Imports {
		if lib, ok := b.config.LinkLibrary(name); ok {
			libs = append(libs, lib)
			continue
		}
		if lu := projectLibrary(plan, name); lu != nil && lu != u {
			libs = append(libs, gccutil.Library{
				Libs: []string{name},
				Dirs: []string{b.config.BinariesDir(b.profileName)},
			})
			continue
		}
		clog.Debugf(ctx, "%s: import %s as system library", u.Root, name)
		libs = append(libs, gccutil.Library{Libs: []string{name}})
	}
	return libs
}

func projectLibrary(plan *Plan, name string) *LinkUnit {
	for _, u := range plan.Units {
		if u.Role == scandeps.RoleLibrary && u.OutputName() == name {
			return u
		}
	}
	return nil
}

func failedMember(u *LinkUnit, failed map[string]bool) (string, bool) {
	for _, m := range u.Members {
		if failed[m] {
			return m, true
		}
	}
	return "", false
}

func fileExists(fname string) bool {
	_, err := os.Stat(fname)
	return err == nil
}
