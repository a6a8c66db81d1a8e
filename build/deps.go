// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/kilnbuild/kiln/build/buildconfig"
	"github.com/kilnbuild/kiln/execute"
	"github.com/kilnbuild/kiln/o11y/clog"
)

// executable returns the path of the kiln binary to build dependencies.
var executable = os.Executable

// buildDependencies builds dependency projects in child processes,
// then sets up their include directories.
func (b *Builder) buildDependencies(ctx context.Context) error {
	names := slices.Sorted(maps.Keys(b.config.Dependencies))
	if len(names) == 0 {
		return nil
	}
	exe, err := executable()
	if err != nil {
		return fmt.Errorf("failed to find executable to build dependencies: %w", err)
	}
	spin := b.ui.NewSpinner()
	spin.Start("building %d dependencies", len(names))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.jobs)
	for _, name := range names {
		dir := b.config.DependencyDir(name)
		eg.Go(func() error {
			args := []string{exe, "build", "-C", dir, "-profile", b.profileName}
			if b.rebuild {
				args = append(args, "-rebuild")
			}
			cmd := execute.NewCmd(actionDependency, "DEP "+name, args)
			cmd.Dir = dir
			err := b.executor.Run(gctx, cmd)
			if err != nil {
				out := cmdOutput(gctx, cmdOutputResultFAILED, cmd, nil, err)
				if msg := out.Msg(); msg != "" {
					b.ui.PrintLines("\n", "\n", msg+"\n")
				}
				return StepError{
					Action: actionDependency,
					Target: dir,
					Cause:  err,
					Output: out.diagnostics(),
				}
			}
			clog.Infof(ctx, "built dependency %s in %s", name, dir)
			return nil
		})
	}
	err = eg.Wait()
	spin.Stop(err)
	if err != nil {
		return err
	}
	return b.setupDependencyDirs(ctx)
}

// setupDependencyDirs loads dependency configs to find their include
// directories and source directories. Headers in the package include
// and source directories of dependencies are scanned so a changed
// dependency header triggers rebuilds.
func (b *Builder) setupDependencyDirs(ctx context.Context) error {
	b.depIncludeDirs = nil
	b.depHeaderRoots = nil
	for _, name := range slices.Sorted(maps.Keys(b.config.Dependencies)) {
		dir := b.config.DependencyDir(name)
		fname, err := buildconfig.Find(dir)
		if err != nil {
			return fmt.Errorf("dependency %s: %w", name, err)
		}
		cfg, err := buildconfig.Load(ctx, fname, b.caps)
		if err != nil {
			return fmt.Errorf("dependency %s: %w", name, err)
		}
		roots := existingDirs(append(cfg.PackageIncludeDirs(), cfg.SourceDirs()...))
		b.depHeaderRoots = append(b.depHeaderRoots, roots...)
		b.depIncludeDirs = append(b.depIncludeDirs, roots...)
		b.depIncludeDirs = append(b.depIncludeDirs, existingDirs(cfg.IncludeDirs())...)
	}
	b.depIncludeDirs = dedupDirs(b.depIncludeDirs)
	b.depHeaderRoots = dedupDirs(b.depHeaderRoots)
	return nil
}

func dedupDirs(dirs []string) []string {
	seen := make(map[string]bool)
	var ret []string
	for _, dir := range dirs {
		if seen[dir] {
			continue
		}
		seen[dir] = true
		ret = append(ret, dir)
	}
	return ret
}
