// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package query provides subcommands to query the build graph of a project.
package query

import (
	"context"
	"flag"
	"path/filepath"
	"strings"

	"github.com/kilnbuild/kiln/build"
	"github.com/kilnbuild/kiln/build/buildconfig"
	"github.com/kilnbuild/kiln/subcmd/buildcmd"
)

// projectFlags are flags to select a project and its profile.
type projectFlags struct {
	buildcmd.Flags
}

func (f *projectFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.Dir, "C", ".", "project directory")
	fs.StringVar(&f.File, "f", "", "config filename (relative to -C). kiln.toml, kiln.yaml or kiln.yml if empty")
	fs.StringVar(&f.Profile, "profile", "", "build profile. debug if empty")
	fs.BoolVar(&f.Release, "release", false, "use the release profile")
}

// plan computes the build plan of the project without running any step.
func (f *projectFlags) plan(ctx context.Context, caps buildconfig.Capabilities) (*build.Builder, *build.Plan, error) {
	b, err := f.NewBuilder(ctx, caps, nil)
	if err != nil {
		return nil, nil, err
	}
	p, err := b.Plan(ctx)
	if err != nil {
		return nil, nil, err
	}
	return b, p, nil
}

// relPath returns fname relative to dir if it is under dir.
func relPath(dir, fname string) string {
	rel, err := filepath.Rel(dir, fname)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(fname)
	}
	return filepath.ToSlash(rel)
}

func relPaths(dir string, fnames []string) []string {
	ret := make([]string, 0, len(fnames))
	for _, fname := range fnames {
		ret = append(ret, relPath(dir, fname))
	}
	return ret
}
