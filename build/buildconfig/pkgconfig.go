// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"context"
	"fmt"
	"maps"
	"os/exec"
	"slices"
	"strings"

	"github.com/kilnbuild/kiln/toolsupport/gccutil"
	"github.com/kilnbuild/kiln/toolsupport/shutil"
)

// pkgConfig runs pkg-config with args and returns its stdout.
// It is replaced in tests.
var pkgConfig = func(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "pkg-config", args...).Output()
	if err != nil {
		return "", fmt.Errorf("pkg-config %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

// versionArgs converts a version constraint to pkg-config flags.
func versionArgs(constraint string) ([]string, error) {
	constraint = strings.TrimSpace(constraint)
	switch {
	case constraint == "" || constraint == "*":
		return nil, nil
	case strings.HasPrefix(constraint, ">="):
		return []string{"--atleast-version=" + strings.TrimSpace(constraint[2:])}, nil
	case strings.HasPrefix(constraint, "="):
		return []string{"--exact-version=" + strings.TrimSpace(constraint[1:])}, nil
	case strings.Contains(constraint, ".."):
		lo, hi, _ := strings.Cut(constraint, "..")
		lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)
		if lo == "" || hi == "" {
			break
		}
		return []string{"--atleast-version=" + lo, "--max-version=" + hi}, nil
	}
	return nil, fmt.Errorf("unsupported version constraint %q", constraint)
}

// resolvePkgConfig prepends flags found by pkg-config to the library.
// On error, the library keeps its declared settings.
func (lib *Library) resolvePkgConfig(ctx context.Context) error {
	if len(lib.PkgConfig) == 0 {
		return nil
	}
	var libs, dirs, includes []string
	for _, pkg := range slices.Sorted(maps.Keys(lib.PkgConfig)) {
		vargs, err := versionArgs(lib.PkgConfig[pkg])
		if err != nil {
			return fmt.Errorf("%s: %w", pkg, err)
		}
		if len(vargs) > 0 {
			_, err = pkgConfig(ctx, append(vargs, pkg)...)
			if err != nil {
				return fmt.Errorf("%s: version %q not satisfied: %w", pkg, lib.PkgConfig[pkg], err)
			}
		}
		out, err := pkgConfig(ctx, "--cflags", "--libs", pkg)
		if err != nil {
			return err
		}
		args, err := shutil.Split(out)
		if err != nil {
			return fmt.Errorf("%s: %w", pkg, err)
		}
		inc, dir, l, _ := gccutil.PkgConfigFlags(args)
		includes = append(includes, inc...)
		dirs = append(dirs, dir...)
		libs = append(libs, l...)
	}
	lib.Libs = append(libs, lib.Libs...)
	lib.Dirs = append(dirs, lib.Dirs...)
	lib.Includes = append(includes, lib.Includes...)
	return nil
}
