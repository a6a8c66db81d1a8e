// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package clean implements the subcommand `clean` which removes build outputs and state.
package clean

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"github.com/kilnbuild/kiln/build/buildconfig"
	"github.com/kilnbuild/kiln/hashfs"
	"github.com/kilnbuild/kiln/subcmd/buildcmd"
)

const cleanUsage = `remove build outputs and build state.

 $ kiln clean [-C <dir>] [-f <file>] [-profile <profile>]

removes the objects and binaries directories and the build state.
With -profile, only the profile's outputs and state are removed.
`

// Cmd returns the Command for the `clean` subcommand provided by this package.
func Cmd(caps buildconfig.Capabilities) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "clean [-C <dir>] [-profile <profile>]",
		ShortDesc: "remove build outputs and state",
		LongDesc:  cleanUsage,
		CommandRun: func() subcommands.CommandRun {
			r := &cleanCmdRun{caps: caps}
			r.init()
			return r
		},
	}
}

type cleanCmdRun struct {
	subcommands.CommandRunBase
	caps  buildconfig.Capabilities
	flags buildcmd.Flags
}

func (c *cleanCmdRun) init() {
	c.Flags.StringVar(&c.flags.Dir, "C", ".", "project directory")
	c.Flags.StringVar(&c.flags.File, "f", "", "config filename (relative to -C). kiln.toml, kiln.yaml or kiln.yml if empty")
	c.Flags.StringVar(&c.flags.Profile, "profile", "", "clean only this profile. all profiles if empty")
}

// Run runs the `clean` subcommand.
func (c *cleanCmdRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	if len(args) != 0 {
		fmt.Fprintf(a.GetErr(), "%s: position arguments not expected\n", a.GetName())
		return 2
	}
	removed, err := c.run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	for _, dir := range removed {
		fmt.Printf("removed %s\n", dir)
	}
	return 0
}

func (c *cleanCmdRun) run(ctx context.Context) ([]string, error) {
	config, err := c.flags.LoadConfig(ctx, c.caps)
	if err != nil {
		return nil, err
	}
	unlock, err := buildcmd.Lock(ctx, config.Dir)
	if err != nil {
		return nil, err
	}
	removed, err := Clean(config, c.flags.Profile)
	unlock()
	if err != nil {
		return removed, err
	}
	if c.flags.Profile == "" {
		err = os.RemoveAll(filepath.Join(config.Dir, hashfs.StateDir))
		if err != nil {
			return removed, err
		}
		removed = append(removed, hashfs.StateDir)
	}
	return removed, nil
}

// Clean removes the outputs and build state of the profile, or of all
// profiles if profile is empty. It returns the removed paths relative
// to the project directory. Directories outside of the project, or the
// project directory itself, are never removed.
func Clean(config *buildconfig.Config, profile string) ([]string, error) {
	var removed []string
	for _, dir := range []string{config.ObjectsDir(profile), config.BinariesDir(profile)} {
		rel, ok := inside(config.Dir, dir)
		if !ok {
			log.Warnf("not removing %s: not under %s", dir, config.Dir)
			continue
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		err := os.RemoveAll(dir)
		if err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", dir, err)
		}
		removed = append(removed, rel)
	}
	if profile != "" {
		fname := hashfs.StateFile(config.Dir, profile)
		if _, err := os.Stat(fname); err == nil {
			err = hashfs.Remove(config.Dir, profile)
			if err != nil {
				return removed, err
			}
			rel, _ := inside(config.Dir, fname)
			removed = append(removed, rel)
		}
	}
	return removed, nil
}

func inside(root, dir string) (string, bool) {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
