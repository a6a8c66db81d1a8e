// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package run implements the subcommand `run` which builds a project and runs one of its binaries.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"github.com/kilnbuild/kiln/build"
	"github.com/kilnbuild/kiln/build/buildconfig"
	"github.com/kilnbuild/kiln/o11y/clog"
	"github.com/kilnbuild/kiln/scandeps"
	"github.com/kilnbuild/kiln/subcmd/buildcmd"
)

const runUsage = `build the project and run a binary.

 $ kiln run [-C <dir>] [build options] <target> [args...]

<target> is a binary name or the path of its root source file.
The binary runs in the current directory with the remaining args.
`

// Cmd returns the Command for the `run` subcommand provided by this package.
func Cmd(caps buildconfig.Capabilities) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "run [-C <dir>] [options] <target> [args...]",
		ShortDesc: "build the project and run a binary",
		LongDesc:  runUsage,
		CommandRun: func() subcommands.CommandRun {
			r := &runCmdRun{caps: caps}
			r.flags.Register(&r.Flags)
			return r
		},
	}
}

type runCmdRun struct {
	subcommands.CommandRunBase
	caps  buildconfig.Capabilities
	flags buildcmd.Flags
}

// Run runs the `run` subcommand.
func (c *runCmdRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	started := time.Now()
	ctx := cli.GetContext(a, c, env)
	if len(args) == 0 {
		fmt.Fprintf(a.GetErr(), "%s: target is required\n%s", a.GetName(), runUsage)
		return 2
	}
	ctx, cancel := buildcmd.Interruptible(ctx)
	defer cancel()

	fname, stats, err := c.build(ctx, args[0])
	if err != nil {
		return buildcmd.Report(os.Stderr, time.Since(started), stats, err)
	}
	clog.Infof(ctx, "run %s %q", fname, args[1:])
	cmd := exec.CommandContext(ctx, fname, args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err = cmd.Run()
	var eerr *exec.ExitError
	switch {
	case errors.As(err, &eerr):
		return eerr.ExitCode()
	case err != nil:
		fmt.Fprintf(os.Stderr, "failed to run %s: %v\n", fname, err)
		return 1
	}
	return 0
}

// build builds the project and returns the output path of target.
func (c *runCmdRun) build(ctx context.Context, target string) (string, build.Stats, error) {
	b, err := c.flags.NewBuilder(ctx, c.caps, nil)
	if err != nil {
		return "", build.Stats{}, err
	}
	unlock, err := buildcmd.Lock(ctx, b.Dir())
	if err != nil {
		return "", build.Stats{}, err
	}
	defer unlock()
	err = b.Build(ctx)
	if err != nil {
		return "", b.Stats(), err
	}
	u, err := findBinary(b.Units(), target)
	if err != nil {
		return "", b.Stats(), err
	}
	return b.OutputPath(u), b.Stats(), nil
}

// findBinary finds a binary unit by its output name or the path of its
// root source file.
func findBinary(units []*build.LinkUnit, target string) (*build.LinkUnit, error) {
	var root string
	if strings.ContainsAny(target, `/\`) || filepath.Ext(target) != "" {
		abs, err := filepath.Abs(target)
		if err != nil {
			return nil, err
		}
		root = abs
	}
	var names []string
	for _, u := range units {
		if u.Role != scandeps.RoleBinary {
			continue
		}
		if u.Root == root || u.OutputName() == target {
			return u, nil
		}
		names = append(names, u.OutputName())
	}
	return nil, fmt.Errorf("no binary %q in %q", target, names)
}
