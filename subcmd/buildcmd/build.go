// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package buildcmd implements the subcommand `build` which builds a project incrementally.
package buildcmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"github.com/kilnbuild/kiln/build"
	"github.com/kilnbuild/kiln/build/buildconfig"
	"github.com/kilnbuild/kiln/prototypes"
	"github.com/kilnbuild/kiln/runtimex"
	"github.com/kilnbuild/kiln/ui"
)

const buildUsage = `build the project.

 $ kiln build [-C <dir>] [-f <file>] [-release|-profile <profile>] [-rebuild] [-j <N>]

compiles changed translation units and relinks binaries and libraries
affected by the change.
`

// Cmd returns the Command for the `build` subcommand provided by this package.
func Cmd(caps buildconfig.Capabilities) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "build [-C <dir>] [options]",
		ShortDesc: "build the project incrementally",
		LongDesc:  buildUsage,
		CommandRun: func() subcommands.CommandRun {
			r := &buildCmdRun{caps: caps}
			r.flags.Register(&r.Flags)
			return r
		},
	}
}

type buildCmdRun struct {
	subcommands.CommandRunBase
	caps  buildconfig.Capabilities
	flags Flags
}

// Run runs the `build` subcommand.
func (c *buildCmdRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	started := time.Now()
	ctx := cli.GetContext(a, c, env)
	if len(args) != 0 {
		fmt.Fprintf(a.GetErr(), "%s: position arguments not expected\n", a.GetName())
		return 2
	}
	ctx, cancel := Interruptible(ctx)
	defer cancel()
	stats, err := c.run(ctx)
	return Report(os.Stderr, time.Since(started), stats, err)
}

func (c *buildCmdRun) run(ctx context.Context) (build.Stats, error) {
	b, err := c.flags.NewBuilder(ctx, c.caps, nil)
	if err != nil {
		return build.Stats{}, err
	}
	unlock, err := Lock(ctx, b.Dir())
	if err != nil {
		return build.Stats{}, err
	}
	defer unlock()
	err = b.Build(ctx)
	return b.Stats(), err
}

// Flags are flags of the commands that build a project.
type Flags struct {
	Dir     string
	File    string
	Profile string
	Release bool
	Rebuild bool
	Jobs    int
}

// Register registers the flags in fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Dir, "C", ".", "project directory")
	fs.StringVar(&f.File, "f", "", "config filename (relative to -C). kiln.toml, kiln.yaml or kiln.yml if empty")
	fs.StringVar(&f.Profile, "profile", "", "build profile. debug if empty")
	fs.BoolVar(&f.Release, "release", false, "use the release profile")
	fs.BoolVar(&f.Rebuild, "rebuild", false, "ignore the previous build state and rebuild everything")
	fs.IntVar(&f.Jobs, "j", runtimex.DefaultJobs(), "run N compile or link steps in parallel")
}

// ProfileName returns the profile selected by the flags.
func (f *Flags) ProfileName() (string, error) {
	switch {
	case f.Release && f.Profile != "" && f.Profile != buildconfig.Release:
		return "", FlagError{err: fmt.Errorf("-release conflicts with -profile=%s", f.Profile)}
	case f.Release:
		return buildconfig.Release, nil
	case f.Profile != "":
		return f.Profile, nil
	}
	return buildconfig.Debug, nil
}

// ConfigPath returns the config file selected by the flags.
func (f *Flags) ConfigPath() (string, error) {
	if f.File == "" {
		return buildconfig.Find(f.Dir)
	}
	if filepath.IsAbs(f.File) {
		return f.File, nil
	}
	return filepath.Join(f.Dir, f.File), nil
}

// LoadConfig loads the config file selected by the flags.
func (f *Flags) LoadConfig(ctx context.Context, caps buildconfig.Capabilities) (*buildconfig.Config, error) {
	fname, err := f.ConfigPath()
	if err != nil {
		return nil, err
	}
	return buildconfig.Load(ctx, fname, caps)
}

// NewBuilder loads the config and creates a builder for it.
// protos may be nil.
func (f *Flags) NewBuilder(ctx context.Context, caps buildconfig.Capabilities, protos *prototypes.Cache) (*build.Builder, error) {
	profile, err := f.ProfileName()
	if err != nil {
		return nil, err
	}
	config, err := f.LoadConfig(ctx, caps)
	if err != nil {
		return nil, err
	}
	log.Infof("config %s profile=%s", config.Path, profile)
	b, err := build.New(build.Options{
		Config:       config,
		Capabilities: caps,
		Profile:      profile,
		Jobs:         f.Jobs,
		Rebuild:      f.Rebuild,
		Prototypes:   protos,
	})
	if err != nil {
		return nil, FlagError{err: err}
	}
	return b, nil
}

// FlagError is an error in command line flags.
type FlagError struct {
	err error
}

func (f FlagError) Error() string {
	return f.err.Error()
}

func (f FlagError) Unwrap() error {
	return f.err
}

type errInterrupted struct{}

func (errInterrupted) Error() string        { return "interrupt by signal" }
func (errInterrupted) Is(target error) bool { return target == context.Canceled }

// Interruptible returns a context canceled by interrupt signals.
func Interruptible(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	stop := signals.HandleInterrupt(func() {
		cancel(errInterrupted{})
	})
	return ctx, func() {
		stop()
		cancel(nil)
	}
}

// Report prints the summary of a build to w and returns the exit code.
func Report(w io.Writer, d time.Duration, stats build.Stats, err error) int {
	sps := float64(stats.Done-stats.Skipped) / d.Seconds()
	dur := ui.FormatDuration(d)
	if ui.IsTerminal() {
		dur = ui.SGR(ui.Bold, dur)
	}
	failure := func(prefix string) string {
		if ui.IsTerminal() {
			return ui.SGR(ui.BackgroundRed, prefix)
		}
		return prefix
	}
	if err != nil {
		var errFlag FlagError
		var errConflict build.MainConflictError
		var errBuild build.Error
		var errStep build.StepError
		switch {
		case errors.As(err, &errFlag):
			fmt.Fprintf(w, "%v\n", err)
			return 2
		case errors.Is(err, context.Canceled):
			fmt.Fprintf(w, "\n%6s %s: %v\n", dur, failure("Interrupted"), err)
		case errors.As(err, &errConflict):
			fmt.Fprintf(w, "\n%6s %s: %v\n", dur, failure("Schedule Failure"), errConflict)
		case errors.As(err, &errBuild):
			fmt.Fprintf(w, "\n%6s %s: %d done %d remaining - %.02f/s\n %d compile and %d link failures\n %v\n", dur, failure("Build Failure"), stats.Done-stats.Skipped, stats.Total-stats.Done, sps, errBuild.CompileFailures, errBuild.LinkFailures, errBuild.First)
		case errors.As(err, &errStep):
			fmt.Fprintf(w, "\n%6s %s: %v\n", dur, failure("Dependency Failure"), errStep)
		default:
			fmt.Fprintf(w, "\n%6s %s: %v\n", dur, failure("Error"), err)
		}
		return 1
	}
	if stats.Compiled == 0 && stats.Linked == 0 {
		msgPrefix := "Everything is up-to-date"
		if ui.IsTerminal() {
			msgPrefix = ui.SGR(ui.Green, msgPrefix)
		}
		fmt.Fprintf(w, "%s Nothing to do.\n", msgPrefix)
		return 0
	}
	msgPrefix := "Build Succeeded"
	if ui.IsTerminal() {
		msgPrefix = ui.SGR(ui.Green, msgPrefix)
	}
	fmt.Fprintf(w, "%6s %s: %d steps - %.02f/s\n", dur, msgPrefix, stats.Done-stats.Skipped, sps)
	if stats.Dedup > 0 || stats.Pruned > 0 {
		fmt.Fprintf(w, " %d compiled, %d linked, %d up-to-date, %d deduplicated, %d pruned\n", stats.Compiled, stats.Linked, stats.UpToDate, stats.Dedup, stats.Pruned)
	}
	return 0
}
