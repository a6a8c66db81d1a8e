// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package watch implements the subcommand `watch` which rebuilds a project on source changes.
package watch

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

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"github.com/kilnbuild/kiln/build"
	"github.com/kilnbuild/kiln/build/buildconfig"
	"github.com/kilnbuild/kiln/prototypes"
	"github.com/kilnbuild/kiln/scandeps"
	"github.com/kilnbuild/kiln/subcmd/buildcmd"
)

const watchUsage = `build the project and rebuild it on source changes.

 $ kiln watch [-C <dir>] [build options] [-debounce <duration>]

watches source, header and config files of the project and its
dependencies, and rebuilds after changes settle. Stop with Ctrl-C.
`

// Cmd returns the Command for the `watch` subcommand provided by this package.
func Cmd(caps buildconfig.Capabilities) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "watch [-C <dir>] [options]",
		ShortDesc: "rebuild the project on source changes",
		LongDesc:  watchUsage,
		CommandRun: func() subcommands.CommandRun {
			r := &watchCmdRun{caps: caps}
			r.init()
			return r
		},
	}
}

type watchCmdRun struct {
	subcommands.CommandRunBase
	caps     buildconfig.Capabilities
	flags    buildcmd.Flags
	debounce time.Duration
}

func (c *watchCmdRun) init() {
	c.flags.Register(&c.Flags)
	c.Flags.DurationVar(&c.debounce, "debounce", 200*time.Millisecond, "wait for changes to settle for this duration before rebuilding")
}

// Run runs the `watch` subcommand.
func (c *watchCmdRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	if len(args) != 0 {
		fmt.Fprintf(a.GetErr(), "%s: position arguments not expected\n", a.GetName())
		return 2
	}
	ctx, cancel := buildcmd.Interruptible(ctx)
	defer cancel()
	err := c.run(ctx)
	var errFlag buildcmd.FlagError
	switch {
	case errors.Is(err, context.Canceled):
		return 0
	case errors.As(err, &errFlag):
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (c *watchCmdRun) run(ctx context.Context) error {
	protos, err := prototypes.NewCache(prototypes.DefaultCacheSize)
	if err != nil {
		return err
	}
	for {
		changed, err := c.buildOnce(ctx, protos)
		if err != nil {
			return err
		}
		// -rebuild applies to the first build only.
		c.flags.Rebuild = false
		for _, fname := range changed {
			log.Infof("changed %s", fname)
		}
		fmt.Fprintf(os.Stderr, "%d files changed. rebuilding...\n", len(changed))
	}
}

// buildOnce runs a build while watching the project, and returns the
// files changed during or after the build.
func (c *watchCmdRun) buildOnce(ctx context.Context, protos *prototypes.Cache) ([]string, error) {
	started := time.Now()
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	defer w.Close()

	b, err := c.flags.NewBuilder(ctx, c.caps, protos)
	var errFlag buildcmd.FlagError
	if errors.As(err, &errFlag) {
		return nil, err
	}
	if err != nil {
		// wait for a fix of the config.
		buildcmd.Report(os.Stderr, time.Since(started), build.Stats{}, err)
		n, err := addTree(w, c.flags.Dir, nil)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "watching %d directories for changes...\n", n)
		return waitChange(ctx, w, c.debounce, nil)
	}
	skip := skipFunc(b.Config())
	var n int
	for _, root := range watchRoots(b.Config()) {
		m, err := addTree(w, root, skip)
		if err != nil {
			return nil, err
		}
		n += m
	}
	unlock, err := buildcmd.Lock(ctx, b.Dir())
	if err != nil {
		return nil, err
	}
	err = b.Build(ctx)
	unlock()
	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}
	buildcmd.Report(os.Stderr, time.Since(started), b.Stats(), err)
	fmt.Fprintf(os.Stderr, "watching %d directories for changes...\n", n)
	return waitChange(ctx, w, c.debounce, skip)
}

// watchRoots returns the project directory and directories of
// dependencies and libraries outside of it.
func watchRoots(config *buildconfig.Config) []string {
	roots := []string{config.Dir}
	var dirs []string
	for name := range config.Dependencies {
		dirs = append(dirs, config.DependencyDir(name))
	}
	dirs = append(dirs, config.IncludeDirs()...)
	slices.Sort(dirs)
	for _, dir := range slices.Compact(dirs) {
		if under(dir, roots) {
			continue
		}
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			continue
		}
		roots = append(roots, dir)
	}
	return roots
}

func under(dir string, roots []string) bool {
	for _, root := range roots {
		rel, err := filepath.Rel(root, dir)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// skipFunc returns a func to skip the output directories of the project.
func skipFunc(config *buildconfig.Config) func(string) bool {
	outputs := []string{config.ObjectsDir(""), config.BinariesDir("")}
	return func(dir string) bool {
		for _, out := range outputs {
			if dir == out && out != config.Dir {
				return true
			}
		}
		return false
	}
}

// addTree adds root and its subdirectories to the watcher, except
// dot directories and directories for which skip returns true.
// It returns the number of added directories.
func addTree(w *fsnotify.Watcher, root string, skip func(string) bool) (int, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return 0, err
	}
	var n int
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path != root && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if skip != nil && skip(path) {
			return filepath.SkipDir
		}
		err = w.Add(path)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		n++
		return nil
	})
	return n, err
}

// relevant reports whether ev changes a source, header or config file.
func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return base == ".env"
	}
	if slices.Contains(buildconfig.Filenames, base) {
		return true
	}
	_, ok := scandeps.KindOf(ev.Name)
	return ok
}

// waitChange waits for changes of relevant files, and returns them
// once no more changes arrive within quiet.
// Directories created meanwhile are added to the watcher.
func waitChange(ctx context.Context, w *fsnotify.Watcher, quiet time.Duration, skip func(string) bool) ([]string, error) {
	var changed []string
	var timer *time.Timer
	var timeout <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return changed, context.Cause(ctx)

		case <-timeout:
			slices.Sort(changed)
			return slices.Compact(changed), nil

		case ev, ok := <-w.Events:
			if !ok {
				return changed, errors.New("watcher closed")
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_, err := addTree(w, ev.Name, skip)
					if err != nil {
						log.Warnf("failed to watch new dir %s: %v", ev.Name, err)
					}
					continue
				}
			}
			if !relevant(ev) {
				continue
			}
			changed = append(changed, ev.Name)
			if timer == nil {
				timer = time.NewTimer(quiet)
				timeout = timer.C
			} else {
				timer.Reset(quiet)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return changed, errors.New("watcher closed")
			}
			log.Warnf("watch error: %v", err)
		}
	}
}
