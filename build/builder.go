// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package build runs an incremental build of a C/C++ project.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kilnbuild/kiln/build/buildconfig"
	"github.com/kilnbuild/kiln/digest"
	"github.com/kilnbuild/kiln/execute"
	"github.com/kilnbuild/kiln/execute/localexec"
	"github.com/kilnbuild/kiln/hashfs"
	"github.com/kilnbuild/kiln/o11y/clog"
	"github.com/kilnbuild/kiln/o11y/iometrics"
	"github.com/kilnbuild/kiln/prototypes"
	"github.com/kilnbuild/kiln/runtimex"
	"github.com/kilnbuild/kiln/scandeps"
	"github.com/kilnbuild/kiln/ui"
)

const (
	actionCompile    = "compile"
	actionLink       = "link"
	actionDependency = "dependency"
)

// Options is options for a build.
type Options struct {
	Config       *buildconfig.Config
	Capabilities buildconfig.Capabilities

	// Profile is a profile name, e.g. "debug" or "release".
	Profile string

	// Jobs is the number of concurrent compile or link steps.
	// runtimex.DefaultJobs is used if zero.
	Jobs int

	// Rebuild ignores the previous build state and objects.
	Rebuild bool

	// Executor runs compile, link and dependency commands.
	// localexec.LocalExec is used if nil.
	Executor execute.Executor

	// Prototypes caches signature sets across builds. It may be nil.
	Prototypes *prototypes.Cache

	// UI reports progress. ui.Default is used if nil.
	UI ui.UI
}

// Builder is a builder of a project profile.
type Builder struct {
	id          string
	config      *buildconfig.Config
	caps        buildconfig.Capabilities
	profileName string
	profile     buildconfig.Profile
	jobs        int
	rebuild     bool
	executor    execute.Executor
	protos      *prototypes.Cache
	ui          ui.UI
	color       bool

	objs *ObjectCache

	// include dirs of dependencies.
	depIncludeDirs []string
	depHeaderRoots []string

	stats    *stats
	progress *progress
	failures failures

	// link units of the last build.
	units []*LinkUnit
}

// New creates a new builder.
func New(opts Options) (*Builder, error) {
	if opts.Config == nil {
		return nil, errors.New("no config")
	}
	if opts.Profile == "" {
		opts.Profile = buildconfig.Debug
	}
	profile, err := opts.Config.Profile(opts.Profile)
	if err != nil {
		return nil, err
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtimex.DefaultJobs()
	}
	if opts.Executor == nil {
		opts.Executor = localexec.LocalExec{}
	}
	if opts.UI == nil {
		opts.UI = ui.Default
	}
	return &Builder{
		id:          uuid.NewString(),
		config:      opts.Config,
		caps:        opts.Capabilities,
		profileName: opts.Profile,
		profile:     profile,
		jobs:        opts.Jobs,
		rebuild:     opts.Rebuild,
		executor:    opts.Executor,
		protos:      opts.Prototypes,
		ui:          opts.UI,
		color:       ui.IsTerminal(),
		objs:        NewObjectCache(opts.Config.ObjectsDir(opts.Profile)),
	}, nil
}

// ID returns the build id.
func (b *Builder) ID() string {
	return b.id
}

// Stats returns stats of the last build.
func (b *Builder) Stats() Stats {
	return b.stats.stats()
}

// Dir returns the project directory.
func (b *Builder) Dir() string {
	return b.config.Dir
}

// Config returns the project config.
func (b *Builder) Config() *buildconfig.Config {
	return b.config
}

// Profile returns the profile name of the builder.
func (b *Builder) Profile() string {
	return b.profileName
}

// Units returns link units of the last build.
func (b *Builder) Units() []*LinkUnit {
	return b.units
}

// Objects returns the object cache of the builder.
func (b *Builder) Objects() *ObjectCache {
	return b.objs
}

// OutputPath returns the path of the link unit's output.
func (b *Builder) OutputPath(u *LinkUnit) string {
	name := u.OutputName()
	dir := b.config.BinariesDir(b.profileName)
	if u.Role == scandeps.RoleLibrary {
		switch runtime.GOOS {
		case "windows":
			return filepath.Join(dir, "lib"+name+".dll")
		case "darwin", "ios":
			return filepath.Join(dir, "lib"+name+".dylib")
		}
		return filepath.Join(dir, "lib"+name+".so")
	}
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(dir, name)
}

// Plan is a build plan computed from the sources and the previous
// build state.
type Plan struct {
	Graph *scandeps.Graph
	Edges prototypes.Edges

	// Old is the snapshot of the previous build.
	// It is empty if the config changed or rebuild is requested.
	Old *hashfs.Snapshot
	// New is the snapshot of this build, including the config file.
	New *hashfs.Snapshot

	// ConfigChanged is set if the config differs from the previous build.
	ConfigChanged bool

	CompileSet CompileSet
	// Orphans are digests of objects no longer referenced.
	Orphans []digest.Digest

	Units []*LinkUnit
}

// Plan computes a build plan without running any step.
func (b *Builder) Plan(ctx context.Context) (*Plan, error) {
	err := b.setupDependencyDirs(ctx)
	if err != nil {
		return nil, err
	}
	return b.plan(ctx)
}

func (b *Builder) plan(ctx context.Context) (*Plan, error) {
	old := hashfs.NewSnapshot()
	if !b.rebuild {
		var err error
		old, err = hashfs.Load(ctx, b.config.Dir, b.profileName)
		if err != nil {
			return nil, err
		}
	}
	roots := b.config.SourceDirs()
	roots = append(roots, existingDirs(b.config.PackageIncludeDirs())...)
	g, err := scandeps.Scan(ctx, scandeps.Request{
		Roots:       roots,
		HeaderRoots: b.depHeaderRoots,
		IncludeDirs: b.includeDirs(),
		Prototypes:  b.protos,
		IOMetrics:   iometrics.New("scan"),
	})
	if err != nil {
		return nil, err
	}
	p := &Plan{
		Graph: g,
		Old:   old,
		New:   g.Snapshot(),
	}
	p.New.Set(b.config.Path, b.config.Digest)
	if old.Len() > 0 {
		od, ok := old.Get(b.config.Path)
		if !ok || od != b.config.Digest {
			clog.Infof(ctx, "config changed %s", b.config.Path)
			p.ConfigChanged = true
			p.Old = hashfs.NewSnapshot()
		}
	}
	p.CompileSet, p.Orphans = SelectCompileSet(g, p.New, p.Old, b.objs)
	p.Edges = prototypes.Filter(g.HeaderUnits, g.Prototypes)
	p.Units, err = SelectLinkUnits(g, p.Edges, p.CompileSet)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (b *Builder) includeDirs() []string {
	dirs := b.config.IncludeDirs()
	return append(dirs, b.depIncludeDirs...)
}

// Build runs the build.
// It returns Error if any compile or link step failed, after all
// independent steps finished.
func (b *Builder) Build(ctx context.Context) error {
	started := time.Now()
	ctx = clog.NewSpan(ctx, "build_id", b.id)
	clog.Infof(ctx, "build %s profile=%s jobs=%d rebuild=%t", b.config.Dir, b.profileName, b.jobs, b.rebuild)
	b.stats = newStats(0)
	b.failures = failures{}

	err := b.buildDependencies(ctx)
	if err != nil {
		return err
	}

	spin := b.ui.NewSpinner()
	spin.Start("scanning %s", b.config.Package.Name)
	plan, err := b.plan(ctx)
	if err != nil {
		spin.Stop(err)
		return err
	}
	spin.Done("%d files, %d to compile, %d link units", len(plan.Graph.Files), len(plan.CompileSet), len(plan.Units))
	b.units = plan.Units

	if b.rebuild || plan.ConfigChanged {
		clog.Infof(ctx, "wipe objects %s", b.objs.Dir())
		err = b.objs.Wipe()
		if err != nil {
			return fmt.Errorf("failed to wipe objects: %w", err)
		}
	}
	for _, dir := range []string{b.objs.Dir(), b.config.BinariesDir(b.profileName)} {
		err = os.MkdirAll(dir, 0755)
		if err != nil {
			return err
		}
	}

	ds, _ := plan.CompileSet.Digests()
	b.stats = newStats(len(ds) + len(plan.Units))
	b.stats.setDedup(len(plan.CompileSet) - len(ds))
	b.stats.setPruned(b.objs.Prune(ctx, plan.Orphans))
	b.progress = newProgress(b.ui, len(ds)+len(plan.Units))

	failed := b.compile(ctx, plan)
	b.link(ctx, plan, failed)

	err = hashfs.Save(ctx, b.config.Dir, b.profileName, plan.New)
	if err != nil {
		return fmt.Errorf("failed to save build state: %w", err)
	}
	st := b.stats.stats()
	clog.Infof(ctx, "build finished in %s: %#v", time.Since(started), st)
	clog.Infof(ctx, "%s processes=%d", b.objs.Metrics(), localexec.Processes())
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return b.failures.err()
}

// run runs cmd and reports its progress and output.
// remap rewrites paths in diagnostics. It may be nil.
func (b *Builder) run(ctx context.Context, cmd *execute.Cmd, verb, target string, remap *strings.Replacer) (string, error) {
	started := time.Now()
	err := b.executor.Run(ctx, cmd)
	clog.Debugf(ctx, "%s %s %s: %v", cmd.ActionName, cmd, time.Since(started), err)
	b.progress.step(verb, target)
	result := cmdOutputResultSUCCESS
	if err != nil {
		result = cmdOutputResultFAILED
	}
	out := cmdOutput(ctx, result, cmd, remap, err)
	b.progress.output(out.Msg())
	return out.diagnostics(), err
}

func (b *Builder) rel(fname string) string {
	rel, err := filepath.Rel(b.config.Dir, fname)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fname
	}
	return filepath.ToSlash(rel)
}

func existingDirs(dirs []string) []string {
	var ret []string
	for _, dir := range dirs {
		fi, err := os.Stat(dir)
		if err == nil && fi.IsDir() {
			ret = append(ret, dir)
		}
	}
	return ret
}
