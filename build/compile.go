// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kilnbuild/kiln/digest"
	"github.com/kilnbuild/kiln/execute"
	"github.com/kilnbuild/kiln/o11y/clog"
	"github.com/kilnbuild/kiln/scandeps"
	"github.com/kilnbuild/kiln/toolsupport/gccutil"
)

// compile compiles one object per distinct digest in the compile set.
// A failed digest is evicted from the new snapshot with every path
// carrying it, so the next build retries them.
// It returns the evicted paths.
func (b *Builder) compile(ctx context.Context, plan *Plan) map[string]bool {
	ds, first := plan.CompileSet.Digests()
	pic := hasLibrary(plan.Graph)
	var mu sync.Mutex
	var faileds []digest.Digest
	var eg errgroup.Group
	eg.SetLimit(b.jobs)
	for _, d := range ds {
		src := first[d]
		eg.Go(func() error {
			err := b.compileOne(ctx, src, d, pic)
			if err != nil {
				b.stats.update(stepFailed)
				b.failures.add(actionCompile, err)
				mu.Lock()
				faileds = append(faileds, d)
				mu.Unlock()
				return nil
			}
			b.stats.update(stepCompiled)
			return nil
		})
	}
	eg.Wait()

	failed := make(map[string]bool)
	for _, d := range faileds {
		for _, fname := range plan.New.PathsOf(d) {
			clog.Infof(ctx, "evict %s", fname)
			failed[fname] = true
			plan.New.Delete(fname)
		}
	}
	return failed
}

func (b *Builder) compileOne(ctx context.Context, src string, d digest.Digest, pic bool) error {
	tmp := b.objs.tmpPath(d)
	params := gccutil.CompileParams{
		Compiler:    b.config.Compiler(src),
		Std:         b.config.Std(src),
		Flags:       b.profile.CFlags,
		IncludeDirs: b.includeDirs(),
		PIC:         pic,
		Color:       b.color,
		Source:      src,
		Output:      tmp,
	}
	cmd := execute.NewCmd(actionCompile, "CC "+b.rel(src), params.Args())
	cmd.Dir = b.config.Dir
	cmd.Inputs = []string{src}
	cmd.Outputs = []string{tmp}
	out, err := b.run(ctx, cmd, "CC", b.rel(src), nil)
	if err == nil {
		err = b.objs.commit(d)
	}
	if err != nil {
		b.objs.Remove(d)
		return StepError{
			Action: actionCompile,
			Target: src,
			Cause:  err,
			Output: out,
		}
	}
	return nil
}

// hasLibrary reports whether any root links a shared library, so objects
// need position independent code.
func hasLibrary(g *scandeps.Graph) bool {
	for _, root := range g.Roots() {
		if g.Files[root].Role == scandeps.RoleLibrary {
			return true
		}
	}
	return false
}
