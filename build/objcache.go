// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kilnbuild/kiln/digest"
	"github.com/kilnbuild/kiln/o11y/clog"
	"github.com/kilnbuild/kiln/o11y/iometrics"
)

// ObjectChecker reports whether an object file exists for a source digest.
type ObjectChecker interface {
	Has(d digest.Digest) bool
}

// ObjectCache stores object files keyed by source digest.
// Two sources with the same content share one object.
type ObjectCache struct {
	dir string
	m   *iometrics.IOMetrics
}

// NewObjectCache returns an object cache in dir.
func NewObjectCache(dir string) *ObjectCache {
	return &ObjectCache{
		dir: dir,
		m:   iometrics.New("objects"),
	}
}

// Metrics returns I/O metrics of the cache: lookups and removals as
// ops, committed objects as writes.
func (c *ObjectCache) Metrics() *iometrics.IOMetrics {
	return c.m
}

// Dir returns the directory of the cache.
func (c *ObjectCache) Dir() string {
	return c.dir
}

// Path returns the object path for the digest.
func (c *ObjectCache) Path(d digest.Digest) string {
	return filepath.Join(c.dir, d.String())
}

// tmpPath returns the path a compiler writes to before commit.
func (c *ObjectCache) tmpPath(d digest.Digest) string {
	return c.Path(d) + ".tmp"
}

// Has reports whether the object for the digest exists.
func (c *ObjectCache) Has(d digest.Digest) bool {
	fi, err := os.Stat(c.Path(d))
	if errors.Is(err, fs.ErrNotExist) {
		c.m.OpsDone(nil)
	} else {
		c.m.OpsDone(err)
	}
	return err == nil && fi.Mode().IsRegular()
}

// commit renames the compiler output to the object path, so
// a partially written object is never observed by Has.
func (c *ObjectCache) commit(d digest.Digest) error {
	tmp := c.tmpPath(d)
	err := os.Rename(tmp, c.Path(d))
	if err != nil {
		os.Remove(tmp)
		c.m.WriteDone(0, err)
		return err
	}
	var size int64
	if fi, err := os.Stat(c.Path(d)); err == nil {
		size = fi.Size()
	}
	c.m.WriteDone(int(size), nil)
	return nil
}

// Remove removes the object for the digest, if any.
func (c *ObjectCache) Remove(d digest.Digest) error {
	os.Remove(c.tmpPath(d))
	err := os.Remove(c.Path(d))
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	c.m.OpsDone(err)
	return err
}

// Prune removes objects of the digests and returns the number of
// removed objects.
func (c *ObjectCache) Prune(ctx context.Context, ds []digest.Digest) int {
	n := 0
	for _, d := range ds {
		if !c.Has(d) {
			continue
		}
		err := c.Remove(d)
		if err != nil {
			clog.Warningf(ctx, "failed to prune object %s: %v", d.Short(), err)
			continue
		}
		clog.Debugf(ctx, "pruned object %s", d.Short())
		n++
	}
	return n
}

// Wipe removes all objects.
func (c *ObjectCache) Wipe() error {
	return os.RemoveAll(c.dir)
}
