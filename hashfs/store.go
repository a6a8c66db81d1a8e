// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package hashfs persists content digests of source files between builds.
package hashfs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kilnbuild/kiln/digest"
	"github.com/kilnbuild/kiln/o11y/clog"
)

// StateDir is the directory name under the project root that keeps build state.
const StateDir = ".kiln"

// StateFile returns the hash store filename for the profile in root.
func StateFile(root, profile string) string {
	return filepath.Join(root, StateDir, profile+".hashes")
}

// Load loads the hash store of the profile in root.
// Paths in the store are relative to root, and paths in the returned
// snapshot are absolute.
// It returns an empty snapshot if the store doesn't exist.
// A malformed entry is skipped.
func Load(ctx context.Context, root, profile string) (*Snapshot, error) {
	fname := StateFile(root, profile)
	buf, err := os.ReadFile(fname)
	if errors.Is(err, fs.ErrNotExist) {
		clog.Infof(ctx, "no hash store %s", fname)
		return NewSnapshot(), nil
	}
	if err != nil {
		return NewSnapshot(), err
	}
	s := NewSnapshot()
	var nbad int
	sc := bufio.NewScanner(bytes.NewReader(buf))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		name := strings.TrimRight(sc.Text(), "\r")
		if !sc.Scan() {
			clog.Warningf(ctx, "%s: missing hash for %q", fname, name)
			nbad++
			break
		}
		hash := strings.TrimSpace(sc.Text())
		d, err := digest.Parse(hash)
		if err != nil || name == "" {
			clog.Warningf(ctx, "%s: skip entry %q: %v", fname, name, err)
			nbad++
			continue
		}
		s.Set(filepath.Join(root, filepath.FromSlash(name)), d)
	}
	if err := sc.Err(); err != nil {
		return s, fmt.Errorf("failed to read %s: %w", fname, err)
	}
	clog.Infof(ctx, "loaded %s: %d entries, %d skipped", fname, s.Len(), nbad)
	return s, nil
}

// Save persists the snapshot as the hash store of the profile in root.
// The previous store is replaced atomically.
func Save(ctx context.Context, root, profile string, s *Snapshot) error {
	fname := StateFile(root, profile)
	var buf bytes.Buffer
	for _, p := range s.Paths() {
		d, _ := s.Get(p)
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", p, err)
		}
		fmt.Fprintf(&buf, "%s\n%s\n", filepath.ToSlash(rel), d)
	}
	err := os.MkdirAll(filepath.Dir(fname), 0755)
	if err != nil {
		return err
	}
	tmp := fname + ".tmp"
	err = os.WriteFile(tmp, buf.Bytes(), 0644)
	if err != nil {
		os.Remove(tmp)
		return err
	}
	err = os.Rename(tmp, fname)
	if err != nil {
		os.Remove(tmp)
		return err
	}
	clog.Infof(ctx, "saved %s: %d entries", fname, s.Len())
	return nil
}

// Remove removes the hash store of the profile in root.
func Remove(root, profile string) error {
	err := os.Remove(StateFile(root, profile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
