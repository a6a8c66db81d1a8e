// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildcmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kilnbuild/kiln/hashfs"
	"github.com/kilnbuild/kiln/ui"
)

// LockFile returns the lock file of the project in dir.
func LockFile(dir string) string {
	return filepath.Join(dir, hashfs.StateDir, "lock")
}

type errAlreadyLocked struct {
	err    error
	bufErr error
	fname  string
	owner  string
}

func (l errAlreadyLocked) Error() string {
	if l.bufErr != nil {
		return fmt.Sprintf("%s is locked, and failed to read: %v", l.fname, l.bufErr)
	}
	return fmt.Sprintf("%s is locked by %s: %v", l.fname, l.owner, l.err)
}

func (l errAlreadyLocked) Unwrap() error {
	if l.err != nil {
		return l.err
	}
	return l.bufErr
}

// Lock locks the project in dir, waiting for another kiln process
// holding the lock until ctx is done. It returns a func to unlock.
func Lock(ctx context.Context, dir string) (func(), error) {
	fname := LockFile(dir)
	err := os.MkdirAll(filepath.Dir(fname), 0755)
	if err != nil {
		return nil, err
	}
	lock, err := newLockFile(fname)
	switch {
	case errors.Is(err, errors.ErrUnsupported):
		log.Warnf("lockfile is not supported")
		return func() {}, nil
	case err != nil:
		return nil, err
	}
	var owner string
	spin := ui.Default.NewSpinner()
	for {
		err = lock.Lock()
		var alreadyLocked errAlreadyLocked
		if errors.As(err, &alreadyLocked) {
			if owner != alreadyLocked.owner {
				if owner != "" {
					spin.Done("lock holder %s completed", owner)
				}
				owner = alreadyLocked.owner
				spin.Start("waiting for lock holder %s..", owner)
			}
			select {
			case <-ctx.Done():
				spin.Stop(context.Cause(ctx))
				_ = lock.Close()
				return nil, context.Cause(ctx)
			case <-time.After(500 * time.Millisecond):
				continue
			}
		} else if err != nil {
			if owner != "" {
				spin.Stop(err)
			}
			_ = lock.Close()
			return nil, err
		}
		if owner != "" {
			spin.Done("lock holder %s completed", owner)
		}
		break
	}
	return func() {
		err := lock.Unlock()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to unlock %s: %v\n", fname, err)
		}
		err = lock.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to close %s: %v\n", fname, err)
		}
	}, nil
}
