// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build unix

package buildcmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

func TestLock(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	unlock, err := Lock(ctx, dir)
	if err != nil {
		t.Fatalf("Lock=%v; want nil err", err)
	}

	other, err := newLockFile(LockFile(dir))
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	err = other.Lock()
	var alreadyLocked errAlreadyLocked
	if !errors.As(err, &alreadyLocked) {
		t.Fatalf("Lock=%v; want errAlreadyLocked", err)
	}
	if want := fmt.Sprintf("pid=%d", os.Getpid()); alreadyLocked.owner != want {
		t.Errorf("owner=%q; want %q", alreadyLocked.owner, want)
	}

	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = Lock(ctx, dir)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Lock while locked=%v; want %v", err, context.DeadlineExceeded)
	}

	unlock()
	err = other.Lock()
	if err != nil {
		t.Errorf("Lock after unlock=%v; want nil err", err)
	}
}
