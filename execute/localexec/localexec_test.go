// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build unix

package localexec

import (
	"context"
	"errors"
	"testing"

	"github.com/kilnbuild/kiln/execute"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	procs := Processes()
	cmd := execute.NewCmd("compile", "echo", []string{"/bin/sh", "-c", "echo hello; echo oops >&2"})
	cmd.Dir = t.TempDir()
	err := Run(ctx, cmd)
	if err != nil {
		t.Fatalf("Run=%v; want nil err", err)
	}
	if got, want := string(cmd.Stdout()), "hello\n"; got != want {
		t.Errorf("stdout=%q; want %q", got, want)
	}
	if got, want := string(cmd.Stderr()), "oops\n"; got != want {
		t.Errorf("stderr=%q; want %q", got, want)
	}
	if cmd.Rusage() == nil {
		t.Errorf("Rusage()=nil; want non-nil")
	}
	if got, want := Processes(), procs+1; got != want {
		t.Errorf("Processes()=%d; want %d", got, want)
	}
}

func TestRun_exitError(t *testing.T) {
	ctx := context.Background()
	cmd := execute.NewCmd("link", "fail", []string{"/bin/sh", "-c", "exit 3"})
	err := Run(ctx, cmd)
	var eerr execute.ExitError
	if !errors.As(err, &eerr) || eerr.ExitCode != 3 {
		t.Errorf("Run=%v; want ExitError{3}", err)
	}
}

func TestRun_noArgs(t *testing.T) {
	ctx := context.Background()
	err := Run(ctx, execute.NewCmd("compile", "empty", nil))
	if err == nil {
		t.Errorf("Run=nil; want error")
	}
}
