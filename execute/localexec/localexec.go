// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package localexec implements local command execution.
package localexec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/kilnbuild/kiln/execute"
	"github.com/kilnbuild/kiln/o11y/clog"
	"github.com/kilnbuild/kiln/runtimex"
	"github.com/kilnbuild/kiln/sync/semaphore"
)

// LocalExec implements execute.Executor interface that runs commands locally.
type LocalExec struct{}

// Run runs cmd with LocalExec.
func Run(ctx context.Context, cmd *execute.Cmd) error {
	return LocalExec{}.Run(ctx, cmd)
}

// forkSema limits concurrent process creation.
var forkSema = semaphore.New("fork", runtimex.NumCPU())

// Processes returns the number of processes started in this process.
func Processes() int {
	return forkSema.NumRequests()
}

// Run runs a cmd. It returns execute.ExitError if the cmd exits
// with non-zero status.
func (LocalExec) Run(ctx context.Context, cmd *execute.Cmd) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("no arguments in the command. ID: %s", cmd.ID)
	}
	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	c.Env = cmd.Env
	c.Dir = cmd.Dir
	c.Stdout = cmd.StdoutWriter()
	c.Stderr = cmd.StderrWriter()

	started := time.Now()
	err := forkSema.Do(ctx, func(ctx context.Context) error {
		clog.Debugf(ctx, "%s %s slot=%d/%d busy=%d waiting=%d", cmd.ID, forkSema.Name(), semaphore.Slot(ctx), forkSema.Capacity(), forkSema.NumServs(), forkSema.NumWaits())
		return c.Start()
	})
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Desc, err)
	}
	err = c.Wait()
	cmd.SetRusage(rusage(c))
	code := exitCode(err)
	clog.Debugf(ctx, "%s exit=%d stdout=%d stderr=%d in %s", cmd.ID, code, len(cmd.Stdout()), len(cmd.Stderr()), time.Since(started))
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	if code != 0 {
		return execute.ExitError{ExitCode: code}
	}
	return nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var eerr *exec.ExitError
	if !errors.As(err, &eerr) {
		return 1
	}
	if w, ok := eerr.ProcessState.Sys().(syscall.WaitStatus); ok {
		return w.ExitStatus()
	}
	return 1
}
