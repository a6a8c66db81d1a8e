// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build unix

package localexec

import (
	"os/exec"
	"syscall"
	"time"

	"github.com/kilnbuild/kiln/execute"
)

func rusage(cmd *exec.Cmd) *execute.Rusage {
	if cmd.ProcessState == nil {
		return nil
	}
	if u, ok := cmd.ProcessState.SysUsage().(*syscall.Rusage); ok {
		return &execute.Rusage{
			// 32bit arch may use int32 for Maxrss etc.
			MaxRSS:  int64(u.Maxrss),
			Majflt:  int64(u.Majflt),
			Inblock: int64(u.Inblock),
			Oublock: int64(u.Oublock),
			Utime:   time.Duration(u.Utime.Nano()),
			Stime:   time.Duration(u.Stime.Nano()),
		}
	}
	return nil
}
