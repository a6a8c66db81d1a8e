// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build windows

package localexec

import (
	"os/exec"

	"github.com/kilnbuild/kiln/execute"
)

// rusage reports CPU times only. Windows has no getrusage counters for
// memory or block I/O.
func rusage(cmd *exec.Cmd) *execute.Rusage {
	if cmd.ProcessState == nil {
		return nil
	}
	return &execute.Rusage{
		Utime: cmd.ProcessState.UserTime(),
		Stime: cmd.ProcessState.SystemTime(),
	}
}
