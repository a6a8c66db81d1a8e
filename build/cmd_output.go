// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kilnbuild/kiln/execute"
	"github.com/kilnbuild/kiln/ui"
)

type cmdOutputResult int

const (
	cmdOutputResultFAILED cmdOutputResult = iota
	cmdOutputResultSUCCESS
)

func (r cmdOutputResult) String() string {
	switch r {
	case cmdOutputResultFAILED:
		return "FAILED"
	case cmdOutputResultSUCCESS:
		return "SUCCESS"
	}
	return fmt.Sprintf("cmdOutputResult=%d", int(r))
}

type cmdOutputLog struct {
	// result is cmd result (FAILED/SUCCESS)
	result cmdOutputResult

	cmd     *execute.Cmd
	cmdline string
	output  string
	err     error
	stdout  string
	stderr  string
}

func (c *cmdOutputLog) Msg() string {
	if c == nil {
		return ""
	}
	var sb strings.Builder
	cmdStdoutStderr := func() {
		if len(c.stdout) > 0 {
			fmt.Fprintf(&sb, "stdout:\n%s", c.stdout)
			if !strings.HasSuffix(c.stdout, "\n") {
				fmt.Fprintf(&sb, "\n")
			}
		}
		if len(c.stderr) > 0 {
			fmt.Fprintf(&sb, "stderr:\n%s", c.stderr)
			if !strings.HasSuffix(c.stderr, "\n") {
				fmt.Fprintf(&sb, "\n")
			}
		}
	}

	if c.result == cmdOutputResultSUCCESS {
		// just print stdout/stderr, e.g. warnings, for success result
		cmdStdoutStderr()
		return sb.String()
	}

	result := fmt.Sprintf("%s: %s %q %s\n", c.result, c.cmd, c.output, c.cmd.Desc)
	fmt.Fprint(&sb, ui.SGR(ui.Red, result))
	if c.err != nil {
		fmt.Fprintf(&sb, "err: %v\n", c.err)
	}
	fmt.Fprintf(&sb, "%s\n", c.cmdline)
	fmt.Fprintf(&sb, "build step: %s %q\n", c.cmd.ActionName, c.output)
	cmdStdoutStderr()
	return sb.String()
}

// diagnostics returns stdout and stderr of the cmd log.
func (c *cmdOutputLog) diagnostics() string {
	if c == nil {
		return ""
	}
	return c.stdout + c.stderr
}

// cmdOutput returns cmd output log (result, id, desc, err, action, output, args, stdout, stderr).
// remap rewrites paths in stdout/stderr, e.g. object paths to source paths. It may be nil.
// it will return nil if ctx is canceled or success with no stdout/stderr.
func cmdOutput(ctx context.Context, result cmdOutputResult, cmd *execute.Cmd, remap *strings.Replacer, err error) *cmdOutputLog {
	if ctx.Err() != nil {
		return nil
	}
	stdout := string(cmd.Stdout())
	stderr := string(cmd.Stderr())
	if remap != nil {
		stdout = remap.Replace(stdout)
		stderr = remap.Replace(stderr)
	}
	if err == nil && len(stdout) == 0 && len(stderr) == 0 {
		return nil
	}
	res := &cmdOutputLog{
		result:  result,
		cmd:     cmd,
		cmdline: cmd.Command(),
		err:     err,
		stdout:  stdout,
		stderr:  stderr,
	}
	if len(cmd.Outputs) > 0 {
		output := cmd.Outputs[0]
		if rel, err := filepath.Rel(cmd.Dir, output); err == nil && !strings.HasPrefix(rel, "..") {
			output = "./" + filepath.ToSlash(rel)
		}
		res.output = output
	}
	return res
}
