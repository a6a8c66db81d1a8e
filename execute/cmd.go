// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package execute runs build commands.
package execute

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kilnbuild/kiln/toolsupport/shutil"
)

// Executor is an interface to run the cmd.
type Executor interface {
	Run(ctx context.Context, cmd *Cmd) error
}

// Cmd includes all the information required to run a compile or link command.
type Cmd struct {
	// ID is a unique identifier of the cmd in logs.
	ID string

	// Desc is a short, human-readable description shown in the UI.
	// Example: "CC src/main.c"
	Desc string

	// ActionName is a kind of the step, "compile" or "link".
	ActionName string

	// Args holds command line arguments.
	Args []string

	// Env specifies the environment of the process.
	// If nil, the current process's environment is used.
	Env []string

	// Dir is the working directory of the cmd.
	Dir string

	// Inputs are input files of the cmd.
	Inputs []string

	// Outputs are output files of the cmd.
	Outputs []string

	stdoutWriter, stderrWriter io.Writer
	stdoutBuffer, stderrBuffer bytes.Buffer

	rusage *Rusage
}

// NewCmd creates a new cmd with a fresh ID.
func NewCmd(actionName, desc string, args []string) *Cmd {
	return &Cmd{
		ID:         uuid.NewString(),
		Desc:       desc,
		ActionName: actionName,
		Args:       args,
	}
}

// String returns an ID of the cmd.
func (c *Cmd) String() string {
	return c.ID
}

// Command returns a command line string.
func (c *Cmd) Command() string {
	return shutil.Join(c.Args)
}

// SetStdoutWriter sets w for stdout.
func (c *Cmd) SetStdoutWriter(w io.Writer) {
	c.stdoutWriter = w
}

// SetStderrWriter sets w for stderr.
func (c *Cmd) SetStderrWriter(w io.Writer) {
	c.stderrWriter = w
}

// StdoutWriter returns a writer set for stdout.
func (c *Cmd) StdoutWriter() io.Writer {
	c.stdoutBuffer.Reset()
	if c.stdoutWriter == nil {
		return &c.stdoutBuffer
	}
	return io.MultiWriter(c.stdoutWriter, &c.stdoutBuffer)
}

// StderrWriter returns a writer set for stderr.
func (c *Cmd) StderrWriter() io.Writer {
	c.stderrBuffer.Reset()
	if c.stderrWriter == nil {
		return &c.stderrBuffer
	}
	return io.MultiWriter(c.stderrWriter, &c.stderrBuffer)
}

// Stdout returns stdout output of the cmd.
func (c *Cmd) Stdout() []byte {
	return c.stdoutBuffer.Bytes()
}

// Stderr returns stderr output of the cmd.
func (c *Cmd) Stderr() []byte {
	return c.stderrBuffer.Bytes()
}

// Rusage is resource usage of an executed cmd.
type Rusage struct {
	MaxRSS  int64
	Majflt  int64
	Inblock int64
	Oublock int64
	Utime   time.Duration
	Stime   time.Duration
}

// SetRusage sets resource usage of the cmd.
func (c *Cmd) SetRusage(u *Rusage) {
	c.rusage = u
}

// Rusage returns resource usage of the cmd, or nil if not available.
func (c *Cmd) Rusage() *Rusage {
	return c.rusage
}

// ExitError is an error of cmd exit.
type ExitError struct {
	ExitCode int
}

func (e ExitError) Error() string {
	return fmt.Sprintf("exit=%d", e.ExitCode)
}
