// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package execute

import (
	"bytes"
	"fmt"
	"testing"
)

func TestCmdOutputs(t *testing.T) {
	cmd := NewCmd("compile", "CC a.c", []string{"cc", "-c", "a.c", "-o", "a.o"})
	if cmd.ID == "" {
		t.Errorf("NewCmd: empty ID")
	}
	if other := NewCmd("compile", "CC a.c", nil); other.ID == cmd.ID {
		t.Errorf("NewCmd: duplicate ID %q", cmd.ID)
	}
	if got, want := cmd.Command(), "cc -c a.c -o a.o"; got != want {
		t.Errorf("Command()=%q; want %q", got, want)
	}

	var tee bytes.Buffer
	cmd.SetStderrWriter(&tee)
	fmt.Fprint(cmd.StdoutWriter(), "out")
	fmt.Fprint(cmd.StderrWriter(), "warning: x")
	if got, want := string(cmd.Stdout()), "out"; got != want {
		t.Errorf("Stdout()=%q; want %q", got, want)
	}
	if got, want := string(cmd.Stderr()), "warning: x"; got != want {
		t.Errorf("Stderr()=%q; want %q", got, want)
	}
	if got, want := tee.String(), "warning: x"; got != want {
		t.Errorf("stderr writer=%q; want %q", got, want)
	}

	// StdoutWriter resets previous output.
	fmt.Fprint(cmd.StdoutWriter(), "again")
	if got, want := string(cmd.Stdout()), "again"; got != want {
		t.Errorf("Stdout()=%q; want %q", got, want)
	}
}

func TestExitError(t *testing.T) {
	err := error(ExitError{ExitCode: 2})
	if got, want := err.Error(), "exit=2"; got != want {
		t.Errorf("Error()=%q; want %q", got, want)
	}
}
