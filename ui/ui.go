// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package ui reports build progress on a terminal or to the log.
package ui

import (
	"os"
	"regexp"
	"strings"

	"golang.org/x/term"
)

// Spinner shows progress of a long operation, e.g. scanning sources.
type Spinner interface {
	// Start starts the spinner with the formatted message.
	Start(format string, args ...any)
	// Stop stops the spinner, reporting err if not nil.
	Stop(err error)
	// Done stops the spinner with a result message.
	Done(format string, args ...any)
}

// UI is a user interface.
type UI interface {
	// PrintLines prints message lines.
	// If msgs starts with "\n", lines are printed after the current line.
	// Otherwise, they replace the last len(msgs) lines.
	PrintLines(msgs ...string)
	// NewSpinner returns a new spinner.
	NewSpinner() Spinner
	// Infof reports an informational message.
	Infof(format string, args ...any)
	// Warningf reports a warning message.
	Warningf(format string, args ...any)
	// Errorf reports an error message.
	Errorf(format string, args ...any)
}

// ModeEnv selects the UI: "term", "log" or empty for auto detection.
const ModeEnv = "KILN_UI"

// Default is the UI selected at init. It must not be changed after.
var Default UI = New(os.Getenv(ModeEnv))

// New returns a UI for mode.
// An unknown or empty mode picks TermUI if stdout is a terminal.
func New(mode string) UI {
	fd := int(os.Stdout.Fd())
	switch mode {
	case "log":
		return LogUI{}
	case "term":
	default:
		if !term.IsTerminal(fd) {
			return LogUI{}
		}
	}
	width, _, _ := term.GetSize(fd)
	return &TermUI{out: os.Stdout, width: width}
}

// IsTerminal reports whether Default is a terminal UI.
func IsTerminal() bool {
	_, ok := Default.(*TermUI)
	return ok
}

// fitWidth shortens msg to fit in width columns, replacing its middle
// with "...". Escape sequences are dropped from shortened messages.
// Messages with a newline, e.g. diagnostics, are kept as is.
func fitWidth(msg string, width int) string {
	if width <= 8 || strings.Contains(msg, "\n") {
		return msg
	}
	plain := StripANSIEscapeCodes(msg)
	if len(plain) < width {
		return msg
	}
	const marker = "..."
	n := (width - len(marker) - 1) / 2
	return plain[:n] + marker + plain[len(plain)-n:]
}

// SGRCode is a parameter of an SGR (select graphic rendition) sequence.
type SGRCode string

const (
	Bold          SGRCode = "1"
	Red           SGRCode = "31;1"
	Green         SGRCode = "32"
	Yellow        SGRCode = "33"
	BackgroundRed SGRCode = "41;37"
	Reset         SGRCode = "0"
)

func (s SGRCode) String() string {
	return "\033[" + string(s) + "m"
}

// SGR formats s with n, resetting after.
func SGR(n SGRCode, s string) string {
	return n.String() + s + Reset.String()
}

// csi matches a control sequence, or a lone or truncated escape.
var csi = regexp.MustCompile(`\x1b(\[[0-9;?]*[A-Za-z]?)?`)

// StripANSIEscapeCodes strips ANSI escape codes, e.g. colored compiler
// diagnostics.
func StripANSIEscapeCodes(s string) string {
	if !strings.Contains(s, "\033") {
		return s
	}
	return csi.ReplaceAllString(s, "")
}
