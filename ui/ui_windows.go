// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/windows"
)

// savedMode is the console mode before Init. Zero means unchanged.
var savedMode uint32

func stdoutHandle() windows.Handle {
	return windows.Handle(os.Stdout.Fd())
}

// Init enables ANSI escape sequences on the console, so progress lines
// and colored diagnostics render as on other platforms.
func Init() {
	var mode uint32
	if err := windows.GetConsoleMode(stdoutHandle(), &mode); err != nil {
		log.Debugf("not a console: %v", err)
		return
	}
	const vt = windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING
	if mode&vt != 0 {
		return
	}
	if err := windows.SetConsoleMode(stdoutHandle(), mode|vt); err != nil {
		log.Warnf("failed to enable virtual terminal 0x%x: %v", mode|vt, err)
		return
	}
	savedMode = mode
}

// Restore restores the console mode changed by Init.
func Restore() {
	if savedMode == 0 {
		return
	}
	if err := windows.SetConsoleMode(stdoutHandle(), savedMode); err != nil {
		log.Errorf("failed to restore console mode 0x%x: %v", savedMode, err)
	}
}
