// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// logSpinner logs start and finish of an operation instead of animating.
type logSpinner struct {
	msg     string
	started time.Time
}

func (l *logSpinner) Start(format string, args ...any) {
	l.started = time.Now()
	l.msg = fmt.Sprintf(format, args...)
	log.Info(l.msg)
}

func (l *logSpinner) Stop(err error) {
	d := FormatDuration(time.Since(l.started))
	if err != nil {
		log.Warn(l.msg+" failed", "took", d, "err", err)
		return
	}
	log.Info(l.msg+" done", "took", d)
}

func (l *logSpinner) Done(format string, args ...any) {
	log.Info(l.msg+": "+fmt.Sprintf(format, args...), "took", FormatDuration(time.Since(l.started)))
}

// LogUI reports through the default charmbracelet logger, for
// non-terminal output such as CI logs.
type LogUI struct{}

// PrintLines logs the last non-blank line only, since a terminal would
// have overwritten the others.
func (LogUI) PrintLines(msgs ...string) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msg := trimLine(msgs[i]); msg != "" {
			log.Info(msg)
			return
		}
	}
}

// NewSpinner returns a spinner that logs.
func (LogUI) NewSpinner() Spinner {
	return &logSpinner{}
}

func (LogUI) Infof(format string, args ...any) {
	log.Helper()
	log.Info(trimLine(fmt.Sprintf(format, args...)))
}

func (LogUI) Warningf(format string, args ...any) {
	log.Helper()
	log.Warn(trimLine(fmt.Sprintf(format, args...)))
}

func (LogUI) Errorf(format string, args ...any) {
	log.Helper()
	log.Error(trimLine(fmt.Sprintf(format, args...)))
}

func trimLine(s string) string {
	return StripANSIEscapeCodes(strings.TrimSpace(s))
}
