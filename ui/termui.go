// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	clearLine = "\r\033[K"
	lineUp    = "\033[A"
)

var spinnerFrames = []string{"-", "\\", "|", "/"}

type termSpinner struct {
	t       *TermUI
	started time.Time
	msg     string
	stop    chan struct{}
	stopped sync.WaitGroup
}

// Start prints the message and animates a spinner after it.
func (s *termSpinner) Start(format string, args ...any) {
	s.started = time.Now()
	s.msg = fmt.Sprintf(format, args...)
	s.stop = make(chan struct{})
	s.t.write(s.msg + "... ")
	s.stopped.Add(1)
	go func() {
		defer s.stopped.Done()
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.t.write("\b" + spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *termSpinner) finish() time.Duration {
	close(s.stop)
	s.stopped.Wait()
	return time.Since(s.started)
}

// Stop replaces the spinner line with the error, if any.
// A quick successful operation leaves no line.
func (s *termSpinner) Stop(err error) {
	d := s.finish()
	switch {
	case err != nil:
		s.t.write(fmt.Sprintf("%s%6s %s failed %v\n", clearLine, FormatDuration(d), s.msg, err))
	case d < DurationThreshold:
		s.t.write(clearLine)
	default:
		s.t.write(fmt.Sprintf("%s%6s %s\n", clearLine, FormatDuration(d), s.msg))
	}
}

// Done replaces the spinner line with the result message.
func (s *termSpinner) Done(format string, args ...any) {
	d := s.finish()
	s.t.write(fmt.Sprintf("%s%6s %s: %s\n", clearLine, FormatDuration(d), s.msg, fmt.Sprintf(format, args...)))
}

// TermUI is a terminal UI that rewrites the progress line in place.
type TermUI struct {
	mu    sync.Mutex
	out   io.Writer
	width int
}

func (t *TermUI) write(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	io.WriteString(t.out, s)
}

// PrintLines implements UI.
func (t *TermUI) PrintLines(msgs ...string) {
	var sb strings.Builder
	if len(msgs) > 0 && msgs[0] == "\n" {
		msgs = msgs[1:]
	} else if len(msgs) > 0 {
		sb.WriteString(strings.Repeat(clearLine+lineUp, len(msgs)-1))
		sb.WriteString(clearLine)
	}
	first := true
	for _, msg := range msgs {
		if msg == "" {
			continue
		}
		if !first {
			sb.WriteByte('\n')
		}
		first = false
		sb.WriteString(fitWidth(msg, t.width))
	}
	t.write(sb.String())
}

// NewSpinner returns a spinner on the terminal.
func (t *TermUI) NewSpinner() Spinner {
	return &termSpinner{t: t}
}

// Infof prints a message after the progress line.
func (t *TermUI) Infof(format string, args ...any) {
	t.PrintLines("\n", fmt.Sprintf(format, args...)+"\n")
}

// Warningf prints a yellow message to stderr.
func (*TermUI) Warningf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, SGR(Yellow, fmt.Sprintf(format, args...)))
}

// Errorf prints a red message to stderr.
func (*TermUI) Errorf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, SGR(Red, fmt.Sprintf(format, args...)))
}
