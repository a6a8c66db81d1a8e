// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogUI(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Default()
	t.Cleanup(func() { log.SetDefault(orig) })
	log.SetDefault(log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel}))

	var u UI = LogUI{}
	u.PrintLines("", SGR(Green, "[1/2] CC a.c"), "")
	u.Infof("%s", SGR(Red, "FAILED: a.c"))
	got := buf.String()
	for _, want := range []string{"[1/2] CC a.c", "FAILED: a.c"} {
		if !strings.Contains(got, want) {
			t.Errorf("log output %q doesn't contain %q", got, want)
		}
	}
	if strings.Contains(got, "\033[") {
		t.Errorf("log output %q contains escape sequence", got)
	}
}
