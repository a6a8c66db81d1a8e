// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package help

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTopics(t *testing.T) {
	if diff := cmp.Diff([]string{"annotations", "config"}, topicNames()); diff != "" {
		t.Errorf("topicNames diff -want +got:\n%s", diff)
	}
	var buf bytes.Buffer
	printTopics(&buf)
	for _, want := range []string{"Help topics:", "  annotations\n", "  config\n"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("printTopics=%q; want to contain %q", buf.String(), want)
		}
	}
	for _, marker := range []string{"//@bin", "//@lib", "//@import"} {
		if !strings.Contains(topics["annotations"], marker) {
			t.Errorf("annotations topic doesn't mention %q", marker)
		}
	}
}
