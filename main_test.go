// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"path/filepath"
	"testing"
)

func TestKilnMain(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hello")
	for _, tc := range []struct {
		args []string
		want int
	}{
		{args: []string{"init", dir}, want: 0},
		{args: []string{"init", dir}, want: 1},
		{args: []string{"targets", "-C", dir}, want: 0},
		{args: []string{"deps", "-C", dir, filepath.Join(dir, "src", "main.c")}, want: 0},
		{args: []string{"deps", "-C", dir}, want: 2},
		{args: []string{"targets", "-C", dir, "-profile", "no such profile"}, want: 2},
		{args: []string{"version"}, want: 0},
		{args: []string{"help", "annotations"}, want: 0},
		{args: []string{"no-such-command"}, want: 2},
		{args: []string{"-log_level", "bogus", "version"}, want: 2},
	} {
		if got := kilnMain(tc.args); got != tc.want {
			t.Errorf("kilnMain(%q)=%d; want %d", tc.args, got, tc.want)
		}
	}
}
