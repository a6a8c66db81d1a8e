// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package shutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplit(t *testing.T) {
	for _, tc := range []struct {
		cmdline string
		want    []string
	}{
		{
			cmdline: "",
			want:    nil,
		},
		{
			cmdline: `-O2   -Wall -DNAME=\"kiln\" -I include`,
			want: []string{
				"-O2",
				"-Wall",
				`-DNAME="kiln"`,
				"-I",
				"include",
			},
		},
		{
			cmdline: `-I/usr/include/glib-2.0 -I/usr/lib/x86_64-linux-gnu/glib-2.0/include -lglib-2.0 ` + "\n",
			want: []string{
				"-I/usr/include/glib-2.0",
				"-I/usr/lib/x86_64-linux-gnu/glib-2.0/include",
				"-lglib-2.0",
			},
		},
		{
			cmdline: `-DMSG="hello world" 'it'\''s' "a\"b" x''y ""`,
			want: []string{
				"-DMSG=hello world",
				"it's",
				`a"b`,
				"xy",
				"",
			},
		},
		{
			cmdline: `'semi;colon' "pipe|and&"`,
			want: []string{
				"semi;colon",
				"pipe|and&",
			},
		},
	} {
		args, err := Split(tc.cmdline)
		if err != nil {
			t.Errorf("Split(%q)=%q, %v; want nil error", tc.cmdline, args, err)
		}
		if diff := cmp.Diff(tc.want, args); diff != "" {
			t.Errorf("Split(%q); diff -want +got:\n%s", tc.cmdline, diff)
		}
	}
}

func TestSplit_Error(t *testing.T) {
	for _, cmdline := range []string{
		`-O2 2>/dev/null`,
		`-DX="unterminated`,
		`-DX='unterminated`,
		`-O2 \`,
		`$(pkg-config --libs x)`,
		"-O2; rm -rf /",
	} {
		args, err := Split(cmdline)
		if err == nil {
			t.Errorf("Split(%q)=%q, %v; want err", cmdline, args, err)
		}
	}
}

func TestJoin(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want string
	}{
		{
			args: []string{"gcc", "-c", "src/main.c", "-o", "obj/debug/ab12"},
			want: "gcc -c src/main.c -o obj/debug/ab12",
		},
		{
			args: []string{"cc", "-DMSG=hello world", "", "it's"},
			want: `cc '-DMSG=hello world' '' 'it'\''s'`,
		},
	} {
		got := Join(tc.args)
		if got != tc.want {
			t.Errorf("Join(%q)=%q; want %q", tc.args, got, tc.want)
		}
		args, err := Split(got)
		if err != nil {
			t.Errorf("Split(%q)=%v", got, err)
			continue
		}
		if diff := cmp.Diff(tc.args, args); diff != "" {
			t.Errorf("Split(Join(%q)) diff -want +got:\n%s", tc.args, diff)
		}
	}
}
