// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package run

import (
	"path/filepath"
	"testing"

	"github.com/kilnbuild/kiln/build"
	"github.com/kilnbuild/kiln/scandeps"
)

func TestFindBinary(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	units := []*build.LinkUnit{
		{Root: filepath.Join(dir, "src", "lib.c"), Role: scandeps.RoleLibrary, Name: "util"},
		{Root: filepath.Join(dir, "src", "main.c"), Role: scandeps.RoleBinary, Name: "app"},
		{Root: filepath.Join(dir, "src", "tool.cc"), Role: scandeps.RoleBinary},
	}
	for _, tc := range []struct {
		target  string
		want    string
		wantErr bool
	}{
		{target: "app", want: "app"},
		{target: "tool", want: "tool"},
		{target: "src/main.c", want: "app"},
		{target: filepath.Join(dir, "src", "tool.cc"), want: "tool"},
		{target: "util", wantErr: true},
		{target: "src/lib.c", wantErr: true},
		{target: "missing", wantErr: true},
	} {
		u, err := findBinary(units, tc.target)
		if tc.wantErr {
			if err == nil {
				t.Errorf("findBinary(%q)=%v; want error", tc.target, u.OutputName())
			}
			continue
		}
		if err != nil {
			t.Errorf("findBinary(%q)=%v; want nil err", tc.target, err)
			continue
		}
		if got := u.OutputName(); got != tc.want {
			t.Errorf("findBinary(%q)=%q; want %q", tc.target, got, tc.want)
		}
	}
}
