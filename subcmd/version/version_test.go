// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package version

import (
	"bytes"
	"runtime/debug"
	"testing"
)

func TestPrint(t *testing.T) {
	buildInfo := &debug.BuildInfo{
		GoVersion: "go1.24.2",
		Main:      debug.Module{Path: "github.com/kilnbuild/kiln", Version: "(devel)"},
		Deps: []*debug.Module{
			{Path: "github.com/maruel/subcommands", Version: "v1.1.1", Sum: "h1:abc"},
		},
		Settings: []debug.BuildSetting{
			{Key: "GOOS", Value: "linux"},
			{Key: "vcs.revision", Value: "0123abc"},
			{Key: "vcs.modified", Value: "false"},
		},
	}
	for _, tc := range []struct {
		deps bool
		want string
	}{
		{
			want: "kiln v1\ngo\tgo1.24.2\nmod\tgithub.com/kilnbuild/kiln\t(devel)\nbuild\tvcs.revision=0123abc\nbuild\tvcs.modified=false\n",
		},
		{
			deps: true,
			want: "kiln v1\ngo\tgo1.24.2\nmod\tgithub.com/kilnbuild/kiln\t(devel)\nbuild\tvcs.revision=0123abc\nbuild\tvcs.modified=false\n" +
				"dep\tpath:github.com/maruel/subcommands version:v1.1.1 sum:h1:abc replace:<nil>\n",
		},
	} {
		var buf bytes.Buffer
		printVersion(&buf, "kiln v1", buildInfo, tc.deps)
		if got := buf.String(); got != tc.want {
			t.Errorf("printVersion(deps=%t)=%q; want %q", tc.deps, got, tc.want)
		}
	}
}

func TestVCSInfo(t *testing.T) {
	got := VCSInfo(&debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123abc"},
			{Key: "vcs.time", Value: "2025-01-02T03:04:05Z"},
		},
	})
	want := "vcs[revision=0123abc time=2025-01-02T03:04:05Z modified=]"
	if got != want {
		t.Errorf("VCSInfo()=%q; want %q", got, want)
	}
}
