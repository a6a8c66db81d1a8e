// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package query

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kilnbuild/kiln/build/buildconfig"
)

var linuxCaps = buildconfig.Capabilities{
	OS:     "linux",
	Family: "unix",
	Arch:   "amd64",
}

func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for fname, content := range map[string]string{
		"kiln.toml":  "[package]\nname = \"demo\"\n",
		"src/util.h": "int util(void);\n",
		"src/util.c": "#include \"util.h\"\nint util(void) { return 1; }\n",
		"src/main.c": "//@bin app\n#include \"util.h\"\nint main(void) { return util(); }\n",
		"src/tool.c": "//@bin\nint main(void) { return 0; }\n",
	} {
		fname = filepath.Join(dir, filepath.FromSlash(fname))
		err := os.MkdirAll(filepath.Dir(fname), 0755)
		if err != nil {
			t.Fatal(err)
		}
		err = os.WriteFile(fname, []byte(content), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestTargets(t *testing.T) {
	dir := setupProject(t)
	exe := func(name string) string {
		if runtime.GOOS == "windows" {
			return name + ".exe"
		}
		return name
	}
	for _, tc := range []struct {
		name    string
		members bool
		want    [][]string
	}{
		{
			name: "count",
			want: [][]string{
				{"Root", "Role", "Output", "Members", "Relink"},
				{"src/main.c", "binary", "bin/debug/" + exe("app"), "2", "yes"},
				{"src/tool.c", "binary", "bin/debug/" + exe("tool"), "1", "yes"},
			},
		},
		{
			name:    "members",
			members: true,
			want: [][]string{
				{"Root", "Role", "Output", "Members", "Relink"},
				{"src/main.c", "binary", "bin/debug/" + exe("app"), "src/main.c", "src/util.c", "yes"},
				{"src/tool.c", "binary", "bin/debug/" + exe("tool"), "src/tool.c", "yes"},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := &targetsRun{w: &buf, caps: linuxCaps, members: tc.members}
			c.project.Dir = dir
			err := c.run(context.Background())
			if err != nil {
				t.Fatalf("targets=%v; want nil err", err)
			}
			var got [][]string
			for _, line := range strings.Split(buf.String(), "\n") {
				if fields := strings.Fields(line); len(fields) > 0 {
					got = append(got, fields)
				}
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("targets diff -want +got:\n%s", diff)
			}
		})
	}
}

func TestDeps(t *testing.T) {
	dir := setupProject(t)
	for _, tc := range []struct {
		fname string
		want  fileDeps
	}{
		{
			fname: "src/util.h",
			want: fileDeps{
				Path:           "src/util.h",
				Kind:           "header",
				Includes:       []string{},
				Includers:      []string{"src/main.c", "src/util.c"},
				Units:          []string{"src/util.c"},
				DependentUnits: []string{"src/main.c", "src/util.c"},
				Prototypes:     []string{"int util(void)"},
			},
		},
		{
			fname: "src/main.c",
			want: fileDeps{
				Path:         "src/main.c",
				Kind:         "unit",
				Role:         "binary",
				Name:         "app",
				DeclaresMain: true,
				Includes:     []string{"src/util.h"},
				Includers:    []string{},
				Prototypes:   []string{"int main(void)"},
			},
		},
	} {
		t.Run(tc.fname, func(t *testing.T) {
			var buf bytes.Buffer
			c := &depsRun{w: &buf, caps: linuxCaps}
			c.project.Dir = dir
			err := c.run(context.Background(), []string{filepath.Join(dir, filepath.FromSlash(tc.fname))})
			if err != nil {
				t.Fatalf("deps=%v; want nil err", err)
			}
			var got fileDeps
			err = json.Unmarshal(buf.Bytes(), &got)
			if err != nil {
				t.Fatalf("json.Unmarshal=%v; want nil err\n%s", err, buf.String())
			}
			if got.Digest == "" {
				t.Errorf("digest is empty")
			}
			got.Digest = ""
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("deps diff -want +got:\n%s", diff)
			}
		})
	}
}

func TestDepsNotSource(t *testing.T) {
	dir := setupProject(t)
	c := &depsRun{w: &bytes.Buffer{}, caps: linuxCaps}
	c.project.Dir = dir
	err := c.run(context.Background(), []string{filepath.Join(dir, "kiln.toml")})
	if err == nil {
		t.Errorf("deps(kiln.toml)=nil; want error")
	}
}
