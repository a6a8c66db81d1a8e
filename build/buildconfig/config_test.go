// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kilnbuild/kiln/toolsupport/gccutil"
)

var linuxCaps = Capabilities{
	OS:       "linux",
	Family:   "unix",
	Arch:     "amd64",
	Features: map[string]bool{"avx2": true, "sse4.2": true},
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	fname := filepath.Join(dir, name)
	err := os.WriteFile(fname, []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}
	return fname
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CFLAGS", "")
	t.Setenv("LDFLAGS", "")
	ctx := context.Background()
	fname := writeConfig(t, "kiln.toml", "")
	c, err := Load(ctx, fname, linuxCaps)
	if err != nil {
		t.Fatalf("Load=%v; want nil err", err)
	}
	dir := filepath.Dir(fname)
	if got, want := c.Package.Name, filepath.Base(dir); got != want {
		t.Errorf("Name=%q; want %q", got, want)
	}
	if got, want := c.Compiler("a.c"), "gcc"; got != want {
		t.Errorf("Compiler(a.c)=%q; want %q", got, want)
	}
	if got, want := c.Compiler("a.cc"), "g++"; got != want {
		t.Errorf("Compiler(a.cc)=%q; want %q", got, want)
	}
	if diff := cmp.Diff([]string{filepath.Join(dir, "src")}, c.SourceDirs()); diff != "" {
		t.Errorf("SourceDirs diff -want +got:\n%s", diff)
	}
	if diff := cmp.Diff([]string{filepath.Join(dir, "include")}, c.IncludeDirs()); diff != "" {
		t.Errorf("IncludeDirs diff -want +got:\n%s", diff)
	}
	if got, want := c.BinariesDir(Release), filepath.Join(dir, "bin", "release"); got != want {
		t.Errorf("BinariesDir=%q; want %q", got, want)
	}
	if got, want := c.ObjectsDir(Debug), filepath.Join(dir, "obj", "debug"); got != want {
		t.Errorf("ObjectsDir=%q; want %q", got, want)
	}
	debug, err := c.Profile(Debug)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Profile{CFlags: []string{"-O0", "-g", "-Wall"}}, debug); diff != "" {
		t.Errorf("debug profile diff -want +got:\n%s", diff)
	}
	release, err := c.Profile(Release)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Profile{CFlags: []string{"-O2"}, LDFlags: []string{"-s"}}, release); diff != "" {
		t.Errorf("release profile diff -want +got:\n%s", diff)
	}
	if _, err := c.Profile("asan"); err == nil {
		t.Errorf("Profile(asan)=_, nil; want error")
	}
	if c.Digest.IsZero() {
		t.Errorf("Digest is zero")
	}
}

func TestLoadTOML(t *testing.T) {
	t.Setenv("CFLAGS", "-DFROM_ENV")
	t.Setenv("LDFLAGS", "")
	t.Setenv("KILN_TEST_CC", "clang")
	ctx := context.Background()
	fname := writeConfig(t, "kiln.toml", `
[package]
name = "demo"
cc = "${KILN_TEST_CC}"
std = "c11"
cxx_std = "c++17"
sources = ["src", "gen/{{os}}"]
includes = ["include"]

[profile.debug]
cflags = ["-O0"]

[libraries.math]
libs = ["m"]

[libraries.core]
libs = ["core"]
dirs = ["vendor/{{arch}}/lib"]
includes = ["vendor/include"]

[dependencies.base]
path = "../base"

[os.unix]
cxx = "clang++"
includes = ["include/{{family}}"]

[os.windows]
cc = "cl"

[arch.x86_64]
cflags = ["-m64"]

[feature.avx2]
cflags = ["-mavx2"]

[feature.avx512f]
cflags = ["-mavx512f"]
`)
	c, err := Load(ctx, fname, linuxCaps)
	if err != nil {
		t.Fatalf("Load=%v; want nil err", err)
	}
	dir := filepath.Dir(fname)
	if got, want := c.Package.CC, "clang"; got != want {
		t.Errorf("CC=%q; want %q", got, want)
	}
	if got, want := c.Package.CXX, "clang++"; got != want {
		t.Errorf("CXX=%q; want %q", got, want)
	}
	if got, want := c.Std("a.c"), "c11"; got != want {
		t.Errorf("Std(a.c)=%q; want %q", got, want)
	}
	if got, want := c.Std("a.cpp"), "c++17"; got != want {
		t.Errorf("Std(a.cpp)=%q; want %q", got, want)
	}
	if diff := cmp.Diff([]string{filepath.Join(dir, "src"), filepath.Join(dir, "gen", "linux")}, c.SourceDirs()); diff != "" {
		t.Errorf("SourceDirs diff -want +got:\n%s", diff)
	}
	wantIncludes := []string{
		filepath.Join(dir, "include"),
		filepath.Join(dir, "include", "unix"),
		filepath.Join(dir, "vendor", "include"),
	}
	if diff := cmp.Diff(wantIncludes, c.IncludeDirs()); diff != "" {
		t.Errorf("IncludeDirs diff -want +got:\n%s", diff)
	}
	debug, err := c.Profile(Debug)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"-O0", "-m64", "-mavx2", "-DFROM_ENV"}, debug.CFlags); diff != "" {
		t.Errorf("debug cflags diff -want +got:\n%s", diff)
	}
	release, err := c.Profile(Release)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"-O2", "-m64", "-mavx2", "-DFROM_ENV"}, release.CFlags); diff != "" {
		t.Errorf("release cflags diff -want +got:\n%s", diff)
	}
	lib, ok := c.LinkLibrary("core")
	if !ok {
		t.Fatalf("LinkLibrary(core)=_, false")
	}
	if diff := cmp.Diff(gccutil.Library{Libs: []string{"core"}, Dirs: []string{filepath.Join(dir, "vendor", "amd64", "lib")}}, lib); diff != "" {
		t.Errorf("LinkLibrary(core) diff -want +got:\n%s", diff)
	}
	if _, ok := c.LinkLibrary("missing"); ok {
		t.Errorf("LinkLibrary(missing)=_, true")
	}
	if got, want := c.DependencyDir("base"), filepath.Join(filepath.Dir(dir), "base"); got != want {
		t.Errorf("DependencyDir(base)=%q; want %q", got, want)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("CFLAGS", "")
	t.Setenv("LDFLAGS", "")
	ctx := context.Background()
	fname := writeConfig(t, "kiln.yaml", `
package:
  name: demo
  cxx: clang++
  binaries: out/bin
profile:
  asan:
    cflags: ["-O1", "-fsanitize=address"]
    ldflags: ["-fsanitize=address"]
`)
	c, err := Load(ctx, fname, linuxCaps)
	if err != nil {
		t.Fatalf("Load=%v; want nil err", err)
	}
	if got, want := c.Package.CXX, "clang++"; got != want {
		t.Errorf("CXX=%q; want %q", got, want)
	}
	asan, err := c.Profile("asan")
	if err != nil {
		t.Fatalf("Profile(asan)=_, %v", err)
	}
	if diff := cmp.Diff([]string{"-fsanitize=address"}, asan.LDFlags); diff != "" {
		t.Errorf("asan ldflags diff -want +got:\n%s", diff)
	}
	if _, err := c.Profile(Debug); err != nil {
		t.Errorf("Profile(debug)=_, %v; want default profile", err)
	}
	if got, want := c.BinariesDir("asan"), filepath.Join(filepath.Dir(fname), "out", "bin", "asan"); got != want {
		t.Errorf("BinariesDir=%q; want %q", got, want)
	}
}

func TestLoadDigest(t *testing.T) {
	t.Setenv("LDFLAGS", "")
	ctx := context.Background()
	fname := writeConfig(t, "kiln.toml", "[package]\nname = \"demo\"\n")
	t.Setenv("CFLAGS", "")
	c1, err := Load(ctx, fname, linuxCaps)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := Load(ctx, fname, linuxCaps)
	if err != nil {
		t.Fatal(err)
	}
	if c1.Digest != c2.Digest {
		t.Errorf("Digest changed without change: %s != %s", c1.Digest, c2.Digest)
	}
	t.Setenv("CFLAGS", "-DX")
	c3, err := Load(ctx, fname, linuxCaps)
	if err != nil {
		t.Fatal(err)
	}
	if c1.Digest == c3.Digest {
		t.Errorf("Digest not changed by $CFLAGS")
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("CFLAGS", "")
	t.Setenv("LDFLAGS", "")
	ctx := context.Background()
	for _, tc := range []struct {
		name    string
		fname   string
		content string
		wantErr string
	}{
		{
			name:    "bad_toml",
			fname:   "kiln.toml",
			content: "[package\n",
			wantErr: "failed to parse",
		},
		{
			name:    "empty_source",
			fname:   "kiln.toml",
			content: "[package]\nsources = [\"\"]\n",
			wantErr: "package",
		},
		{
			name:    "bad_profile_name",
			fname:   "kiln.toml",
			content: "[profile.\"bad name\"]\ncflags = []\n",
			wantErr: "profile",
		},
		{
			name:    "dependency_without_path",
			fname:   "kiln.yaml",
			content: "dependencies:\n  base: {}\n",
			wantErr: "dependencies.base",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fname := writeConfig(t, tc.fname, tc.content)
			_, err := Load(ctx, fname, linuxCaps)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Load=%v; want error containing %q", err, tc.wantErr)
			}
		})
	}

	_, err := Load(ctx, filepath.Join(t.TempDir(), "kiln.toml"), linuxCaps)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing)=%v; want ErrNotExist", err)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	_, err := Find(dir)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Find(empty)=_, %v; want ErrNotExist", err)
	}
	for _, name := range []string{"kiln.yaml", "kiln.toml"} {
		err := os.WriteFile(filepath.Join(dir, name), nil, 0644)
		if err != nil {
			t.Fatal(err)
		}
	}
	got, err := Find(dir)
	if err != nil || got != filepath.Join(dir, "kiln.toml") {
		t.Errorf("Find=%q, %v; want kiln.toml", got, err)
	}
}

func TestPkgConfig(t *testing.T) {
	t.Setenv("CFLAGS", "")
	t.Setenv("LDFLAGS", "")
	orig := pkgConfig
	t.Cleanup(func() { pkgConfig = orig })
	var calls [][]string
	pkgConfig = func(ctx context.Context, args ...string) (string, error) {
		calls = append(calls, args)
		if args[0] == "--atleast-version=9.0" {
			return "", errors.New("exit status 1")
		}
		return "-I/usr/include/glib-2.0 -L/opt/glib/lib -lglib-2.0\n", nil
	}
	ctx := context.Background()
	fname := writeConfig(t, "kiln.toml", `
[libraries.glib]
libs = ["extra"]
pkg_config = { "glib-2.0" = ">=2.0" }

[libraries.future]
libs = ["future"]
pkg_config = { "glib-2.0" = ">=9.0" }
`)
	c, err := Load(ctx, fname, linuxCaps)
	if err != nil {
		t.Fatalf("Load=%v; want nil err", err)
	}
	want := Library{
		Libs:      []string{"glib-2.0", "extra"},
		Dirs:      []string{"/opt/glib/lib"},
		Includes:  []string{"/usr/include/glib-2.0"},
		PkgConfig: map[string]string{"glib-2.0": ">=2.0"},
	}
	if diff := cmp.Diff(want, c.Libraries["glib"]); diff != "" {
		t.Errorf("glib diff -want +got:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"future"}, c.Libraries["future"].Libs); diff != "" {
		t.Errorf("future libs diff -want +got:\n%s", diff)
	}
	wantCalls := [][]string{
		{"--atleast-version=9.0", "glib-2.0"},
		{"--atleast-version=2.0", "glib-2.0"},
		{"--cflags", "--libs", "glib-2.0"},
	}
	if diff := cmp.Diff(wantCalls, calls); diff != "" {
		t.Errorf("pkg-config calls diff -want +got:\n%s", diff)
	}
}

func TestVersionArgs(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{in: "", want: nil},
		{in: ">=1.2", want: []string{"--atleast-version=1.2"}},
		{in: "=1.2.3", want: []string{"--exact-version=1.2.3"}},
		{in: "1.0..2.0", want: []string{"--atleast-version=1.0", "--max-version=2.0"}},
		{in: "~1", wantErr: true},
	} {
		got, err := versionArgs(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("versionArgs(%q)=_, %v; want err %t", tc.in, err, tc.wantErr)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("versionArgs(%q) diff -want +got:\n%s", tc.in, diff)
		}
	}
}

func TestCapabilities(t *testing.T) {
	c := linuxCaps
	for _, tc := range []struct {
		name string
		got  bool
		want bool
	}{
		{"os linux", c.MatchOS("linux"), true},
		{"os unix", c.MatchOS("unix"), true},
		{"os Linux", c.MatchOS("Linux"), true},
		{"os windows", c.MatchOS("windows"), false},
		{"arch amd64", c.MatchArch("amd64"), true},
		{"arch x86_64", c.MatchArch("x86_64"), true},
		{"arch arm64", c.MatchArch("arm64"), false},
		{"feature AVX2", c.HasFeature("AVX2"), true},
		{"feature avx512f", c.HasFeature("avx512f"), false},
	} {
		if tc.got != tc.want {
			t.Errorf("%s=%t; want %t", tc.name, tc.got, tc.want)
		}
	}
	if got, want := c.String(), "os=linux family=unix arch=amd64 features=avx2,sse4.2"; got != want {
		t.Errorf("String()=%q; want %q", got, want)
	}
	host := DetectCapabilities()
	if host.OS == "" || host.Arch == "" || host.Family == "" {
		t.Errorf("DetectCapabilities()=%+v; want OS, Arch and Family", host)
	}
}
