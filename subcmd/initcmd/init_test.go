// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package initcmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kilnbuild/kiln/build/buildconfig"
)

func TestInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my project")
	created, err := Init(dir, "", "c")
	if err != nil {
		t.Fatalf("Init=%v; want nil err", err)
	}
	if diff := cmp.Diff([]string{"kiln.toml", "src/main.c", ".gitignore"}, created); diff != "" {
		t.Errorf("Init diff -want +got:\n%s", diff)
	}

	config, err := buildconfig.Load(context.Background(), filepath.Join(dir, "kiln.toml"), buildconfig.Capabilities{OS: "linux", Family: "unix", Arch: "amd64"})
	if err != nil {
		t.Fatalf("Load=%v; want nil err", err)
	}
	if got, want := config.Package.Name, "my_project"; got != want {
		t.Errorf("name=%q; want %q", got, want)
	}
	buf, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(buf), "/.kiln\n/obj\n/bin\n"; got != want {
		t.Errorf(".gitignore=%q; want %q", got, want)
	}

	_, err = Init(dir, "", "c")
	if err == nil {
		t.Errorf("Init in existing project=nil; want error")
	}
}

func TestInitKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.o\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	created, err := Init(dir, "hello", "c++")
	if err != nil {
		t.Fatalf("Init=%v; want nil err", err)
	}
	if diff := cmp.Diff([]string{"kiln.toml", "src/main.cc"}, created); diff != "" {
		t.Errorf("Init diff -want +got:\n%s", diff)
	}
	buf, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		t.Fatal(err)
	}
	if string(buf) != "*.o\n" {
		t.Errorf(".gitignore=%q; want unchanged", buf)
	}
}

func TestInitUnknownLanguage(t *testing.T) {
	_, err := Init(t.TempDir(), "", "rust")
	if err == nil {
		t.Errorf("Init(lang=rust)=nil; want error")
	}
}
