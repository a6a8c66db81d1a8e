// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
)

func TestRelevant(t *testing.T) {
	for _, tc := range []struct {
		ev   fsnotify.Event
		want bool
	}{
		{ev: fsnotify.Event{Name: "/p/src/a.c", Op: fsnotify.Write}, want: true},
		{ev: fsnotify.Event{Name: "/p/src/a.hpp", Op: fsnotify.Create}, want: true},
		{ev: fsnotify.Event{Name: "/p/src/a.cc", Op: fsnotify.Remove}, want: true},
		{ev: fsnotify.Event{Name: "/p/src/a.h", Op: fsnotify.Rename}, want: true},
		{ev: fsnotify.Event{Name: "/p/src/a.c", Op: fsnotify.Chmod}, want: false},
		{ev: fsnotify.Event{Name: "/p/kiln.toml", Op: fsnotify.Write}, want: true},
		{ev: fsnotify.Event{Name: "/p/.env", Op: fsnotify.Write}, want: true},
		{ev: fsnotify.Event{Name: "/p/src/.a.c.swp", Op: fsnotify.Write}, want: false},
		{ev: fsnotify.Event{Name: "/p/README.md", Op: fsnotify.Write}, want: false},
		{ev: fsnotify.Event{Name: "/p/obj/debug/0123abcd", Op: fsnotify.Create}, want: false},
	} {
		if got := relevant(tc.ev); got != tc.want {
			t.Errorf("relevant(%v)=%t; want %t", tc.ev, got, tc.want)
		}
	}
}

func mkdirs(t *testing.T, dir string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		err := os.MkdirAll(filepath.Join(dir, filepath.FromSlash(d)), 0755)
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestAddTree(t *testing.T) {
	dir := t.TempDir()
	mkdirs(t, dir, "src/sub", "include", ".kiln", ".git/objects", "obj/debug")
	w, err := fsnotify.NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	obj := filepath.Join(dir, "obj")
	n, err := addTree(w, dir, func(path string) bool { return path == obj })
	if err != nil {
		t.Fatalf("addTree=%v; want nil err", err)
	}
	if n != 4 {
		t.Errorf("addTree=%d; want 4", n)
	}
	got := w.WatchList()
	slices.Sort(got)
	want := []string{
		dir,
		filepath.Join(dir, "include"),
		filepath.Join(dir, "src"),
		filepath.Join(dir, "src", "sub"),
	}
	slices.Sort(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WatchList diff -want +got:\n%s", diff)
	}
}

func TestWaitChange(t *testing.T) {
	dir := t.TempDir()
	mkdirs(t, dir, "src")
	w, err := fsnotify.NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	_, err = addTree(w, dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	src := filepath.Join(dir, "src", "a.c")
	go func() {
		for _, f := range []string{filepath.Join(dir, "notes.txt"), src} {
			err := os.WriteFile(f, []byte("int a;\n"), 0644)
			if err != nil {
				t.Error(err)
			}
		}
	}()
	changed, err := waitChange(ctx, w, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("waitChange=%v; want nil err", err)
	}
	if diff := cmp.Diff([]string{src}, changed); diff != "" {
		t.Errorf("waitChange diff -want +got:\n%s", diff)
	}
}

func TestWaitChangeCanceled(t *testing.T) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = waitChange(ctx, w, time.Second, nil)
	if err != context.Canceled {
		t.Errorf("waitChange=%v; want %v", err, context.Canceled)
	}
}
