// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package initcmd implements the subcommand `init` which creates a new project.
package initcmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/maruel/subcommands"

	"github.com/kilnbuild/kiln/build/buildconfig"
)

const initUsage = `create a new project.

 $ kiln init [-name <name>] [-lang c|c++] [<dir>]

creates kiln.toml, a hello world program in src/ and .gitignore
in <dir> (current directory if empty).
`

// Cmd returns the Command for the `init` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "init [-name <name>] [-lang c|c++] [<dir>]",
		ShortDesc: "create a new project",
		LongDesc:  initUsage,
		CommandRun: func() subcommands.CommandRun {
			r := &initCmdRun{}
			r.init()
			return r
		},
	}
}

type initCmdRun struct {
	subcommands.CommandRunBase
	name string
	lang string
}

func (c *initCmdRun) init() {
	c.Flags.StringVar(&c.name, "name", "", "package name. base name of the directory if empty")
	c.Flags.StringVar(&c.lang, "lang", "c", `language of the hello world program. "c" or "c++"`)
}

// Run runs the `init` subcommand.
func (c *initCmdRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	dir := "."
	switch len(args) {
	case 0:
	case 1:
		dir = args[0]
	default:
		fmt.Fprintf(a.GetErr(), "%s: too many arguments\n", a.GetName())
		return 2
	}
	created, err := Init(dir, c.name, c.lang)
	for _, fname := range created {
		fmt.Printf("created %s\n", fname)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

const configTemplate = `[package]
name = %q
# cc = "gcc"
# cxx = "g++"
# sources = ["src"]
# includes = ["include"]
# binaries = "bin"
# objects = "obj"

# [profile.debug]
# cflags = ["-O0", "-g", "-Wall"]

# [profile.release]
# cflags = ["-O2"]
# ldflags = ["-s"]
`

const helloC = `#include <stdio.h>

int main(void) {
    printf("Hello, world!\n");
    return 0;
}
`

const helloCXX = `#include <iostream>

int main() {
    std::cout << "Hello, world!" << std::endl;
    return 0;
}
`

const gitignore = `/.kiln
/obj
/bin
`

var invalidNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Init creates a new project in dir and returns the created files.
// It fails if dir already has a config file.
func Init(dir, name, lang string) ([]string, error) {
	var main, src string
	switch lang {
	case "c":
		main, src = "main.c", helloC
	case "c++", "cxx", "cpp":
		main, src = "main.cc", helloCXX
	default:
		return nil, fmt.Errorf("unknown language %q", lang)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if fname, err := buildconfig.Find(abs); err == nil {
		return nil, fmt.Errorf("%s already exists", fname)
	}
	if name == "" {
		name = invalidNameChars.ReplaceAllString(filepath.Base(abs), "_")
		name = strings.Trim(name, "_.")
		if name == "" {
			name = "main"
		}
	}
	var created []string
	for _, f := range []struct {
		fname   string
		content string
	}{
		{fname: buildconfig.Filenames[0], content: fmt.Sprintf(configTemplate, name)},
		{fname: filepath.Join("src", main), content: src},
		{fname: ".gitignore", content: gitignore},
	} {
		fname := filepath.Join(abs, f.fname)
		if _, err := os.Stat(fname); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return created, err
		}
		err := os.MkdirAll(filepath.Dir(fname), 0755)
		if err != nil {
			return created, err
		}
		err = os.WriteFile(fname, []byte(f.content), 0644)
		if err != nil {
			return created, err
		}
		created = append(created, filepath.ToSlash(f.fname))
	}
	return created, nil
}
