// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package help provides help subcommand.
package help

import (
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/maruel/subcommands"
)

// topics are help pages that are not commands.
var topics = map[string]string{
	"annotations": `Link roles are declared by single-line comments in translation units.

  //@bin [name]       link this unit into a binary, named after the file
                      unless name is given.
  //@lib [name]       link this unit into a shared library lib<name>.
  //@import a, b      link libraries a and b into this unit's output, in
                      addition to what its headers imply.

A unit that defines main without a role marker is linked as a binary.
Other units are linked into any root whose headers declare something
they define.
`,
	"config": `A project is described by kiln.toml (or kiln.yaml) at its root.

  [package]           name, cc, cxx, std, cxx_std, sources, includes,
                      binaries, objects
  [profile.<name>]    cflags and ldflags; debug and release are built in
  [libraries.<name>]  libs, dirs, includes, pkg_config for //@import
  [dependencies.<n>]  path of another kiln project built first
  [os.<os>], [arch.<arch>], [feature.<cpu feature>]
                      overlays applied when the host matches

${VAR} in the file is expanded from the environment, and .env in the
working directory is loaded first. {{os}}, {{arch}} and {{family}} in
paths are replaced by the host's values.
`,
}

// Cmd returns the Command for the `help` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "help [<command>|<topic>|-advanced]",
		ShortDesc: "prints help about a command or topic",
		LongDesc:  "Prints commands and globally-available flags, help about a specific command, or a topic.\nTopics: " + strings.Join(topicNames(), ", ") + ".",
		CommandRun: func() subcommands.CommandRun {
			ret := &helpCmdRun{}
			ret.Flags.BoolVar(&ret.advanced, "advanced", false, "show advanced commands")
			return ret
		},
	}
}

type helpCmdRun struct {
	subcommands.CommandRunBase
	advanced bool
}

func (h *helpCmdRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	switch {
	case len(args) == 0:
		subcommands.Usage(a.GetOut(), a, h.advanced)
		printTopics(a.GetOut())
		fmt.Fprintln(a.GetOut(), "Common flags accepted by all commands:")
		flag.CommandLine.SetOutput(a.GetOut())
		flag.PrintDefaults()
		return 0
	case len(args) == 1 && topics[args[0]] != "":
		fmt.Fprint(a.GetOut(), topics[args[0]])
		return 0
	}
	return subcommands.CmdHelp.CommandRun().Run(a, args, env)
}

func topicNames() []string {
	var names []string
	for name := range topics {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func printTopics(w io.Writer) {
	fmt.Fprintln(w, "Help topics:")
	for _, name := range topicNames() {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintln(w)
}
