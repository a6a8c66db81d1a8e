// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package query

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/maruel/subcommands"
	"github.com/olekukonko/tablewriter"

	"go.chromium.org/luci/common/cli"

	"github.com/kilnbuild/kiln/build/buildconfig"
	"github.com/kilnbuild/kiln/subcmd/buildcmd"
)

const targetsUsage = `list link units of the project

 $ kiln targets [-C <dir>] [-profile <profile>] [-members]

prints a table of link units: the root source file, its role (binary or
library), its output, the number of members (or members with -members),
and whether it needs relink by the changes since the last build.
`

// TargetsCmd returns the Command for the `targets` subcommand provided by this package.
func TargetsCmd(caps buildconfig.Capabilities) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "targets [-C <dir>] [-profile <profile>] [-members]",
		ShortDesc: "list link units of the project",
		LongDesc:  targetsUsage,
		CommandRun: func() subcommands.CommandRun {
			c := &targetsRun{w: os.Stdout, caps: caps}
			c.init()
			return c
		},
	}
}

type targetsRun struct {
	subcommands.CommandRunBase
	w    io.Writer
	caps buildconfig.Capabilities

	project projectFlags
	members bool
}

func (c *targetsRun) init() {
	c.project.register(&c.Flags)
	c.Flags.BoolVar(&c.members, "members", false, "list members instead of their number")
}

func (c *targetsRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	if len(args) != 0 {
		fmt.Fprintf(a.GetErr(), "%s: position arguments not expected\n", a.GetName())
		return 2
	}
	err := c.run(ctx)
	if err != nil {
		var errFlag buildcmd.FlagError
		switch {
		case errors.Is(err, flag.ErrHelp), errors.As(err, &errFlag):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, targetsUsage)
			return 2
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *targetsRun) run(ctx context.Context) error {
	b, p, err := c.project.plan(ctx, c.caps)
	if err != nil {
		return err
	}
	dir := b.Dir()
	table := tablewriter.NewWriter(c.w)
	table.SetHeader([]string{"Root", "Role", "Output", "Members", "Relink"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	for _, u := range p.Units {
		members := strconv.Itoa(len(u.Members))
		if c.members {
			members = strings.Join(relPaths(dir, u.Members), " ")
		}
		relink := "-"
		if u.NeedsRelink {
			relink = "yes"
		}
		table.Append([]string{
			relPath(dir, u.Root),
			u.Role.String(),
			relPath(dir, b.OutputPath(u)),
			members,
			relink,
		})
	}
	table.Render()
	return nil
}
