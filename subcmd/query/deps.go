// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package query

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"github.com/kilnbuild/kiln/build/buildconfig"
	"github.com/kilnbuild/kiln/scandeps"
	"github.com/kilnbuild/kiln/subcmd/buildcmd"
)

const depsUsage = `show dependencies of a source file

 $ kiln deps [-C <dir>] <file>

prints JSON of the file's direct includes, its direct includers,
the translation units linked by its prototypes (for headers), and
its prototypes. <file> is relative to the current directory.
`

// DepsCmd returns the Command for the `deps` subcommand provided by this package.
func DepsCmd(caps buildconfig.Capabilities) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "deps [-C <dir>] <file>",
		ShortDesc: "show dependencies of a source file",
		LongDesc:  depsUsage,
		CommandRun: func() subcommands.CommandRun {
			c := &depsRun{w: os.Stdout, caps: caps}
			c.init()
			return c
		},
	}
}

type depsRun struct {
	subcommands.CommandRunBase
	w    io.Writer
	caps buildconfig.Capabilities

	project projectFlags
}

func (c *depsRun) init() {
	c.project.register(&c.Flags)
}

func (c *depsRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, args)
	if err != nil {
		var errFlag buildcmd.FlagError
		switch {
		case errors.Is(err, flag.ErrHelp), errors.As(err, &errFlag):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, depsUsage)
			return 2
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// fileDeps is dependency information of a file.
type fileDeps struct {
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Digest string `json:"digest"`

	Role         string   `json:"role,omitempty"`
	Name         string   `json:"name,omitempty"`
	Imports      []string `json:"imports,omitempty"`
	DeclaresMain bool     `json:"declares_main,omitempty"`

	Includes  []string `json:"includes"`
	Includers []string `json:"includers"`
	// Units are translation units that link with the header's declarations.
	Units []string `json:"units,omitempty"`
	// DependentUnits are translation units that include the header transitively.
	DependentUnits []string `json:"dependent_units,omitempty"`

	Prototypes []string `json:"prototypes"`
}

func (c *depsRun) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("want one file, got %d: %w", len(args), flag.ErrHelp)
	}
	fname, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	b, p, err := c.project.plan(ctx, c.caps)
	if err != nil {
		return err
	}
	g := p.Graph
	f, ok := g.Files[fname]
	if !ok {
		return fmt.Errorf("%s is not a source file of %s", args[0], b.Dir())
	}
	dir := b.Dir()
	d := fileDeps{
		Path:         relPath(dir, f.Path),
		Kind:         f.Kind.String(),
		Digest:       f.Digest.String(),
		Name:         f.Name,
		Imports:      f.Imports,
		DeclaresMain: f.DeclaresMain,
		Includes:     relPaths(dir, f.Includes),
		Includers:    []string{},
		Prototypes:   []string{},
	}
	if g.IsUnit(fname) && f.Role != scandeps.RoleNone {
		d.Role = f.Role.String()
	}
	if g.IsHeader(fname) {
		includers := append(slices.Clone(g.HeaderIncluders[fname]), g.HeaderUnits[fname]...)
		slices.Sort(includers)
		d.Includers = relPaths(dir, includers)
		d.Units = relPaths(dir, p.Edges.Units(fname))
		d.DependentUnits = relPaths(dir, g.DependentUnits(fname))
	}
	for _, sig := range g.Prototypes(fname).Signatures() {
		d.Prototypes = append(d.Prototypes, sig.Text)
	}
	enc := json.NewEncoder(c.w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
