// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"github.com/kilnbuild/kiln/build/buildconfig"
	"github.com/kilnbuild/kiln/o11y/clog"
	"github.com/kilnbuild/kiln/subcmd/buildcmd"
	"github.com/kilnbuild/kiln/subcmd/clean"
	"github.com/kilnbuild/kiln/subcmd/help"
	"github.com/kilnbuild/kiln/subcmd/initcmd"
	"github.com/kilnbuild/kiln/subcmd/query"
	"github.com/kilnbuild/kiln/subcmd/run"
	"github.com/kilnbuild/kiln/subcmd/version"
	"github.com/kilnbuild/kiln/subcmd/watch"
	"github.com/kilnbuild/kiln/ui"
)

// Kiln is an incremental build tool for C/C++ projects.

const kilnVersion = "kiln v0.4.0"

var logLevel = flag.String("log_level", "warn", `log level: "debug", "info", "warn", "error" or "fatal"`)

func main() {
	os.Exit(kilnMain(os.Args[1:]))
}

func getApplication(caps buildconfig.Capabilities) *cli.Application {
	return &cli.Application{
		Name:  "kiln",
		Title: "incremental build tool for C/C++ projects",
		Context: func(ctx context.Context) context.Context {
			return clog.NewContext(ctx, log.Default())
		},
		Commands: []*subcommands.Command{
			buildcmd.Cmd(caps),
			run.Cmd(caps),
			watch.Cmd(caps),
			clean.Cmd(caps),
			initcmd.Cmd(),
			query.TargetsCmd(caps),
			query.DepsCmd(caps),

			help.Cmd(),
			version.Cmd(kilnVersion),
		},
	}
}

func kilnMain(args []string) int {
	flag.CommandLine.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of kiln:\n")
		fmt.Fprintf(out, "global flags:\n")
		flag.PrintDefaults()
	}
	err := flag.CommandLine.Parse(args)
	if err != nil {
		return 2
	}
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log_level: %v\n", err)
		return 2
	}
	log.SetLevel(level)
	log.SetReportTimestamp(true)
	log.SetOutput(os.Stderr)

	ui.Init()
	defer ui.Restore()

	// Print a stack trace when a panic occurs.
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Fatalf("panic: %v\n%s", r, buf)
		}
	}()

	// Print build information to the log.
	buildinfo, ok := debug.ReadBuildInfo()
	if ok {
		log.Infof("buildinfo: path=%q", buildinfo.Path)
		log.Infof("main module: %s %s", version.ModuleInfo(&buildinfo.Main), version.VCSInfo(buildinfo))
		for _, m := range buildinfo.Deps {
			log.Debugf("deps module: %s", version.ModuleInfo(m))
		}
		for _, bs := range buildinfo.Settings {
			log.Debugf("build %s=%s", bs.Key, bs.Value)
		}
	}

	caps := buildconfig.DetectCapabilities()
	log.Infof("host %s", caps)
	return subcommands.Run(getApplication(caps), flag.Args())
}
