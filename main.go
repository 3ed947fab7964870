// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// ninja2soong translates build.ninja written by CMake, Meson or GN into
// Android.bp.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/maruel/subcommands"
	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"go.chromium.org/infra/build/ninja2soong/subcmd/digraph"
	"go.chromium.org/infra/build/ninja2soong/subcmd/generate"
	"go.chromium.org/infra/build/ninja2soong/subcmd/help"
	"go.chromium.org/infra/build/ninja2soong/subcmd/query"
	"go.chromium.org/infra/build/ninja2soong/subcmd/version"
)

const ninja2soongVersion = "ninja2soong v0.1.0"

var verbose bool

func main() {
	flag.BoolVar(&verbose, "v", false, "log debug messages")
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(out, "global flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	os.Exit(ninja2soongMain(flag.Args()))
}

func getApplication(ctx context.Context) *cli.Application {
	return &cli.Application{
		Name:  "ninja2soong",
		Title: "translates build.ninja into Android.bp",
		Context: func(context.Context) context.Context {
			return ctx
		},
		Commands: []*subcommands.Command{
			generate.Cmd(),
			query.Cmd(),
			digraph.Cmd(),

			help.Cmd(),
			version.Cmd(ninja2soongVersion),
		},
	}
}

func ninja2soongMain(args []string) (exitCode int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer signals.HandleInterrupt(cancel)()

	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	// Print a stack trace when a panic occurs.
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Errorf("panic: %v\n%s", r, buf)
			exitCode = 2
		}
	}()

	buildinfo, ok := debug.ReadBuildInfo()
	if ok {
		log.Debugf("main module: %s %s", moduleInfo(&buildinfo.Main), vcsInfo(buildinfo))
		for _, m := range buildinfo.Deps {
			log.Debugf("deps module: %s", moduleInfo(m))
		}
	}
	return subcommands.Run(getApplication(ctx), args)
}

func moduleInfo(m *debug.Module) string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("path:%s version:%s sum:%s replace:%s", m.Path, m.Version, m.Sum, moduleInfo(m.Replace))
}

func vcsInfo(buildinfo *debug.BuildInfo) string {
	m := make(map[string]string)
	for _, bs := range buildinfo.Settings {
		if strings.HasPrefix(bs.Key, "vcs.") {
			m[bs.Key] = bs.Value
		}
	}
	return fmt.Sprintf("vcs[revision=%s time=%s modified=%s]", m["vcs.revision"], m["vcs.time"], m["vcs.modified"])
}
