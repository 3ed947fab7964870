// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package version provides version subcommand.
package version

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/maruel/subcommands"
)

func Cmd(ver string) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "version",
		ShortDesc: "prints the executable version",
		LongDesc:  "Prints the executable version and the revision it was built from.",
		CommandRun: func() subcommands.CommandRun {
			return &versionRun{version: ver}
		},
	}
}

type versionRun struct {
	subcommands.CommandRunBase
	version string
}

func (c *versionRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	if len(args) != 0 {
		fmt.Fprintf(a.GetErr(), "%s: position arguments not expected\n", a.GetName())
		return 1
	}
	fmt.Fprintln(a.GetOut(), c.version)
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return 0
	}
	printBuildInfo(a.GetOut(), buildInfo)
	return 0
}

func printBuildInfo(w io.Writer, buildInfo *debug.BuildInfo) {
	if buildInfo.GoVersion != "" {
		fmt.Fprintf(w, "go\t%s\n", buildInfo.GoVersion)
	}
	for _, s := range buildInfo.Settings {
		if strings.HasPrefix(s.Key, "vcs.") {
			fmt.Fprintf(w, "build\t%s=%s\n", s.Key, s.Value)
		}
	}
}
