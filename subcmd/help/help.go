// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package help provides the help subcommand and its topics.
package help

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/maruel/subcommands"

	"go.chromium.org/infra/build/ninja2soong/build/buildconfig"
	"go.chromium.org/infra/build/ninja2soong/generator"
)

// topics are help pages that are not commands.
var topics = map[string]func(io.Writer){
	"generators": writeGenerators,
	"hooks":      writeHooks,
}

// Cmd returns the Command for the `help` subcommand.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "help [<command>|<topic>|-advanced]",
		ShortDesc: "prints help about a command or a topic",
		LongDesc: `Prints commands and global flags, help about a command, or a topic.

Topics:
  generators  build systems whose build.ninja can be translated
  hooks       policy hooks a project file may define`,
		CommandRun: func() subcommands.CommandRun {
			r := &helpRun{}
			r.Flags.BoolVar(&r.advanced, "advanced", false, "show advanced commands")
			return r
		},
	}
}

type helpRun struct {
	subcommands.CommandRunBase
	advanced bool
}

func (h *helpRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	w := a.GetOut()
	switch {
	case len(args) == 0:
		subcommands.Usage(w, a, h.advanced)
		fmt.Fprintln(w, "Global flags:")
		writeFlags(w, flag.CommandLine)
		fmt.Fprintf(w, "\nTopics: %s\n", strings.Join(topicNames(), ", "))
		return 0
	case len(args) == 1 && topics[args[0]] != nil:
		topics[args[0]](w)
		return 0
	}
	return subcommands.CmdHelp.CommandRun().Run(a, args, env)
}

func topicNames() []string {
	var names []string
	for name := range topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeFlags(w io.Writer, fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		fmt.Fprintf(w, "  -%s\t%s\n", f.Name, f.Usage)
	})
}

func writeGenerators(w io.Writer) {
	fmt.Fprintln(w, "Generators, set with `generator` in the project file:")
	for _, g := range []struct {
		name generator.Name
		desc string
	}{
		{generator.CMakeName, "CMake's Ninja generator"},
		{generator.MesonName, "Meson's ninja backend"},
		{generator.GNName, "GN, one .ninja file per target"},
	} {
		fmt.Fprintf(w, "  %-6s %s\n", g.name, g.desc)
	}
}

func writeHooks(w io.Writer) {
	fmt.Fprintln(w, "Policy hooks, called with ctx as first argument:")
	for _, name := range buildconfig.HookNames() {
		fmt.Fprintf(w, "  %s\n", name)
	}
}
