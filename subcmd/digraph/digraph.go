// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package digraph is digraph subcommand to show digraph of build.ninja
// for https://pkg.go.dev/golang.org/x/tools/cmd/digraph
package digraph

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/ninja2soong/toolsupport/ninjautil"
)

const usage = `show digraph

 $ ninja2soong digraph -C <dir> <targets>

prints directed graph for <targets> of build.ninja.
If <targets> is not given, it prints directed graph for the targets no
other rule depends on.
Each line contains zero or more targets, and the first target depends on
the rest of the targets on the same line.

This output can be passed to digraph command, installed by
 $ go install golang.org/x/tools/cmd/digraph@latest

See https://pkg.go.dev/golang.org/x/tools/cmd/digraph
for digraph command.
`

// Cmd returns the Command for the `digraph` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "digraph [-C <dir>] [<targets>...]",
		ShortDesc: "show digraph",
		LongDesc:  usage,
		Advanced:  true,
		CommandRun: func() subcommands.CommandRun {
			c := &run{w: os.Stdout}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase
	w io.Writer

	dir   string
	fname string
}

func (c *run) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "ninja running directory to find build.ninja")
	c.Flags.StringVar(&c.fname, "f", "build.ninja", "input build filename (relative to -C)")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, args)
	if err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context, args []string) error {
	edges, err := ninjautil.Load(ctx, os.DirFS(c.dir), c.fname)
	if err != nil {
		return err
	}
	graph, err := ninjautil.NewGraph(edges)
	if err != nil {
		return err
	}
	targets := args
	if len(targets) == 0 {
		roots, err := graph.Targets(nil)
		if err != nil {
			return err
		}
		for _, e := range roots {
			targets = append(targets, e.Outputs...)
		}
	}
	d := &digraph{
		w:     c.w,
		graph: graph,
		seen:  make(map[string]bool),
	}
	for _, t := range targets {
		err := d.Traverse(ctx, t)
		if err != nil {
			return err
		}
	}
	return nil
}

type digraph struct {
	w     io.Writer
	graph *ninjautil.Graph
	seen  map[string]bool
}

func (d *digraph) Traverse(ctx context.Context, target string) error {
	if d.seen[target] {
		return nil
	}
	d.seen[target] = true
	edge, ok := d.graph.Lookup(target)
	if !ok {
		fmt.Fprintf(d.w, "%s\n", target)
		return nil
	}
	var inputs []string
	for _, in := range edge.Deps() {
		err := d.Traverse(ctx, in)
		if err != nil {
			return err
		}
		inputs = append(inputs, in)
	}
	fmt.Fprintf(d.w, "%s %s\n", target, strings.Join(inputs, " "))
	return nil
}
