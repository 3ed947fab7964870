// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package query is query subcommand to inspect build.ninja as
// ninja2soong sees it.
package query

import (
	"context"
	"os"
	"path/filepath"

	"github.com/maruel/subcommands"

	"go.chromium.org/infra/build/ninja2soong/toolsupport/ninjautil"
)

func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "query [-C <dir>] ...",
		ShortDesc: "query ninja build graph",
		LongDesc:  "query ninja build graph.",
		CommandRun: func() subcommands.CommandRun {
			c := &run{
				app: &subcommands.DefaultApplication{
					Name:  "ninja2soong query",
					Title: "tool to access ninja build graph",
					Commands: []*subcommands.Command{
						cmdRule(),
						cmdTargets(),
						subcommands.CmdHelp,
					},
				},
			}
			c.Flags.Usage = func() {
				subcommands.Usage(os.Stderr, c.app, true)
			}
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase
	app *subcommands.DefaultApplication
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	return subcommands.Run(c.app, args)
}

// loadGraph loads fname in dir.
func loadGraph(ctx context.Context, dir, fname string) (*ninjautil.Graph, error) {
	edges, err := ninjautil.Load(ctx, os.DirFS(dir), filepath.ToSlash(fname))
	if err != nil {
		return nil, err
	}
	return ninjautil.NewGraph(edges)
}
