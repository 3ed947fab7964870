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
	"path/filepath"
	"strings"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/ninja2soong/generator"
	"go.chromium.org/infra/build/ninja2soong/toolsupport/ninjautil"
)

const ruleUsage = `query build rule

 $ ninja2soong query rule -C <dir> [-generator <name>] <targets>

prints ninja build rules for <targets>.
With -generator, it also prints how the rule is decoded for the
generator (cmake, meson or gn).
`

// cmdRule returns the Command for the `rule` subcommand provided by this package.
func cmdRule() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "rule [-C <dir>] [-generator <name>] [<targets>...]",
		ShortDesc: "query build step rule",
		LongDesc:  ruleUsage,
		CommandRun: func() subcommands.CommandRun {
			c := &ruleRun{w: os.Stdout}
			c.init()
			return c
		},
	}
}

type ruleRun struct {
	subcommands.CommandRunBase
	w io.Writer

	dir       string
	fname     string
	binding   string
	generator string
}

func (c *ruleRun) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "ninja running directory to find build.ninja")
	c.Flags.StringVar(&c.fname, "f", "build.ninja", "input build filename (relative to -C)")
	c.Flags.StringVar(&c.binding, "binding", "", "print binding value for the target")
	c.Flags.StringVar(&c.generator, "generator", "", "generator of build.ninja to decode the rule: cmake, meson or gn")
}

func (c *ruleRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, args)
	if err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, ruleUsage)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *ruleRun) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no targets: %w", flag.ErrHelp)
	}
	var newTarget func(*ninjautil.Edge) generator.Target
	if c.generator != "" {
		var err error
		newTarget, err = generator.Constructor(generator.Name(c.generator))
		if err != nil {
			return fmt.Errorf("%w: %w", err, flag.ErrHelp)
		}
	}
	buildRoot, err := filepath.Abs(c.dir)
	if err != nil {
		return err
	}
	graph, err := loadGraph(ctx, buildRoot, c.fname)
	if err != nil {
		return err
	}
	users := make(map[string][]string)
	for _, edge := range graph.Edges() {
		for _, in := range edge.Deps() {
			users[in] = append(users[in], edge.Outputs[0])
		}
	}
	for _, target := range args {
		edge, ok := graph.Lookup(target)
		if !ok {
			fmt.Fprintf(c.w, "# no rule to build %s\n\n", target)
			continue
		}
		if c.binding != "" {
			v, _ := edge.Lookup(c.binding)
			fmt.Fprintln(c.w, v)
			continue
		}
		edge.Print(c.w)
		if newTarget != nil {
			printTarget(c.w, buildRoot, newTarget(edge))
		}
		fmt.Fprintf(c.w, "# %s is used by the following targets\n", target)
		for _, out := range users[target] {
			fmt.Fprintf(c.w, "#  %s\n", out)
		}
		fmt.Fprintf(c.w, "\n\n")
	}
	return nil
}

// printTarget prints t as decoded by its generator.
// Paths are relative to buildRoot.
func printTarget(w io.Writer, buildRoot string, t generator.Target) {
	rel := func(paths []string) []string {
		r := make([]string, 0, len(paths))
		for _, p := range paths {
			if rp, err := filepath.Rel(buildRoot, p); err == nil {
				p = filepath.ToSlash(rp)
			}
			r = append(r, p)
		}
		return r
	}
	field := func(name string, values []string) {
		if len(values) == 0 {
			return
		}
		fmt.Fprintf(w, "# %s: %s\n", name, strings.Join(values, " "))
	}
	kind := t.RuleKind()
	fmt.Fprintf(w, "# kind: %s\n", kind)
	switch {
	case kind == generator.CompilationUnit:
		field("sources", rel(t.Sources(buildRoot)))
		field("includes", rel(t.Includes(buildRoot)))
		field("defines", t.Defines())
		field("cflags", t.Cflags())
	case kind.IsLinked():
		versionScript, flags := t.LinkFlags()
		if versionScript != "" {
			field("version_script", []string{versionScript})
		}
		field("link_flags", flags)
		libs := t.LinkLibraries()
		field("static_libs", libs.Static)
		field("whole_static_libs", libs.WholeStatic)
		field("shared_libs", libs.Shared)
	case kind == generator.CustomCommand:
		cmd, ok := t.RawCommand()
		if !ok {
			fmt.Fprintln(w, "# command: regenerates build.ninja")
			break
		}
		fmt.Fprintf(w, "# command: %s\n", cmd)
		if rsp, ok := t.ResponseFile(); ok {
			fmt.Fprintf(w, "# rspfile: %s\n", rsp.Path)
		}
	}
}
