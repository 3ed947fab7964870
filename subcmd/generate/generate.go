// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package generate is generate subcommand to write Android.bp from
// build.ninja of each architecture.
package generate

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/maruel/subcommands"
	"golang.org/x/sync/errgroup"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/ninja2soong/build"
	"go.chromium.org/infra/build/ninja2soong/build/buildconfig"
	"go.chromium.org/infra/build/ninja2soong/generator"
	"go.chromium.org/infra/build/ninja2soong/soong"
	"go.chromium.org/infra/build/ninja2soong/toolsupport/ninjautil"
	"go.chromium.org/infra/build/ninja2soong/ui"
)

const usage = `generate Android.bp

 $ ninja2soong generate -C <dir> [-config <config.star>] [key=value...]

reads build.ninja in the build directories of each architecture given
by <config.star>, and writes Android.bp in <dir> with the modules of the
requested targets. Modules that differ between architectures get
per-architecture properties.

key=value arguments are visible to <config.star> as ctx.flags.
Android.bp is not written if any architecture fails.
`

// Cmd returns the Command for the `generate` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "generate [-C <dir>] [-config <config.star>] [key=value...]",
		ShortDesc: "generate Android.bp from build.ninja",
		LongDesc:  usage,
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

	dir      string
	config   string
	fname    string
	output   string
	dryRun   bool
	copyList string
}

func (c *run) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "source directory, where Android.bp is written")
	c.Flags.StringVar(&c.config, "config", "ninja2soong.star", "project config file (relative to -C)")
	c.Flags.StringVar(&c.fname, "f", "build.ninja", "input build filename (relative to each build directory)")
	c.Flags.StringVar(&c.output, "o", "Android.bp", "output filename (relative to -C)")
	c.Flags.BoolVar(&c.dryRun, "dry_run", false, "print Android.bp to stdout instead of writing it")
	c.Flags.StringVar(&c.copyList, "copy_list", "", "write build directory files Android.bp refers to into this file (relative to -C)")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, args)
	if err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
		default:
			ui.Default.Errorf("Error: %v", err)
		}
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context, args []string) error {
	started := time.Now()
	flags := make(map[string]string)
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("bad argument %q, want key=value: %w", arg, flag.ErrHelp)
		}
		flags[k] = v
	}
	srcRoot, err := filepath.Abs(c.dir)
	if err != nil {
		return err
	}
	project, err := loadProject(ctx, srcRoot, c.config, flags)
	if err != nil {
		return err
	}

	spin := ui.Default.NewSpinner()
	spin.Start("generating %d architectures", len(project.BuildDirs))
	results, err := generateAll(ctx, srcRoot, c.fname, project)
	if err != nil {
		spin.Stop(err)
		return err
	}
	pkgs := make(map[string]*soong.Package, len(results))
	for arch, r := range results {
		pkgs[arch] = r.Modules
	}
	merged, err := soong.Merge(pkgs)
	if err != nil {
		spin.Stop(err)
		return fmt.Errorf("merge: %w", err)
	}
	spin.Done("%d modules", merged.Len())

	var buf bytes.Buffer
	err = merged.Render(&buf, project.Header)
	if err != nil {
		return err
	}
	copies := copiedFiles(project, results)
	if c.dryRun {
		_, err = c.w.Write(buf.Bytes())
		if err != nil {
			return err
		}
		for _, cp := range copies {
			fmt.Fprintf(c.w, "# copy %s\n", cp)
		}
		return nil
	}
	output := filepath.Join(srcRoot, c.output)
	err = writeFileAtomic(output, buf.Bytes())
	if err != nil {
		return err
	}
	if c.copyList != "" {
		var sb strings.Builder
		for _, cp := range copies {
			fmt.Fprintln(&sb, cp)
		}
		err = writeFileAtomic(filepath.Join(srcRoot, c.copyList), []byte(sb.String()))
		if err != nil {
			return err
		}
	} else if len(copies) > 0 {
		ui.Default.Warningf("%d build directory files need to be copied to the source directory; use -copy_list", len(copies))
	}
	ui.Default.Infof("wrote %s: %d modules in %s", c.output, merged.Len(), ui.FormatDuration(time.Since(started)))
	return nil
}

func loadProject(ctx context.Context, srcRoot, config string, flags map[string]string) (*buildconfig.Project, error) {
	if !filepath.IsAbs(config) {
		config = filepath.Join(srcRoot, config)
	}
	repos := map[string]fs.FS{
		"config": os.DirFS(filepath.Dir(config)),
	}
	cfg, err := buildconfig.New(ctx, "@config//"+filepath.Base(config), flags, repos)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", config, err)
	}
	return cfg.Init(ctx)
}

// generateAll generates the modules of each architecture in parallel.
func generateAll(ctx context.Context, srcRoot, fname string, project *buildconfig.Project) (map[string]*build.Result, error) {
	newTarget, err := generator.Constructor(project.Generator)
	if err != nil {
		return nil, err
	}
	arches := project.Arches()
	results := make([]*build.Result, len(arches))
	eg, ctx := errgroup.WithContext(ctx)
	for i, arch := range arches {
		eg.Go(func() error {
			buildRoot := filepath.Join(srcRoot, project.BuildDirs[arch])
			r, err := generateArch(ctx, project, arch, srcRoot, buildRoot, fname, newTarget)
			if err != nil {
				return fmt.Errorf("%s: %w", arch, err)
			}
			results[i] = r
			return nil
		})
	}
	err = eg.Wait()
	if err != nil {
		return nil, err
	}
	m := make(map[string]*build.Result, len(arches))
	for i, arch := range arches {
		m[arch] = results[i]
	}
	return m, nil
}

func generateArch(ctx context.Context, project *buildconfig.Project, arch, srcRoot, buildRoot, fname string, newTarget func(*ninjautil.Edge) generator.Target) (*build.Result, error) {
	started := time.Now()
	edges, err := ninjautil.Load(ctx, os.DirFS(buildRoot), fname)
	if err != nil {
		return nil, err
	}
	graph, err := ninjautil.NewGraph(edges)
	if err != nil {
		return nil, err
	}
	log.Infof("%s: loaded %d edges from %s in %s", arch, len(edges), filepath.Join(buildRoot, fname), time.Since(started))
	p := build.New(build.Options{
		Prefix:            project.Prefix,
		SrcRoot:           srcRoot,
		BuildRoot:         buildRoot,
		Interpreters:      project.Interpreters,
		ToolchainPrefixes: project.ToolchainPrefixes,
	}, graph, project.Policy(arch), newTarget)
	return p.Generate(ctx, project.Targets)
}

// copiedFiles returns "<src> <dst>" lines of build directory files to
// copy, relative to the source root. The first architecture wins when
// more than one refers to the same file.
func copiedFiles(project *buildconfig.Project, results map[string]*build.Result) []string {
	seen := make(map[string]bool)
	var copies []string
	for _, arch := range project.Arches() {
		r, ok := results[arch]
		if !ok {
			continue
		}
		for _, f := range r.CopiedFiles {
			if seen[f] {
				continue
			}
			seen[f] = true
			copies = append(copies, filepath.ToSlash(filepath.Join(project.BuildDirs[arch], f))+" "+f)
		}
	}
	sort.Strings(copies)
	return copies
}

// writeFileAtomic writes buf to fname through a temporary file.
func writeFileAtomic(fname string, buf []byte) error {
	f, err := os.CreateTemp(filepath.Dir(fname), "."+filepath.Base(fname)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	_, err = f.Write(buf)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	err = os.Chmod(tmp, 0644)
	if err != nil {
		os.Remove(tmp)
		return err
	}
	err = os.Rename(tmp, fname)
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
