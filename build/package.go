// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package build generates Android.bp modules from a build graph.
package build

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"go.chromium.org/infra/build/ninja2soong/generator"
	"go.chromium.org/infra/build/ninja2soong/soong"
	"go.chromium.org/infra/build/ninja2soong/toolsupport/ninjautil"
)

// DefaultInterpreters are stripped from the start of custom commands.
var DefaultInterpreters = []string{"/usr/bin/python3", "python3"}

// Options are options of the generation.
type Options struct {
	// Prefix is prepended to module names.
	Prefix string

	// SrcRoot is the absolute path of the source directory, where the
	// Android.bp file is written.
	SrcRoot string

	// BuildRoot is the absolute path of the build directory, where
	// the build manifest is.
	BuildRoot string

	// Interpreters are stripped from the start of custom commands.
	// If nil, DefaultInterpreters is used.
	Interpreters []string

	// ToolchainPrefixes are paths of toolchain internals never
	// generated as modules, e.g. "clang_x64/".
	ToolchainPrefixes []string
}

// ModuleRequest requests a module for a build output.
type ModuleRequest struct {
	// Target is the output path as written in the build manifest.
	Target string
	// Name overrides the module name.
	Name string
	// Stem overrides the stem of the module.
	Stem string
}

// Result is the result of a generation.
type Result struct {
	Modules *soong.Package

	// CopiedFiles are files in the build root, relative to it, that
	// modules refer to without a module generating them. They need to
	// be copied to the same path in the source root.
	CopiedFiles []string
}

// Package generates the modules of one Android.bp file.
// T is the generator of the build graph.
type Package[T generator.Target] struct {
	opts      Options
	graph     *ninjautil.Graph
	policy    Policy
	newTarget func(*ninjautil.Edge) T

	// state of a generation.
	frontier   []string
	seen       map[string]bool
	names      map[*ninjautil.Edge]string
	stems      map[*ninjautil.Edge]string
	genHeaders map[*ninjautil.Edge][]string
	copied     map[string]bool
	modules    *soong.Package
}

// New returns a Package generating modules from graph.
func New[T generator.Target](opts Options, graph *ninjautil.Graph, policy Policy, newTarget func(*ninjautil.Edge) T) *Package[T] {
	if opts.Interpreters == nil {
		opts.Interpreters = DefaultInterpreters
	}
	opts.SrcRoot = filepath.Clean(opts.SrcRoot)
	opts.BuildRoot = filepath.Clean(opts.BuildRoot)
	if policy == nil {
		policy = DefaultPolicy{}
	}
	return &Package[T]{
		opts:      opts,
		graph:     graph,
		policy:    policy,
		newTarget: newTarget,
	}
}

// Generate generates the modules needed by reqs.
func (p *Package[T]) Generate(ctx context.Context, reqs []ModuleRequest) (*Result, error) {
	p.frontier = nil
	p.seen = make(map[string]bool)
	p.names = make(map[*ninjautil.Edge]string)
	p.stems = make(map[*ninjautil.Edge]string)
	p.genHeaders = make(map[*ninjautil.Edge][]string)
	p.copied = make(map[string]bool)
	p.modules = soong.NewPackage()

	for _, req := range reqs {
		edge, ok := p.lookup(req.Target)
		if !ok {
			return nil, GraphError{Target: req.Target, err: ErrNoTarget}
		}
		if req.Name != "" {
			p.names[edge] = req.Name
		}
		if req.Stem != "" {
			p.stems[edge] = req.Stem
		}
	}
	for i := len(reqs) - 1; i >= 0; i-- {
		p.push(reqs[i].Target)
	}
	for len(p.frontier) > 0 {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("interrupted in generation: %w", context.Cause(ctx))
		default:
		}
		target := p.frontier[len(p.frontier)-1]
		p.frontier = p.frontier[:len(p.frontier)-1]
		if p.seen[target] {
			continue
		}
		if p.excluded(target) {
			log.Debugf("ignore %s", target)
			continue
		}
		edge, ok := p.lookup(target)
		if !ok {
			continue
		}
		for _, out := range edge.AllOutputs() {
			p.seen[out] = true
		}
		err := p.visit(edge)
		if err != nil {
			return nil, err
		}
		err = policyErr(p.policy)
		if err != nil {
			return nil, fmt.Errorf("policy for %s: %w", target, err)
		}
	}
	result := &Result{Modules: p.modules}
	for f := range p.copied {
		result.CopiedFiles = append(result.CopiedFiles, f)
	}
	sort.Strings(result.CopiedFiles)
	log.Infof("generated %d modules", p.modules.Len())
	return result, nil
}

func (p *Package[T]) push(targets ...string) {
	for i := len(targets) - 1; i >= 0; i-- {
		if p.seen[targets[i]] {
			continue
		}
		p.frontier = append(p.frontier, targets[i])
	}
}

func (p *Package[T]) visit(edge *ninjautil.Edge) error {
	t := p.newTarget(edge)
	switch kind := t.RuleKind(); kind {
	case generator.SharedLibrary, generator.StaticLibrary, generator.Binary:
		return p.genLibrary(t, kind)
	case generator.CustomCommand:
		return p.genCustomCommand(t)
	case generator.SymbolicLink:
		return p.genSymlink(t)
	case generator.Phony:
		p.push(edge.Deps()...)
		return nil
	case generator.CompilationUnit:
		return nil
	}
	return GraphError{Target: edge.Outputs[0], Edge: edge, err: fmt.Errorf("%w %s", ErrUnclassified, edge.Rule)}
}

// lookup returns the edge producing path, written either relative to
// the build root or absolute.
func (p *Package[T]) lookup(path string) (*ninjautil.Edge, bool) {
	if edge, ok := p.graph.Lookup(path); ok {
		return edge, true
	}
	if rel, ok := p.buildRel(path); ok {
		if edge, ok := p.graph.Lookup(rel); ok {
			return edge, true
		}
	}
	if !filepath.IsAbs(path) {
		return p.graph.Lookup(filepath.Join(p.opts.BuildRoot, path))
	}
	return nil, false
}

// excluded reports whether target gets no module: it is dropped by
// policy or belongs to the toolchain. Modules must not refer to it.
func (p *Package[T]) excluded(target string) bool {
	return !p.policy.FilterTarget(target) || p.isToolchain(target)
}

func (p *Package[T]) isToolchain(target string) bool {
	for _, prefix := range p.opts.ToolchainPrefixes {
		if strings.HasPrefix(target, prefix) {
			return true
		}
	}
	return false
}

// abs returns the absolute path of a path in the build manifest.
func (p *Package[T]) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(p.opts.BuildRoot, path)
}

// buildRel returns path relative to the build root if it is in it.
func (p *Package[T]) buildRel(path string) (string, bool) {
	return relIn(p.opts.BuildRoot, p.abs(path))
}

// srcRel returns path relative to the source root if it is a source.
func (p *Package[T]) srcRel(path string) (string, bool) {
	abs := p.abs(path)
	if _, ok := relIn(p.opts.BuildRoot, abs); ok {
		return "", false
	}
	return relIn(p.opts.SrcRoot, abs)
}

func relIn(root, abs string) (string, bool) {
	if abs == root {
		return ".", true
	}
	rel, ok := strings.CutPrefix(abs, root+"/")
	return rel, ok
}

// moduleName returns the name of the module generated for edge.
func (p *Package[T]) moduleName(edge *ninjautil.Edge) string {
	if name, ok := p.names[edge]; ok {
		return name
	}
	return p.opts.Prefix + pathToID(edge.Outputs[0])
}

var idReplacer = strings.NewReplacer("/", "_", ".", "_", "-", "_", "+", "_", "@", "_")

// pathToID converts a path into a module name.
func pathToID(path string) string {
	return idReplacer.Replace(path)
}

// addModule extends m by policy and adds it.
func (p *Package[T]) addModule(target string, m *soong.Module) error {
	m, err := p.policy.ExtendModule(target, m)
	if err != nil {
		return fmt.Errorf("extend module %s: %w", target, err)
	}
	if m == nil {
		log.Debugf("policy dropped %s", target)
		return nil
	}
	log.Debugf("%s %s for %s", m.Kind, m.Name(), target)
	return p.modules.Add(m)
}

// copyFile records a build root file a module refers to.
func (p *Package[T]) copyFile(rel string) {
	if !p.copied[rel] {
		log.Debugf("copy %s", rel)
	}
	p.copied[rel] = true
}

// strSet accumulates a string set in insertion order.
type strSet struct {
	values []string
}

func (s *strSet) add(values ...string) {
	for _, v := range values {
		if !slices.Contains(s.values, v) {
			s.values = append(s.values, v)
		}
	}
}

func (s *strSet) value() soong.StrSet {
	return soong.StrSet(s.values)
}
