// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package buildconfig provides the Starlark project config of ninja2soong.
//
// A config file defines `init(ctx)`, which returns a module:
//
//	def init(ctx):
//	    return module(
//	        "config",
//	        generator = "cmake",
//	        build_dirs = {"arm64": "out/arm64", "x86_64": "out/x86_64"},
//	        targets = ["libfoo.a", {"target": "app", "name": "foo_app"}],
//	        prefix = "foo_",
//	        policy = {"filter_cflag": filter_cflag},
//	    )
//
// ctx.flags has the flags given on the command line.
// Policy hooks are called with a ctx that also has the architecture in
// ctx.arch.
package buildconfig

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/charmbracelet/log"
	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"go.chromium.org/infra/build/ninja2soong/build"
	"go.chromium.org/infra/build/ninja2soong/generator"
	"go.chromium.org/infra/build/ninja2soong/soong"
)

const configEntryPoint = "init"

// Config is a project config.
type Config struct {
	// flags used to run the generation.
	flags map[string]string

	// global variables loaded by the config.
	globals map[string]starlark.Value
}

// New returns new project config loaded from fname.
// fname is `@<repo>//<path>`, or a path in the config repo.
func New(ctx context.Context, fname string, flags map[string]string, repos map[string]fs.FS) (*Config, error) {
	if _, ok := repos[configRepo]; !ok {
		return nil, errors.New("config module is not set")
	}
	loader := &repoLoader{
		ctx:         ctx,
		repos:       repos,
		predeclared: builtinModule(),
	}
	log.Debugf("enable starlark recursion")
	resolve.AllowRecursion = true

	thread := &starlark.Thread{
		Name: "load",
		Print: func(thread *starlark.Thread, msg string) {
			log.Infof("thread:%s %s", thread.Name, msg)
		},
		Load: loader.Load,
	}
	thread.SetLocal("modulename", "@"+configRepo+"//")
	globals, err := loader.Load(thread, fname)
	if err != nil {
		log.Warnf("thread:%s failed to exec file %s: %v", thread.Name, fname, err)
		var eerr *starlark.EvalError
		if errors.As(err, &eerr) {
			log.Warnf("stacktrace:\n%s", eerr.Backtrace())
		}
		return nil, err
	}
	log.Debugf("config: %s", globals)
	v, ok := globals[configEntryPoint]
	if !ok {
		return nil, fmt.Errorf("%s is not defined in %s", configEntryPoint, fname)
	}
	if _, ok := v.(starlark.Callable); !ok {
		return nil, fmt.Errorf("%s %s is not callable in %s", configEntryPoint, v.Type(), fname)
	}
	return &Config{
		flags:   flags,
		globals: globals,
	}, nil
}

// HandlerError is error of handler.
type HandlerError struct {
	entry string
	fn    starlark.Value
	err   *starlark.EvalError
}

func (e HandlerError) Error() string {
	if fn, ok := e.fn.(*starlark.Function); ok {
		return fmt.Sprintf("failed to run %s[%s:%s]: %v", e.entry, fn.Position(), fn.Name(), e.err)
	}
	return fmt.Sprintf("failed to run %s[%s]: %v", e.entry, e.fn, e.err)
}

func (e HandlerError) Backtrace() string {
	return e.err.CallStack.String()
}

func (e HandlerError) Unwrap() error {
	return e.err
}

// callError converts err of fn called for entry.
func callError(thread *starlark.Thread, entry string, fn starlark.Value, err error) error {
	log.Warnf("thread:%s failed to run %s: %v", thread.Name, entry, err)
	var eerr *starlark.EvalError
	if errors.As(err, &eerr) {
		log.Warnf("stacktrace:\n%s", eerr.Backtrace())
		return HandlerError{entry: entry, fn: fn, err: eerr}
	}
	return fmt.Errorf("failed to run %s: %w", entry, err)
}

func newThread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(thread *starlark.Thread, msg string) {
			log.Infof("thread:%s %s", thread.Name, msg)
		},
		Load: func(*starlark.Thread, string) (starlark.StringDict, error) {
			return nil, fmt.Errorf("load is not allowed in %s", name)
		},
	}
}

// Project is the project returned by `init`.
type Project struct {
	// Generator is the generator of the build directories.
	Generator generator.Name

	// BuildDirs are the build directories by architecture, relative
	// to the source root.
	BuildDirs map[string]string

	// Targets are the requested modules.
	Targets []build.ModuleRequest

	// Prefix is prepended to module names.
	Prefix string

	// Interpreters are stripped from the start of custom commands.
	// nil for the default.
	Interpreters []string

	// ToolchainPrefixes are paths of toolchain internals.
	ToolchainPrefixes []string

	// Header is the header of the Android.bp file.
	Header soong.Header

	flags map[string]string
	hooks map[string]starlark.Value
}

// Arches returns the architectures of the project in sorted order.
func (p *Project) Arches() []string {
	arches := make([]string, 0, len(p.BuildDirs))
	for arch := range p.BuildDirs {
		arches = append(arches, arch)
	}
	sort.Strings(arches)
	return arches
}

// Init initializes project by running `init`.
func (cfg *Config) Init(ctx context.Context) (*Project, error) {
	fun, ok := cfg.globals[configEntryPoint]
	if !ok {
		return nil, fmt.Errorf("no %s", configEntryPoint)
	}
	thread := newThread(configEntryPoint)
	hctx := starlarkstruct.FromStringDict(starlark.String("ctx"), map[string]starlark.Value{
		"flags": starFlags(cfg.flags),
	})
	ret, err := starlark.Call(thread, fun, []starlark.Value{hctx}, nil)
	if err != nil {
		return nil, callError(thread, configEntryPoint, fun, err)
	}
	m, ok := ret.(*starlarkstruct.Module)
	if !ok {
		return nil, fmt.Errorf("%s returned %s, want module", configEntryPoint, ret.Type())
	}
	m.Freeze()
	p := &Project{flags: cfg.flags}
	err = p.parse(m)
	if err != nil {
		return nil, fmt.Errorf("bad %s module %s: %w", configEntryPoint, m.Name, err)
	}
	log.Infof("project generator=%s arches=%q targets=%d", p.Generator, p.Arches(), len(p.Targets))
	return p, nil
}

func (p *Project) parse(m *starlarkstruct.Module) error {
	attr := func(name string) starlark.Value {
		v, ok := m.Members[name]
		if !ok || v == starlark.None {
			return nil
		}
		return v
	}
	v := attr("generator")
	if v == nil {
		return errors.New("no generator")
	}
	s, ok := starlark.AsString(v)
	if !ok {
		return fmt.Errorf("generator %s, want string", v.Type())
	}
	_, err := generator.Constructor(generator.Name(s))
	if err != nil {
		return err
	}
	p.Generator = generator.Name(s)

	v = attr("build_dirs")
	if v == nil {
		return errors.New("no build_dirs")
	}
	p.BuildDirs, err = unpackStringDict(v)
	if err != nil {
		return fmt.Errorf("build_dirs: %w", err)
	}
	if len(p.BuildDirs) == 0 {
		return errors.New("empty build_dirs")
	}

	v = attr("targets")
	if v == nil {
		return errors.New("no targets")
	}
	p.Targets, err = unpackTargets(v)
	if err != nil {
		return fmt.Errorf("targets: %w", err)
	}

	if v = attr("prefix"); v != nil {
		s, ok := starlark.AsString(v)
		if !ok {
			return fmt.Errorf("prefix %s, want string", v.Type())
		}
		p.Prefix = s
	}
	for name, list := range map[string]*[]string{
		"interpreters":       &p.Interpreters,
		"toolchain_prefixes": &p.ToolchainPrefixes,
		"comment":            &p.Header.Comment,
		"visibility":         &p.Header.DefaultVisibility,
	} {
		if v = attr(name); v != nil {
			*list, err = unpackList(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	if v = attr("license"); v != nil {
		p.Header.License, err = unpackLicense(v)
		if err != nil {
			return fmt.Errorf("license: %w", err)
		}
	}
	if v = attr("policy"); v != nil {
		p.hooks, err = unpackHooks(v)
		if err != nil {
			return fmt.Errorf("policy: %w", err)
		}
	}
	return nil
}

// unpackTargets unpacks a list of targets. A target is a path, or a
// dict with "target" and optional "name" and "stem".
func unpackTargets(v starlark.Value) ([]build.ModuleRequest, error) {
	iterator := starlark.Iterate(v)
	if iterator == nil {
		return nil, fmt.Errorf("got %v; want iterator", v.Type())
	}
	defer iterator.Done()
	var elem starlark.Value
	var reqs []build.ModuleRequest
	for iterator.Next(&elem) {
		if s, ok := starlark.AsString(elem); ok {
			reqs = append(reqs, build.ModuleRequest{Target: s})
			continue
		}
		m, err := unpackStringDict(elem)
		if err != nil {
			return nil, err
		}
		req := build.ModuleRequest{
			Target: m["target"],
			Name:   m["name"],
			Stem:   m["stem"],
		}
		if req.Target == "" {
			return nil, fmt.Errorf("no target in %v", elem)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func unpackLicense(v starlark.Value) (*soong.License, error) {
	dict, ok := v.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("got %v; want dict", v.Type())
	}
	license := &soong.License{}
	for _, item := range dict.Items() {
		k, _ := starlark.AsString(item[0])
		var err error
		switch k {
		case "name":
			s, ok := starlark.AsString(item[1])
			if !ok {
				return nil, fmt.Errorf("name %s, want string", item[1].Type())
			}
			license.Name = s
		case "kinds":
			license.Kinds, err = unpackList(item[1])
		case "text":
			license.Text, err = unpackList(item[1])
		case "visibility":
			license.Visibility, err = unpackList(item[1])
		default:
			return nil, fmt.Errorf("unknown key %s", item[0])
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
	}
	if license.Name == "" {
		return nil, errors.New("no name")
	}
	return license, nil
}

func unpackHooks(v starlark.Value) (map[string]starlark.Value, error) {
	dict, ok := v.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("got %v; want dict", v.Type())
	}
	hooks := make(map[string]starlark.Value, dict.Len())
	for _, item := range dict.Items() {
		name, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("got %v key; want string", item[0].Type())
		}
		if !knownHooks[name] {
			return nil, fmt.Errorf("unknown hook %q", name)
		}
		if _, ok := item[1].(starlark.Callable); !ok {
			return nil, fmt.Errorf("hook %s %s is not callable", name, item[1].Type())
		}
		hooks[name] = item[1]
	}
	return hooks, nil
}
