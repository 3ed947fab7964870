// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"go.chromium.org/infra/build/ninja2soong/build"
	"go.chromium.org/infra/build/ninja2soong/generator"
	"go.chromium.org/infra/build/ninja2soong/soong"
)

func loadProject(t *testing.T, fname string) *Project {
	t.Helper()
	ctx := context.Background()
	cfg, err := New(ctx, fname, map[string]string{"variant": "release"}, map[string]fs.FS{
		"config": os.DirFS("./testdata"),
	})
	if err != nil {
		t.Fatalf("New(ctx, %q, ...)=_, %v; want nil error", fname, err)
	}
	p, err := cfg.Init(ctx)
	if err != nil {
		t.Fatalf("Init(ctx)=_, %v; want nil error", err)
	}
	return p
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name    string
		fname   string
		repos   map[string]fs.FS
		wantErr bool
	}{
		{
			name:  "basic",
			fname: "@config//main.star",
			repos: map[string]fs.FS{"config": os.DirFS("./testdata")},
		},
		{
			name:  "relative",
			fname: "main.star",
			repos: map[string]fs.FS{"config": os.DirFS("./testdata")},
		},
		{
			name:    "no_config_repo",
			fname:   "@config//main.star",
			wantErr: true,
		},
		{
			name:    "no_init",
			fname:   "@config//no_init.star",
			repos:   map[string]fs.FS{"config": os.DirFS("./testdata")},
			wantErr: true,
		},
		{
			name:    "not_exist",
			fname:   "@config//missing.star",
			repos:   map[string]fs.FS{"config": os.DirFS("./testdata")},
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(ctx, tc.fname, nil, tc.repos)
			if (err != nil) != tc.wantErr {
				t.Errorf("New(ctx, %q, nil, repos)=_, %v; want err %t", tc.fname, err, tc.wantErr)
			}
		})
	}
}

func TestInit(t *testing.T) {
	p := loadProject(t, "@config//main.star")
	want := &Project{
		Generator: generator.CMakeName,
		BuildDirs: map[string]string{
			"arm64":  "out/arm64",
			"x86_64": "out/x86_64",
		},
		Targets: []build.ModuleRequest{
			{Target: "libfoo.a"},
			{Target: "app", Name: "foo_app", Stem: "app"},
		},
		Prefix:            "foo_",
		ToolchainPrefixes: []string{"toolchain/"},
		Header: soong.Header{
			Comment:           []string{"Generated by ninja2soong. DO NOT EDIT."},
			DefaultVisibility: []string{"//visibility:public"},
			License: &soong.License{
				Name:  "foo_license",
				Kinds: []string{"SPDX-license-identifier-Apache-2.0"},
				Text:  []string{"LICENSE"},
			},
		},
	}
	if diff := cmp.Diff(want, p, cmpopts.IgnoreUnexported(Project{})); diff != "" {
		t.Errorf("Init(ctx) diff -want +got:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"arm64", "x86_64"}, p.Arches()); diff != "" {
		t.Errorf("Arches() diff -want +got:\n%s", diff)
	}
	wantHooks := []string{
		"extend_cflags",
		"extend_module",
		"filter_cflag",
		"filter_source",
		"map_lib",
		"map_module_name",
		"parse_custom_command_inputs",
		"target_stem",
	}
	if diff := cmp.Diff(wantHooks, p.Hooks()); diff != "" {
		t.Errorf("Hooks() diff -want +got:\n%s", diff)
	}
}

func TestInit_UnknownHook(t *testing.T) {
	ctx := context.Background()
	cfg, err := New(ctx, "@config//unknown_hook.star", nil, map[string]fs.FS{
		"config": os.DirFS("./testdata"),
	})
	if err != nil {
		t.Fatalf("New(...)=_, %v; want nil error", err)
	}
	_, err = cfg.Init(ctx)
	if err == nil {
		t.Errorf("Init(ctx)=_, nil; want error for unknown hook")
	}
}

func TestPolicy(t *testing.T) {
	p := loadProject(t, "@config//main.star").Policy("arm64")

	for _, tc := range []struct {
		name string
		got  bool
		want bool
	}{
		{name: "FilterCflag(-march=native)", got: p.FilterCflag("-march=native"), want: false},
		{name: "FilterCflag(-O2)", got: p.FilterCflag("-O2"), want: true},
		{name: "FilterSource(foo/a_test.cc)", got: p.FilterSource("foo/a_test.cc"), want: false},
		{name: "FilterSource(tests/b/a.cc)", got: p.FilterSource("tests/b/a.cc"), want: false},
		{name: "FilterSource(src/a.cc)", got: p.FilterSource("src/a.cc"), want: true},
		{name: "FilterInclude(include)", got: p.FilterInclude("include"), want: true},
		{name: "OptimizeTargetForSize(app)", got: p.OptimizeTargetForSize("app"), want: false},
	} {
		if tc.got != tc.want {
			t.Errorf("%s=%t; want %t", tc.name, tc.got, tc.want)
		}
	}

	for _, tc := range []struct {
		lib    string
		want   string
		wantOK bool
	}{
		{lib: "-lz", want: "libz", wantOK: true},
		{lib: "/usr/lib/libz.so", want: "libz", wantOK: true},
		{lib: "-lfoo"},
	} {
		got, ok := p.MapLib(tc.lib)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("MapLib(%q)=%q, %t; want %q, %t", tc.lib, got, ok, tc.want, tc.wantOK)
		}
	}

	if got, want := p.MapModuleName("tool_host", "cc_binary"), "cc_binary_host"; got != want {
		t.Errorf("MapModuleName(tool_host, cc_binary)=%q; want %q", got, want)
	}
	if got, want := p.MapModuleName("tool", "cc_binary"), "cc_binary"; got != want {
		t.Errorf("MapModuleName(tool, cc_binary)=%q; want %q", got, want)
	}
	if got, want := p.MapCmdOutput("gen/a.h"), "gen/a.h"; got != want {
		t.Errorf("MapCmdOutput(gen/a.h)=%q; want %q", got, want)
	}
	if got, want := p.TargetStem("app"), "foo"; got != want {
		t.Errorf("TargetStem(app)=%q; want %q", got, want)
	}
	if got := p.TargetStem("libfoo.a"); got != "" {
		t.Errorf("TargetStem(libfoo.a)=%q; want \"\"", got)
	}
	if got := p.DepsPrefix("app"); got != "" {
		t.Errorf("DepsPrefix(app)=%q; want \"\"", got)
	}
	if diff := cmp.Diff([]string{"-Wno-unused"}, p.ExtendCflags("app")); diff != "" {
		t.Errorf("ExtendCflags(app) diff -want +got:\n%s", diff)
	}
	if got := p.ExtendSharedLibs("app"); got != nil {
		t.Errorf("ExtendSharedLibs(app)=%q; want nil", got)
	}

	ci, ok := p.ParseCustomCommandInputs("gen/special.h", []string{"../gen.py", "data.txt"})
	if !ok {
		t.Errorf("ParseCustomCommandInputs(gen/special.h, ...)=_, false; want true")
	}
	wantCI := build.CommandInputs{
		Sources: []string{"special.in"},
		Inputs:  []string{"../gen.py"},
	}
	if diff := cmp.Diff(wantCI, ci); diff != "" {
		t.Errorf("ParseCustomCommandInputs(gen/special.h, ...) diff -want +got:\n%s", diff)
	}
	if _, ok := p.ParseCustomCommandInputs("gen/other.h", nil); ok {
		t.Errorf("ParseCustomCommandInputs(gen/other.h, nil)=_, true; want false")
	}
	if err := p.Err(); err != nil {
		t.Errorf("Err()=%v; want nil", err)
	}
}

func TestPolicy_ExtendModule(t *testing.T) {
	p := loadProject(t, "@config//main.star").Policy("arm64")

	lib := soong.NewModule("cc_library_static")
	lib.AddProp("name", soong.Str("foo_libfoo_a"))
	lib.AddProp("cflags", soong.StrSet{"-O2"})
	got, err := p.ExtendModule("libfoo.a", lib)
	if err != nil || got != lib {
		t.Fatalf("ExtendModule(libfoo.a, lib)=%v, %v; want lib, nil", got, err)
	}
	want := `cc_library_static {
    name: "foo_libfoo_a",
    cflags: [
        "-DARCH_ARM64",
        "-O2",
    ],
    vendor: true,
}
`
	if diff := cmp.Diff(want, got.String()); diff != "" {
		t.Errorf("ExtendModule(libfoo.a, lib) diff -want +got:\n%s", diff)
	}

	unused := soong.NewModule("cc_library_static")
	unused.AddProp("name", soong.Str("foo_libunused_a"))
	got, err = p.ExtendModule("libunused.a", unused)
	if err != nil || got != nil {
		t.Errorf("ExtendModule(libunused.a, m)=%v, %v; want nil, nil", got, err)
	}

	bin := soong.NewModule("cc_binary")
	bin.AddProp("name", soong.Str("foo_app"))
	got, err = p.ExtendModule("app", bin)
	if err != nil || got != bin {
		t.Errorf("ExtendModule(app, bin)=%v, %v; want bin, nil", got, err)
	}
	if _, ok := bin.Prop("vendor"); ok {
		t.Errorf("ExtendModule(app, bin) set vendor; want unchanged")
	}

	noCflags := soong.NewModule("cc_library_static")
	noCflags.AddProp("name", soong.Str("foo_libbar_a"))
	_, err = p.ExtendModule("libbar.a", noCflags)
	var herr HandlerError
	if !errors.As(err, &herr) {
		t.Errorf("ExtendModule(libbar.a, m)=_, %v; want HandlerError", err)
	}
}

func TestPolicy_Errors(t *testing.T) {
	project := loadProject(t, "@config//bad_hook.star")

	p := project.Policy("x64")
	if got := p.FilterCflag("-O2"); !got {
		t.Errorf("FilterCflag(-O2)=%t; want true", got)
	}
	if err := p.Err(); !errors.Is(err, build.ErrPolicyViolation) {
		t.Errorf("Err()=%v; want %v", err, build.ErrPolicyViolation)
	}

	p = project.Policy("x64")
	if got := p.TargetStem("app"); got != "" {
		t.Errorf("TargetStem(app)=%q; want \"\"", got)
	}
	var herr HandlerError
	if err := p.Err(); !errors.As(err, &herr) {
		t.Errorf("Err()=%v; want HandlerError", err)
	}
	// no hooks are called after an error.
	if got := p.FilterCflag("-O2"); !got {
		t.Errorf("FilterCflag(-O2) after error=%t; want true", got)
	}
}

func TestPathMatch(t *testing.T) {
	for _, tc := range []struct {
		fname    string
		includes []string
		excludes []string
		want     bool
	}{
		{fname: "base/base.h", includes: []string{"*.h"}, want: true},
		{fname: "base/base.cc", includes: []string{"*.h"}, want: false},
		{fname: "base/debug/debug.h", includes: []string{"base/*"}, want: true},
		{fname: "base/debug/debug.h", includes: []string{"*"}, excludes: []string{"base/debug/*"}, want: false},
		{fname: "lib/libgcc.a", includes: []string{"*"}, excludes: []string{"*.a"}, want: false},
		{fname: "lib/libasan.so", includes: []string{"*"}, excludes: []string{"*.a"}, want: true},
	} {
		g := globSpec{includes: tc.includes, excludes: tc.excludes}
		if got := g.matcher()(tc.fname); got != tc.want {
			t.Errorf("match(%q, %q, %q)=%t; want %t", tc.fname, tc.includes, tc.excludes, got, tc.want)
		}
	}
}

func TestRelPath(t *testing.T) {
	for _, tc := range []struct {
		base, target string
		want         string
		wantErr      bool
	}{
		{base: "/src/out", target: "/src/foo/a.c", want: "../foo/a.c"},
		{base: "out/arm64", target: "out/arm64/gen/a.h", want: "gen/a.h"},
		{base: ".", target: "a.c", want: "a.c"},
		{base: "a", target: "a", want: "."},
		{base: "/src", target: "out", wantErr: true},
		{base: "../x", target: "a", wantErr: true},
	} {
		got, err := relPath(tc.base, tc.target)
		if got != tc.want || (err != nil) != tc.wantErr {
			t.Errorf("relPath(%q, %q)=%q, %v; want %q, err %t", tc.base, tc.target, got, err, tc.want, tc.wantErr)
		}
	}
}
