// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ninjautil

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParse_MinimalEdge(t *testing.T) {
	edges, err := Parse("build.ninja", []byte("build out.o: CXX_COMPILER foo.cc\n  DEFINES = -DFOO -DBAR\n"))
	if err != nil {
		t.Fatalf("Parse=%v; want nil error", err)
	}
	if len(edges) != 1 {
		t.Fatalf("len(edges)=%d; want 1", len(edges))
	}
	e := edges[0]
	if diff := cmp.Diff([]string{"out.o"}, e.Outputs); diff != "" {
		t.Errorf("outputs diff -want +got:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"foo.cc"}, e.Inputs); diff != "" {
		t.Errorf("inputs diff -want +got:\n%s", diff)
	}
	if e.Rule != "CXX_COMPILER" {
		t.Errorf("rule=%q; want %q", e.Rule, "CXX_COMPILER")
	}
	if got, want := e.Variable("DEFINES"), "-DFOO -DBAR"; got != want {
		t.Errorf("DEFINES=%q; want %q", got, want)
	}
	if e.Line != 1 {
		t.Errorf("line=%d; want 1", e.Line)
	}
}

func TestParse_Sections(t *testing.T) {
	input := `
# comment
rule CUSTOM_COMMAND
  command = $COMMAND
  description = $DESC

build gen/a.h gen/b.h | gen/a.stamp: CUSTOM_COMMAND ../src/gen.py  in.txt | tool || order1 order2
  COMMAND = cd /build && python3 ../src/gen.py $
    in.txt
  DESC = Generating

build all: phony gen/a.h
`
	edges, err := Parse("build.ninja", []byte(input))
	if err != nil {
		t.Fatalf("Parse=%v; want nil error", err)
	}
	want := []*Edge{
		{
			Rule:            "CUSTOM_COMMAND",
			Outputs:         []string{"gen/a.h", "gen/b.h"},
			ImplicitOutputs: []string{"gen/a.stamp"},
			Inputs:          []string{"../src/gen.py", "in.txt"},
			ImplicitDeps:    []string{"tool"},
			OrderOnlyDeps:   []string{"order1", "order2"},
			Variables: map[string]string{
				"COMMAND": "cd /build && python3 ../src/gen.py in.txt",
				"DESC":    "Generating",
			},
			RuleVars: map[string]string{
				"command":     "$COMMAND",
				"description": "$DESC",
			},
			Globals: map[string]string{},
			File:    "build.ninja",
			Line:    7,
		},
		{
			Rule:      "phony",
			Outputs:   []string{"all"},
			Inputs:    []string{"gen/a.h"},
			Variables: map[string]string{},
			Globals:   map[string]string{},
			File:      "build.ninja",
			Line:      12,
		},
	}
	if diff := cmp.Diff(want, edges, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Parse diff -want +got:\n%s", diff)
	}
}

func TestParse_CommentKeepsEdge(t *testing.T) {
	input := `build a.o: cxx a.cc
  # flags follow
  FLAGS = -O2

pool link_pool
  depth = 1
build b.o: cxx b.cc
`
	edges, err := Parse("build.ninja", []byte(input))
	if err != nil {
		t.Fatalf("Parse=%v; want nil error", err)
	}
	if len(edges) != 2 {
		t.Fatalf("len(edges)=%d; want 2", len(edges))
	}
	if got := edges[0].Variable("FLAGS"); got != "-O2" {
		t.Errorf("edges[0] FLAGS=%q; want -O2", got)
	}
	if got := edges[0].Variable("depth"); got != "" {
		t.Errorf("edges[0] depth=%q; want empty", got)
	}
}

func TestParse_Globals(t *testing.T) {
	input := `defines = -DA
build a.o: cxx a.cc
defines = -DB
build b.o: cxx b.cc
`
	edges, err := Parse("foo.ninja", []byte(input))
	if err != nil {
		t.Fatalf("Parse=%v; want nil error", err)
	}
	if got := edges[0].Globals["defines"]; got != "-DA" {
		t.Errorf("edges[0] defines=%q; want -DA", got)
	}
	if got := edges[1].Globals["defines"]; got != "-DB" {
		t.Errorf("edges[1] defines=%q; want -DB", got)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, tc := range []struct {
		name     string
		input    string
		wantLine int
	}{
		{
			name:     "missing_colon",
			input:    "build out.o cxx in.cc\n",
			wantLine: 1,
		},
		{
			name:     "duplicate_colon",
			input:    "build out.o: cxx in.cc: other\n",
			wantLine: 1,
		},
		{
			name:     "no_build_keyword",
			input:    "build a: phony\nfoo bar\n",
			wantLine: 2,
		},
		{
			name:     "assignment_without_eq",
			input:    "build a: phony\n  FLAGS -O2\n",
			wantLine: 2,
		},
		{
			name:     "no_rule",
			input:    "build a:\n",
			wantLine: 1,
		},
		{
			name:     "no_output",
			input:    "build : phony a\n",
			wantLine: 1,
		},
		{
			name:     "duplicate_producer",
			input:    "build a: phony\n\nbuild b | a: phony\n",
			wantLine: 3,
		},
		{
			name:     "orphan_indent",
			input:    "  FLAGS = -O2\n",
			wantLine: 1,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("build.ninja", []byte(tc.input))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Parse=%v; want ParseError", err)
			}
			if perr.Line != tc.wantLine {
				t.Errorf("line=%d; want %d (%v)", perr.Line, tc.wantLine, perr)
			}
		})
	}
}

func TestParse_EscapedColon(t *testing.T) {
	edges, err := Parse("build.ninja", []byte("build base$:base: phony obj/base/base.stamp\n"))
	if err != nil {
		t.Fatalf("Parse=%v; want nil error", err)
	}
	if diff := cmp.Diff([]string{"base:base"}, edges[0].Outputs); diff != "" {
		t.Errorf("outputs diff -want +got:\n%s", diff)
	}
}

func TestLoad_Subninja(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{
		"build.ninja": &fstest.MapFile{Data: []byte(`
include toolchain.ninja
subninja obj/foo.ninja
subninja obj/bar.ninja
build all: phony libfoo.a bar
`)},
		"toolchain.ninja": &fstest.MapFile{Data: []byte(`
rule cxx
  command = clang++ ${defines} -c ${in} -o ${out}
rule alink
  command = ar rcs ${out} ${in}
`)},
		"obj/foo.ninja": &fstest.MapFile{Data: []byte(`defines = -DFOO
build obj/foo.o: cxx ../../foo.cc
build libfoo.a: alink obj/foo.o
`)},
		"obj/bar.ninja": &fstest.MapFile{Data: []byte(`build obj/bar.o: cxx ../../bar.cc
build bar: link obj/bar.o libfoo.a
`)},
	}
	edges, err := Load(ctx, fsys, "build.ninja")
	if err != nil {
		t.Fatalf("Load=%v; want nil error", err)
	}
	var got []string
	for _, e := range edges {
		got = append(got, e.Outputs[0])
	}
	want := []string{"obj/foo.o", "libfoo.a", "obj/bar.o", "bar", "all"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("edges diff -want +got:\n%s", diff)
	}
	if got := edges[0].Globals["defines"]; got != "-DFOO" {
		t.Errorf("obj/foo.o defines=%q; want -DFOO", got)
	}
	if _, ok := edges[2].Globals["defines"]; ok {
		t.Errorf("obj/bar.o sees defines of obj/foo.ninja")
	}
	if got, want := edges[0].RuleVars["command"], "clang++ ${defines} -c ${in} -o ${out}"; got != want {
		t.Errorf("cxx command=%q; want %q", got, want)
	}
}

func TestLoad_SubninjaError(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{
		"build.ninja":   &fstest.MapFile{Data: []byte("subninja obj/foo.ninja\n")},
		"obj/foo.ninja": &fstest.MapFile{Data: []byte("build foo.o cxx foo.cc\n")},
	}
	_, err := Load(ctx, fsys, "build.ninja")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Load=%v; want ParseError", err)
	}
	if perr.File != "obj/foo.ninja" {
		t.Errorf("file=%q; want obj/foo.ninja", perr.File)
	}
}
