// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package generator

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/ninja2soong/toolsupport/ninjautil"
)

func TestMeson_CompilationUnit(t *testing.T) {
	edge := parseEdge(t, `build src/libfoo.a.p/foo.c.o: c_COMPILER ../src/foo.c || src/config.h
  DEPFILE = src/libfoo.a.p/foo.c.o.d
  ARGS = -Isrc/libfoo.a.p -Isrc -I../src -isystem /usr/include/x -fdiagnostics-color=always -D_FILE_OFFSET_BITS=64 -Wall -O2 "-DVERSION=\"1.0\"" -fPIC
`)
	target := NewMeson(edge)
	if got := target.RuleKind(); got != CompilationUnit {
		t.Errorf("RuleKind=%v; want %v", got, CompilationUnit)
	}
	if diff := cmp.Diff([]string{"/src/foo.c"}, target.Sources("/build")); diff != "" {
		t.Errorf("Sources diff -want +got:\n%s", diff)
	}
	wantIncludes := []string{"/build/src/libfoo.a.p", "/build/src", "/src", "/usr/include/x"}
	if diff := cmp.Diff(wantIncludes, target.Includes("/build")); diff != "" {
		t.Errorf("Includes diff -want +got:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"_FILE_OFFSET_BITS=64", `VERSION="1.0"`}, target.Defines()); diff != "" {
		t.Errorf("Defines diff -want +got:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"-fdiagnostics-color=always", "-Wall", "-O2", "-fPIC"}, target.Cflags()); diff != "" {
		t.Errorf("Cflags diff -want +got:\n%s", diff)
	}
}

func TestMeson_SharedVsBinary(t *testing.T) {
	for _, tc := range []struct {
		name     string
		linkArgs string
		want     RuleKind
	}{
		{
			name:     "shared",
			linkArgs: "-Wl,--as-needed -shared -fPIC -Wl,-soname,libfoo.so.1",
			want:     SharedLibrary,
		},
		{
			name:     "binary",
			linkArgs: "-Wl,--as-needed -Wl,--no-undefined",
			want:     Binary,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			edge := &ninjautil.Edge{
				Rule:      "cpp_LINKER",
				Outputs:   []string{"out"},
				Variables: map[string]string{"LINK_ARGS": tc.linkArgs},
			}
			if got := NewMeson(edge).RuleKind(); got != tc.want {
				t.Errorf("RuleKind=%v; want %v", got, tc.want)
			}
		})
	}
}

func TestMeson_Link(t *testing.T) {
	edge := parseEdge(t, `build src/libfoo.so.1.0.0: c_LINKER src/libfoo.so.1.0.0.p/foo.c.o | src/libbar.a
  LINK_ARGS = -Wl,--as-needed -shared -fPIC -Wl,--start-group -Wl,-soname,libfoo.so.1 src/libbar.a -Wl,--whole-archive src/libbaz.a -Wl,--no-whole-archive subprojects/z/libz.so.1 "-Wl,--version-script=/src/foo.map" -lm -Wl,--end-group
`)
	target := NewMeson(edge)
	if got := target.RuleKind(); got != SharedLibrary {
		t.Errorf("RuleKind=%v; want %v", got, SharedLibrary)
	}
	vs, flags := target.LinkFlags()
	if vs != "/src/foo.map" {
		t.Errorf("version script=%q; want /src/foo.map", vs)
	}
	wantFlags := []string{"-Wl,--as-needed", "-shared", "-fPIC", "-Wl,-soname,libfoo.so.1", "-lm"}
	if diff := cmp.Diff(wantFlags, flags); diff != "" {
		t.Errorf("LinkFlags diff -want +got:\n%s", diff)
	}
	want := LinkLibraries{
		Static:      []string{"src/libbar.a"},
		Shared:      []string{"subprojects/z/libz.so.1"},
		WholeStatic: []string{"src/libbaz.a"},
	}
	if diff := cmp.Diff(want, target.LinkLibraries()); diff != "" {
		t.Errorf("LinkLibraries diff -want +got:\n%s", diff)
	}
}

func TestMeson_LinkLibraryNames(t *testing.T) {
	edge := parseEdge(t, `build tool: c_LINKER tool.p/main.c.o
  LINK_ARGS = subprojects/x.sound/libx.a subprojects/y.a.d/liby.so.2 out.so.d/libz.so build.ar/tmp.o -Wl,-rpath,/opt/x.so
`)
	target := NewMeson(edge)
	want := LinkLibraries{
		Static: []string{"subprojects/x.sound/libx.a"},
		Shared: []string{"subprojects/y.a.d/liby.so.2", "out.so.d/libz.so"},
	}
	if diff := cmp.Diff(want, target.LinkLibraries()); diff != "" {
		t.Errorf("LinkLibraries diff -want +got:\n%s", diff)
	}
	_, flags := target.LinkFlags()
	wantFlags := []string{"build.ar/tmp.o", "-Wl,-rpath,/opt/x.so"}
	if diff := cmp.Diff(wantFlags, flags); diff != "" {
		t.Errorf("LinkFlags diff -want +got:\n%s", diff)
	}
}

func TestMeson_RawCommand(t *testing.T) {
	for _, tc := range []struct {
		name    string
		command string
		want    string
		wantOK  bool
	}{
		{
			name:    "plain",
			command: "/usr/bin/python3 ../src/gen.py src/config.h",
			want:    "/usr/bin/python3 ../src/gen.py src/config.h",
			wantOK:  true,
		},
		{
			name:    "exe_capture",
			command: "/usr/bin/meson --internal exe --capture src/version.h -- /usr/bin/python3 ../src/version.py",
			want:    "/usr/bin/python3 ../src/version.py > src/version.h",
			wantOK:  true,
		},
		{
			name:    "regenerate",
			command: "/usr/bin/meson --internal regenerate /src /build --backend ninja",
			wantOK:  false,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			edge := &ninjautil.Edge{
				Rule:      "CUSTOM_COMMAND",
				Outputs:   []string{"out"},
				Variables: map[string]string{"COMMAND": tc.command},
			}
			got, ok := NewMeson(edge).RawCommand()
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("RawCommand()=%q, %t; want %q, %t", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestMeson_RuleKind(t *testing.T) {
	for _, tc := range []struct {
		rule string
		want RuleKind
	}{
		{rule: "c_COMPILER_FOR_BUILD", want: CompilationUnit},
		{rule: "c_STATIC_LINKER", want: StaticLibrary},
		{rule: "c_STATIC_LINKER_RSP", want: StaticLibrary},
		{rule: "CUSTOM_COMMAND_DEP", want: CustomCommand},
		{rule: "SHSYM", want: Phony},
		{rule: "REGENERATE_BUILD", want: Phony},
		{rule: "rust_COMPILER_SCAN_THING", want: Unclassified},
	} {
		t.Run(tc.rule, func(t *testing.T) {
			target := NewMeson(&ninjautil.Edge{Rule: tc.rule, Outputs: []string{"out"}})
			if got := target.RuleKind(); got != tc.want {
				t.Errorf("RuleKind=%v; want %v", got, tc.want)
			}
		})
	}
}
