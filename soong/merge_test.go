// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package soong

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newPackage(t *testing.T, modules ...*Module) *Package {
	t.Helper()
	pkg := NewPackage()
	for _, m := range modules {
		err := pkg.Add(m)
		if err != nil {
			t.Fatalf("Add(%q)=%v", m.Name(), err)
		}
	}
	return pkg
}

func newModule(kind, name string, props map[string]Value) *Module {
	m := NewModule(kind)
	m.AddProp("name", Str(name))
	for k, v := range props {
		m.AddProp(k, v)
	}
	return m
}

func mergedString(t *testing.T, pkgs map[string]*Package, name string) string {
	t.Helper()
	merged, err := Merge(pkgs)
	if err != nil {
		t.Fatalf("Merge=%v", err)
	}
	m, ok := merged.Module(name)
	if !ok {
		t.Fatalf("merged package has no %q; modules=%q", name, merged.Names())
	}
	return m.String()
}

func TestMerge_HoistStrSet(t *testing.T) {
	pkgs := map[string]*Package{
		"arm64": newPackage(t, newModule("cc_library_static", "libfoo", map[string]Value{
			"cflags": StrSet{"-Wall", "-Wextra", "-DARM"},
		})),
		"x86_64": newPackage(t, newModule("cc_library_static", "libfoo", map[string]Value{
			"cflags": StrSet{"-Wextra", "-Wall"},
		})),
	}
	want := `cc_library_static {
    name: "libfoo",
    cflags: [
        "-Wall",
        "-Wextra",
    ],
    arch: {
        arm64: {
            cflags: ["-DARM"],
        },
    },
}
`
	if diff := cmp.Diff(want, mergedString(t, pkgs, "libfoo")); diff != "" {
		t.Errorf("Merge diff -want +got:\n%s", diff)
	}
}

func TestMerge_BoolDivergence(t *testing.T) {
	pkgs := map[string]*Package{
		"arm64": newPackage(t, newModule("cc_binary", "tool", map[string]Value{
			"optimize_for_size": Bool(true),
			"stem":              Str("tool"),
		})),
		"x86_64": newPackage(t, newModule("cc_binary", "tool", map[string]Value{
			"optimize_for_size": Bool(false),
			"stem":              Str("tool"),
		})),
	}
	want := `cc_binary {
    name: "tool",
    stem: "tool",
    arch: {
        arm64: {
            optimize_for_size: true,
        },
        x86_64: {
            optimize_for_size: false,
        },
    },
}
`
	if diff := cmp.Diff(want, mergedString(t, pkgs, "tool")); diff != "" {
		t.Errorf("Merge diff -want +got:\n%s", diff)
	}
}

func TestMerge_AbsentBlocksHoisting(t *testing.T) {
	pkgs := map[string]*Package{
		"arm": newPackage(t, newModule("cc_library_shared", "libbar", map[string]Value{
			"version_script": Str("bar.map"),
		})),
		"arm64": newPackage(t, newModule("cc_library_shared", "libbar", nil)),
	}
	want := `cc_library_shared {
    name: "libbar",
    arch: {
        arm: {
            version_script: "bar.map",
        },
    },
}
`
	if diff := cmp.Diff(want, mergedString(t, pkgs, "libbar")); diff != "" {
		t.Errorf("Merge diff -want +got:\n%s", diff)
	}
}

func TestMerge_MissingModule(t *testing.T) {
	pkgs := map[string]*Package{
		"arm64": newPackage(t,
			newModule("cc_library_static", "libneon", map[string]Value{"srcs": StrSet{"neon.c"}}),
		),
		"x86": newPackage(t),
		"x86_64": newPackage(t,
			newModule("cc_library_static", "libneon", map[string]Value{"srcs": StrSet{"neon.c", "sse.c"}}),
		),
	}
	want := `cc_library_static {
    name: "libneon",
    srcs: ["neon.c"],
    enabled: false,
    arch: {
        arm64: {
            enabled: true,
        },
        x86_64: {
            srcs: ["sse.c"],
            enabled: true,
        },
    },
}
`
	if diff := cmp.Diff(want, mergedString(t, pkgs, "libneon")); diff != "" {
		t.Errorf("Merge diff -want +got:\n%s", diff)
	}
}

func TestMerge_SingleArch(t *testing.T) {
	pkgs := map[string]*Package{
		"arm64": newPackage(t, newModule("cc_binary", "tool", map[string]Value{
			"srcs": StrSet{"main.c"},
		})),
	}
	want := "cc_binary {\n    name: \"tool\",\n    srcs: [\"main.c\"],\n}\n"
	if diff := cmp.Diff(want, mergedString(t, pkgs, "tool")); diff != "" {
		t.Errorf("Merge diff -want +got:\n%s", diff)
	}
}

func TestMerge_Errors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		arm   *Module
		arm64 *Module
	}{
		{
			name:  "mixed_types",
			arm:   newModule("cc_binary", "tool", map[string]Value{"stl": Bool(true)}),
			arm64: newModule("cc_binary", "tool", map[string]Value{"stl": StrSet{"libc++"}}),
		},
		{
			name:  "mixed_kinds",
			arm:   newModule("cc_library_static", "libfoo", nil),
			arm64: newModule("cc_library_shared", "libfoo", nil),
		},
		{
			name:  "nested",
			arm:   newModule("cc_binary", "tool", map[string]Value{"target": Nested{}}),
			arm64: newModule("cc_binary", "tool", map[string]Value{"target": Nested{}}),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Merge(map[string]*Package{
				"arm":   newPackage(t, tc.arm),
				"arm64": newPackage(t, tc.arm64),
			})
			if !errors.Is(err, ErrPolicyViolation) {
				t.Errorf("Merge=%v; want %v", err, ErrPolicyViolation)
			}
		})
	}
}
