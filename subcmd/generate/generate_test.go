// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package generate

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const projectConfig = `
def init(ctx):
    return module(
        "config",
        generator = "cmake",
        prefix = "ex_",
        build_dirs = {
            "arm64": "out/arm64",
            "x86_64": "out/x86_64",
        },
        targets = ["all"],
        comment = ["Generated by ninja2soong. DO NOT EDIT."],
        visibility = ["//visibility:public"],
    )
`

const fooManifest = `
build CMakeFiles/foo.dir/foo.c.o: C_COMPILER__foo_Release ../../foo.c
  DEFINES = -DFOO
  FLAGS = -O2 ARCH_FLAG
  INCLUDES = -I../../include
build CMakeFiles/foo.dir/config.c.o: C_COMPILER__foo_Release config.c
  FLAGS = -O2 ARCH_FLAG
build libfoo.a: C_STATIC_LIBRARY_LINKER__foo_Release CMakeFiles/foo.dir/foo.c.o CMakeFiles/foo.dir/config.c.o
`

const simdManifest = `
build CMakeFiles/simd.dir/simd.c.o: C_COMPILER__simd_Release ../../simd.c
build libsimd.a: C_STATIC_LIBRARY_LINKER__simd_Release CMakeFiles/simd.dir/simd.c.o
`

func setupFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for k, v := range files {
		fname := filepath.Join(dir, k)
		err := os.MkdirAll(filepath.Dir(fname), 0755)
		if err != nil {
			t.Fatal(err)
		}
		err = os.WriteFile(fname, []byte(v), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}
}

func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	setupFiles(t, dir, map[string]string{
		"ninja2soong.star": projectConfig,
		"foo.c":            "",
		"simd.c":           "",
		"out/arm64/build.ninja": strings.ReplaceAll(fooManifest, "ARCH_FLAG", "-march=armv8-a") +
			"build all: phony libfoo.a\n",
		"out/x86_64/build.ninja": strings.ReplaceAll(fooManifest, "ARCH_FLAG", "-msse4.2") + simdManifest +
			"build all: phony libfoo.a libsimd.a\n",
	})
	return dir
}

func newRun(dir string, w *bytes.Buffer) *run {
	return &run{
		w:      w,
		dir:    dir,
		config: "ninja2soong.star",
		fname:  "build.ninja",
		output: "Android.bp",
	}
}

const wantAndroidBP = `// Generated by ninja2soong. DO NOT EDIT.

package {
    default_visibility: ["//visibility:public"],
}

cc_library_static {
    name: "ex_libfoo_a",
    stem: "libfoo",
    cflags: [
        "-DFOO",
        "-O2",
    ],
    local_include_dirs: ["include"],
    srcs: [
        "config.c",
        "foo.c",
    ],
    arch: {
        arm64: {
            cflags: ["-march=armv8-a"],
        },
        x86_64: {
            cflags: ["-msse4.2"],
        },
    },
}

cc_library_static {
    name: "ex_libsimd_a",
    stem: "libsimd",
    srcs: ["simd.c"],
    enabled: false,
    arch: {
        x86_64: {
            enabled: true,
        },
    },
}
`

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	dir := setupProject(t)
	var buf bytes.Buffer
	c := newRun(dir, &buf)
	c.copyList = "copy_list.txt"
	err := c.run(ctx, []string{"variant=release"})
	if err != nil {
		t.Fatalf("run(ctx, args)=%v; want nil error", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "Android.bp"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(wantAndroidBP, string(got)); diff != "" {
		t.Errorf("Android.bp diff -want +got:\n%s", diff)
	}
	got, err = os.ReadFile(filepath.Join(dir, "copy_list.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("out/arm64/config.c config.c\n", string(got)); diff != "" {
		t.Errorf("copy_list.txt diff -want +got:\n%s", diff)
	}
	if buf.Len() != 0 {
		t.Errorf("run(ctx, args) printed %q; want nothing", buf.String())
	}
}

func TestGenerate_DryRun(t *testing.T) {
	ctx := context.Background()
	dir := setupProject(t)
	var buf bytes.Buffer
	c := newRun(dir, &buf)
	c.dryRun = true
	err := c.run(ctx, nil)
	if err != nil {
		t.Fatalf("run(ctx, nil)=%v; want nil error", err)
	}
	want := wantAndroidBP + "# copy out/arm64/config.c config.c\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("dry run output diff -want +got:\n%s", diff)
	}
	_, err = os.Stat(filepath.Join(dir, "Android.bp"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat(Android.bp)=%v; want %v", err, fs.ErrNotExist)
	}
}

func TestGenerate_Errors(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name  string
		files map[string]string
		args  []string
	}{
		{
			name: "bad_arg",
			args: []string{"variant"},
		},
		{
			name: "missing_target",
			files: map[string]string{
				"out/x86_64/build.ninja": simdManifest,
			},
		},
		{
			name: "parse_error",
			files: map[string]string{
				"out/arm64/build.ninja": "build libfoo.a C_STATIC_LIBRARY_LINKER__foo_Release\n",
			},
		},
		{
			name: "kind_mismatch",
			files: map[string]string{
				"out/x86_64/build.ninja": `
build CMakeFiles/foo.dir/foo.c.o: C_COMPILER__foo_Release ../../foo.c
build libfoo.a: C_SHARED_LIBRARY_LINKER__foo_Release CMakeFiles/foo.dir/foo.c.o
build all: phony libfoo.a
`,
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := setupProject(t)
			setupFiles(t, dir, tc.files)
			var buf bytes.Buffer
			err := newRun(dir, &buf).run(ctx, tc.args)
			if err == nil {
				t.Fatalf("run(ctx, %q)=nil; want error", tc.args)
			}
			_, err = os.Stat(filepath.Join(dir, "Android.bp"))
			if !errors.Is(err, fs.ErrNotExist) {
				t.Errorf("Stat(Android.bp)=%v; want %v", err, fs.ErrNotExist)
			}
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "Android.bp")
	for _, content := range []string{"first\n", "second\n"} {
		err := writeFileAtomic(fname, []byte(content))
		if err != nil {
			t.Fatalf("writeFileAtomic(%q, %q)=%v", fname, content, err)
		}
		got, err := os.ReadFile(fname)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != content {
			t.Errorf("content=%q; want %q", got, content)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("ReadDir=%v; want only Android.bp", entries)
	}
}
