// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package digraph

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDigraph(t *testing.T) {
	const buildNinja = `
rule cc
build foo.o: cc ../foo.c | ../foo.h
build bar.o: cc ../bar.c
build libfoo.a: ar foo.o bar.o
build all: phony libfoo.a
`
	for _, tc := range []struct {
		name string
		args []string
		want string
	}{
		{
			name: "default",
			want: `../foo.c
../foo.h
foo.o ../foo.c ../foo.h
../bar.c
bar.o ../bar.c
libfoo.a foo.o bar.o
all libfoo.a
`,
		},
		{
			name: "target",
			args: []string{"bar.o"},
			want: `../bar.c
bar.o ../bar.c
`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			err := os.WriteFile(filepath.Join(dir, "build.ninja"), []byte(buildNinja), 0644)
			if err != nil {
				t.Fatal(err)
			}
			var buf bytes.Buffer
			c := &run{w: &buf}
			c.init()
			c.dir = dir
			err = c.run(context.Background(), tc.args)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, buf.String()); diff != "" {
				t.Errorf("digraph diff -want +got:\n%s", diff)
			}
		})
	}
}
