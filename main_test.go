// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNinja2SoongMain(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "build.ninja"), []byte("build all: phony\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		name string
		args []string
		want int
	}{
		{
			name: "version",
			args: []string{"version"},
			want: 0,
		},
		{
			name: "digraph",
			args: []string{"digraph", "-C", dir},
			want: 0,
		},
		{
			name: "query_rule_missing_manifest",
			args: []string{"query", "rule", "-C", filepath.Join(dir, "nonexistent"), "all"},
			want: 1,
		},
		{
			name: "generate_missing_config",
			args: []string{"generate", "-C", dir},
			want: 1,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := ninja2soongMain(tc.args)
			if got != tc.want {
				t.Errorf("ninja2soongMain(%q)=%d; want %d", tc.args, got, tc.want)
			}
		})
	}
}
