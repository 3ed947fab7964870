// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"path"
	"strings"
)

// globSpec specifies glob patterns to select paths.
// A pattern without "/" matches the base name.
type globSpec struct {
	includes []string
	excludes []string
}

func globMatcher(p string) func(string) bool {
	if strings.Contains(p, "/") {
		return func(s string) bool {
			ok, _ := path.Match(p, s)
			if ok {
				return true
			}
			// "dir/*" also matches files in subdirectories of dir.
			dir, ok := strings.CutSuffix(p, "/*")
			return ok && strings.HasPrefix(s, dir+"/")
		}
	}
	return func(s string) bool {
		ok, _ := path.Match(p, path.Base(s))
		return ok
	}
}

func (g globSpec) matcher() func(string) bool {
	var inc, exc []func(string) bool
	for _, p := range g.includes {
		inc = append(inc, globMatcher(p))
	}
	for _, p := range g.excludes {
		exc = append(exc, globMatcher(p))
	}
	return func(s string) bool {
		for _, m := range exc {
			if m(s) {
				return false
			}
		}
		for _, m := range inc {
			if m(s) {
				return true
			}
		}
		return false
	}
}
