// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"go.starlark.net/starlark"
)

// configRepo is the repository of the project config.
// Modules without `@<repo>//` prefix are loaded from it.
const configRepo = "config"

// repoLoader is a Starlark repository loader.
type repoLoader struct {
	ctx         context.Context
	repos       map[string]fs.FS
	predeclared starlark.StringDict

	// cache of loaded modules by full name.
	cache map[string]*loadEntry
}

type loadEntry struct {
	globals starlark.StringDict
	err     error
}

// Load loads a Starlark module.
// A module may be `@<repo>//` prefix to select repository.
func (r *repoLoader) Load(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	curname, _ := thread.Local("modulename").(string)
	log.Debugf("load %s from %s", module, curname)
	curModule := configRepo
	if m, n, ok := strings.Cut(curname, "//"); ok {
		curModule = strings.TrimPrefix(m, "@")
		curname = n
	}
	moduleName := curModule
	fname := module
	if strings.HasPrefix(module, "@") {
		m, n, ok := strings.Cut(module, "//")
		if !ok {
			return nil, fmt.Errorf("failed to parse module: %q", module)
		}
		moduleName = m[1:]
		fname = n
	} else if !path.IsAbs(fname) {
		fname = path.Join(path.Dir(curname), module)
	}
	fname = strings.TrimPrefix(fname, "/")
	fullname := fmt.Sprintf("@%s//%s", moduleName, fname)
	log.Debugf("module=%q fname=%q fullname=%q", moduleName, fname, fullname)

	if e, ok := r.cache[fullname]; ok {
		if e == nil {
			return nil, fmt.Errorf("cycle in load of %s", fullname)
		}
		return e.globals, e.err
	}
	moduleFS, ok := r.repos[moduleName]
	if !ok {
		return nil, fmt.Errorf("no such module defined %q", moduleName)
	}
	buf, err := fs.ReadFile(moduleFS, fname)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", fullname, err)
	}
	if r.cache == nil {
		r.cache = make(map[string]*loadEntry)
	}
	r.cache[fullname] = nil
	t := &starlark.Thread{
		Name: "module " + module + "(fullname: " + fullname + ")",
		Print: func(thread *starlark.Thread, msg string) {
			log.Infof("thread:%s %s", thread.Name, msg)
		},
		Load: r.Load,
	}
	t.SetLocal("modulename", fullname)
	globals, err := starlark.ExecFile(t, fullname, buf, r.predeclared)
	r.cache[fullname] = &loadEntry{globals: globals, err: err}
	return globals, err
}
