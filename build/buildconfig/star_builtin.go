// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"runtime"

	starjson "go.starlark.net/lib/json"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// builtinModule returns the values predeclared in config files.
func builtinModule() starlark.StringDict {
	runtimeModule := &starlarkstruct.Module{
		Name: "runtime",
		Members: map[string]starlark.Value{
			"os":   starlark.String(runtime.GOOS),
			"arch": starlark.String(runtime.GOARCH),
		},
	}
	runtimeModule.Freeze()

	return starlark.StringDict{
		"runtime": runtimeModule,
		"path":    starPath(),
		"json":    starjson.Module,
		"struct":  starlark.NewBuiltin("struct", starlarkstruct.Make),
		"module":  starlark.NewBuiltin("module", starlarkstruct.MakeModule),
	}
}
