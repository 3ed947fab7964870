// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"fmt"
	"path"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// starPath returns path module.
// Paths are slash separated, as in build manifests and Android.bp.
//
//	base(fname)
//	dir(fname)
//	ext(fname)
//	join(...)
//	rel(basepath, targetpath)
//	isabs(fname)
//	match(fname, includes, excludes=[])
func starPath() starlark.Value {
	pathModule := &starlarkstruct.Module{
		Name: "path",
		Members: map[string]starlark.Value{
			"base":  starlark.NewBuiltin("base", starPathBase),
			"dir":   starlark.NewBuiltin("dir", starPathDir),
			"ext":   starlark.NewBuiltin("ext", starPathExt),
			"join":  starlark.NewBuiltin("join", starPathJoin),
			"rel":   starlark.NewBuiltin("rel", starPathRel),
			"isabs": starlark.NewBuiltin("isabs", starPathIsAbs),
			"match": starlark.NewBuiltin("match", starPathMatch),
		},
	}
	pathModule.Freeze()
	return pathModule
}

// Starlark function `path.base(fname)` to return base name of fname.
func starPathBase(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fname string
	err := starlark.UnpackArgs("base", args, kwargs, "fname", &fname)
	if err != nil {
		return starlark.None, err
	}
	return starlark.String(path.Base(fname)), nil
}

// Starlark function `path.dir(fname)` to return dir name of fname.
func starPathDir(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fname string
	err := starlark.UnpackArgs("dir", args, kwargs, "fname", &fname)
	if err != nil {
		return starlark.None, err
	}
	return starlark.String(path.Dir(fname)), nil
}

// Starlark function `path.ext(fname)` to return extension of fname.
func starPathExt(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fname string
	err := starlark.UnpackArgs("ext", args, kwargs, "fname", &fname)
	if err != nil {
		return starlark.None, err
	}
	return starlark.String(path.Ext(fname)), nil
}

// Starlark function `path.join(...)` to return joined path name.
func starPathJoin(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var elems []string
	for _, v := range args {
		s, ok := starlark.AsString(v)
		if !ok {
			return starlark.None, fmt.Errorf("join: for parameter elems: got %s, want string", v.Type())
		}
		elems = append(elems, s)
	}
	return starlark.String(path.Join(elems...)), nil
}

// Starlark function `path.rel(basepath, targetpath)` to return relative path of targetpath from basepath.
// Both paths must be absolute, or both relative.
func starPathRel(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var basepath, targetpath string
	err := starlark.UnpackArgs("rel", args, kwargs, "basepath", &basepath, "targetpath", &targetpath)
	if err != nil {
		return starlark.None, err
	}
	rel, err := relPath(basepath, targetpath)
	if err != nil {
		return starlark.None, err
	}
	return starlark.String(rel), nil
}

func relPath(basepath, targetpath string) (string, error) {
	if path.IsAbs(basepath) != path.IsAbs(targetpath) {
		return "", fmt.Errorf("rel: can't make %s relative to %s", targetpath, basepath)
	}
	base := strings.Split(path.Clean(basepath), "/")
	target := strings.Split(path.Clean(targetpath), "/")
	if base[0] == "." {
		base = base[1:]
	}
	if target[0] == "." {
		target = target[1:]
	}
	i := 0
	for i < len(base) && i < len(target) && base[i] == target[i] {
		i++
	}
	for _, elem := range base[i:] {
		if elem == ".." {
			return "", fmt.Errorf("rel: can't make %s relative to %s", targetpath, basepath)
		}
	}
	var elems []string
	for range base[i:] {
		elems = append(elems, "..")
	}
	elems = append(elems, target[i:]...)
	if len(elems) == 0 {
		return ".", nil
	}
	return path.Join(elems...), nil
}

// Starlark function `path.isabs(fname)` to return true if fname is absolute path.
func starPathIsAbs(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fname string
	err := starlark.UnpackArgs("isabs", args, kwargs, "fname", &fname)
	if err != nil {
		return starlark.None, err
	}
	return starlark.Bool(path.IsAbs(fname)), nil
}

// Starlark function `path.match(fname, includes, excludes=[])` to return
// true if fname matches one of the includes glob patterns and none of
// the excludes.
func starPathMatch(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fname string
	var includes, excludes starlark.Value
	err := starlark.UnpackArgs("match", args, kwargs, "fname", &fname, "includes", &includes, "excludes?", &excludes)
	if err != nil {
		return starlark.None, err
	}
	var g globSpec
	g.includes, err = unpackList(includes)
	if err != nil {
		return starlark.None, fmt.Errorf("match: includes: %w", err)
	}
	if excludes != nil {
		g.excludes, err = unpackList(excludes)
		if err != nil {
			return starlark.None, fmt.Errorf("match: excludes: %w", err)
		}
	}
	return starlark.Bool(g.matcher()(fname)), nil
}
