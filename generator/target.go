// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package generator decodes the build manifests written by build-system
// generators (CMake, Meson, GN) into one semantic model.
package generator

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.chromium.org/infra/build/ninja2soong/toolsupport/ninjautil"
	"go.chromium.org/infra/build/ninja2soong/toolsupport/shutil"
)

// RuleKind classifies the rule of an edge.
type RuleKind int

const (
	Unclassified RuleKind = iota
	SharedLibrary
	StaticLibrary
	Binary
	CustomCommand
	SymbolicLink
	Phony
	CompilationUnit
)

func (k RuleKind) String() string {
	switch k {
	case SharedLibrary:
		return "shared_library"
	case StaticLibrary:
		return "static_library"
	case Binary:
		return "binary"
	case CustomCommand:
		return "custom_command"
	case SymbolicLink:
		return "symbolic_link"
	case Phony:
		return "phony"
	case CompilationUnit:
		return "compilation_unit"
	}
	return "unclassified"
}

// IsLinked reports whether the kind produces a library or binary.
func (k RuleKind) IsLinked() bool {
	return k == SharedLibrary || k == StaticLibrary || k == Binary
}

// LinkLibraries are the libraries a link edge links against, as they
// appear in the manifest.
type LinkLibraries struct {
	Static      []string
	Shared      []string
	WholeStatic []string
}

// ResponseFile is the response file of a custom command.
type ResponseFile struct {
	Path    string
	Content string
}

// Target is an edge seen through the conventions of one generator.
//
// Paths returned by Sources and Includes are absolute; relative paths
// are resolved against buildRoot.
type Target interface {
	// Edge returns the underlying edge.
	Edge() *ninjautil.Edge
	RuleKind() RuleKind
	Sources(buildRoot string) []string
	Includes(buildRoot string) []string
	Defines() []string
	Cflags() []string
	// LinkFlags returns the version script, if any, and other link flags.
	LinkFlags() (versionScript string, flags []string)
	LinkLibraries() LinkLibraries
	// RawCommand returns the command of a custom command edge.
	// It returns false for edges that rerun the generator itself.
	RawCommand() (string, bool)
	ResponseFile() (ResponseFile, bool)
}

// Name is the name of a generator.
type Name string

const (
	CMakeName Name = "cmake"
	MesonName Name = "meson"
	GNName    Name = "gn"
)

// Constructor returns the function decoding edges written by the
// generator name.
func Constructor(name Name) (func(*ninjautil.Edge) Target, error) {
	switch name {
	case CMakeName:
		return func(e *ninjautil.Edge) Target { return NewCMake(e) }, nil
	case MesonName:
		return func(e *ninjautil.Edge) Target { return NewMeson(e) }, nil
	case GNName:
		return func(e *ninjautil.Edge) Target { return NewGNTarget(e) }, nil
	}
	return nil, fmt.Errorf("unknown generator %q", name)
}

// absPath resolves p against buildRoot.
func absPath(buildRoot, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(buildRoot, p)
}

func absPaths(buildRoot string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	r := make([]string, 0, len(paths))
	for _, p := range paths {
		r = append(r, absPath(buildRoot, p))
	}
	return r
}

// versionScriptFlag extracts the version script of a linker flag.
func versionScriptFlag(flag string) (string, bool) {
	for _, prefix := range []string{"-Wl,--version-script=", "-Wl,--version-script,", "--version-script="} {
		if v, ok := strings.CutPrefix(flag, prefix); ok {
			return v, true
		}
	}
	return "", false
}

// stripChdir strips a leading `cd <dir> &&` from a command.
func stripChdir(cmd string) string {
	rest, ok := strings.CutPrefix(strings.TrimSpace(cmd), "cd ")
	if !ok {
		return cmd
	}
	_, after, ok := strings.Cut(rest, "&&")
	if !ok {
		return cmd
	}
	return strings.TrimSpace(after)
}

// toolName returns the base name of the program run by cmd.
func toolName(cmd string) (string, []string) {
	args := shutil.Fields(cmd)
	if len(args) == 0 {
		return "", nil
	}
	return filepath.Base(args[0]), args[1:]
}
