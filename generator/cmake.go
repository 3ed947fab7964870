// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package generator

import (
	"strings"

	"go.chromium.org/infra/build/ninja2soong/toolsupport/ninjautil"
	"go.chromium.org/infra/build/ninja2soong/toolsupport/shutil"
)

// CMake is an edge written by CMake's Ninja generator.
//
// CMake stores per-edge data as space-joined strings in DEFINES, INCLUDES,
// FLAGS, LINK_FLAGS, LINK_LIBRARIES and COMMAND.
type CMake struct {
	edge *ninjautil.Edge
}

// NewCMake returns the CMake view of edge.
func NewCMake(edge *ninjautil.Edge) *CMake {
	return &CMake{edge: edge}
}

// Edge implements Target.
func (t *CMake) Edge() *ninjautil.Edge { return t.edge }

// RuleKind implements Target.
func (t *CMake) RuleKind() RuleKind {
	rule := t.edge.Rule
	switch {
	case rule == "phony", rule == "RERUN_CMAKE", rule == "VERIFY_GLOBS", rule == "CLEAN", rule == "HELP":
		return Phony
	case rule == "CUSTOM_COMMAND":
		return CustomCommand
	case strings.HasPrefix(rule, "CMAKE_SYMLINK_"):
		return SymbolicLink
	case strings.Contains(rule, "_STATIC_LIBRARY_LINKER"):
		return StaticLibrary
	case strings.Contains(rule, "_SHARED_LIBRARY_LINKER"), strings.Contains(rule, "_SHARED_MODULE_LINKER"):
		return SharedLibrary
	case strings.Contains(rule, "_EXECUTABLE_LINKER"):
		return Binary
	case strings.Contains(rule, "_COMPILER"):
		return CompilationUnit
	}
	return Unclassified
}

func (t *CMake) variable(key string) string {
	return ninjautil.Unescape(t.edge.Variable(key))
}

// Sources implements Target.
func (t *CMake) Sources(buildRoot string) []string {
	return absPaths(buildRoot, t.edge.Inputs)
}

// Includes implements Target.
// INCLUDES holds `-I<dir>` and `-isystem <dir>` entries.
func (t *CMake) Includes(buildRoot string) []string {
	var includes []string
	args := shutil.Fields(t.variable("INCLUDES"))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		var dir string
		switch {
		case arg == "-I" || arg == "-isystem":
			if i+1 >= len(args) {
				continue
			}
			i++
			dir = args[i]
		case strings.HasPrefix(arg, "-isystem"):
			dir = strings.TrimPrefix(arg, "-isystem")
		case strings.HasPrefix(arg, "-I"):
			dir = strings.TrimPrefix(arg, "-I")
		default:
			continue
		}
		includes = append(includes, absPath(buildRoot, dir))
	}
	return includes
}

// Defines implements Target.
// DEFINES is split on the literal `-D`.
func (t *CMake) Defines() []string {
	var defines []string
	for _, d := range strings.Split(t.variable("DEFINES"), "-D") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		defines = append(defines, d)
	}
	return defines
}

// Cflags implements Target.
func (t *CMake) Cflags() []string {
	return shutil.Fields(t.variable("FLAGS"))
}

// LinkFlags implements Target.
// Flags come from LINK_FLAGS and the `-` prefixed entries of LINK_LIBRARIES.
func (t *CMake) LinkFlags() (string, []string) {
	var versionScript string
	var flags []string
	args := append(shutil.Fields(t.variable("LINK_FLAGS")), shutil.Fields(t.variable("LINK_LIBRARIES"))...)
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		if vs, ok := versionScriptFlag(arg); ok {
			versionScript = vs
			continue
		}
		flags = append(flags, arg)
	}
	return versionScript, flags
}

// LinkLibraries implements Target.
func (t *CMake) LinkLibraries() LinkLibraries {
	var libs LinkLibraries
	for _, arg := range shutil.Fields(t.variable("LINK_LIBRARIES")) {
		switch {
		case strings.HasPrefix(arg, "-"):
		case strings.HasSuffix(arg, ".a"):
			libs.Static = append(libs.Static, arg)
		case strings.HasSuffix(arg, ".so") || strings.Contains(arg, ".so."):
			libs.Shared = append(libs.Shared, arg)
		}
	}
	return libs
}

// RawCommand implements Target.
// A command running cmake other than `cmake -E` reconfigures the build.
func (t *CMake) RawCommand() (string, bool) {
	if t.RuleKind() != CustomCommand {
		return "", false
	}
	cmd := stripChdir(t.variable("COMMAND"))
	tool, args := toolName(cmd)
	if tool == "cmake" && (len(args) == 0 || args[0] != "-E") {
		return "", false
	}
	return cmd, true
}

// ResponseFile implements Target.
func (t *CMake) ResponseFile() (ResponseFile, bool) {
	return ResponseFile{}, false
}
