// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package generator

import (
	"path"
	"slices"
	"strings"

	"go.chromium.org/infra/build/ninja2soong/toolsupport/ninjautil"
	"go.chromium.org/infra/build/ninja2soong/toolsupport/shutil"
)

// Meson is an edge written by Meson's ninja backend.
//
// Compiler arguments, including -I and -D, are in ARGS; linker arguments,
// including libraries, are in LINK_ARGS. Arguments are shell quoted.
type Meson struct {
	edge *ninjautil.Edge
}

// NewMeson returns the Meson view of edge.
func NewMeson(edge *ninjautil.Edge) *Meson {
	return &Meson{edge: edge}
}

// Edge implements Target.
func (t *Meson) Edge() *ninjautil.Edge { return t.edge }

// RuleKind implements Target.
// `<lang>_LINKER` links both shared libraries and executables; it is a
// shared library when -fPIC is passed to the linker.
func (t *Meson) RuleKind() RuleKind {
	rule := strings.TrimSuffix(t.edge.Rule, "_RSP")
	rule = strings.TrimSuffix(rule, "_FOR_BUILD")
	switch {
	case rule == "phony", rule == "SHSYM", rule == "REGENERATE_BUILD", rule == "CLEAN":
		return Phony
	case rule == "CUSTOM_COMMAND", rule == "CUSTOM_COMMAND_DEP":
		return CustomCommand
	case strings.HasSuffix(rule, "_COMPILER"):
		return CompilationUnit
	case strings.HasSuffix(rule, "_STATIC_LINKER"):
		return StaticLibrary
	case strings.HasSuffix(rule, "_LINKER"):
		_, flags := t.LinkFlags()
		if slices.Contains(flags, "-fPIC") {
			return SharedLibrary
		}
		return Binary
	}
	return Unclassified
}

func (t *Meson) args(key string) []string {
	return shutil.Fields(ninjautil.Unescape(t.edge.Variable(key)))
}

// Sources implements Target.
func (t *Meson) Sources(buildRoot string) []string {
	return absPaths(buildRoot, t.edge.Inputs)
}

// Includes implements Target.
func (t *Meson) Includes(buildRoot string) []string {
	var includes []string
	args := t.args("ARGS")
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
func (t *Meson) Defines() []string {
	var defines []string
	for _, arg := range t.args("ARGS") {
		if d, ok := strings.CutPrefix(arg, "-D"); ok && d != "" {
			defines = append(defines, d)
		}
	}
	return defines
}

// Cflags implements Target.
func (t *Meson) Cflags() []string {
	var cflags []string
	args := t.args("ARGS")
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-I" || arg == "-isystem":
			i++
		case strings.HasPrefix(arg, "-I"), strings.HasPrefix(arg, "-isystem"), strings.HasPrefix(arg, "-D"):
		default:
			cflags = append(cflags, arg)
		}
	}
	return cflags
}

// meson brackets libraries with these; they are not flags of their own.
var mesonLinkMarkers = []string{
	"-Wl,--start-group",
	"-Wl,--end-group",
	"-Wl,--whole-archive",
	"-Wl,--no-whole-archive",
}

// isMesonLibrary reports whether a link argument is a library file.
// Only the file name is matched; directories may contain ".a" or ".so".
func isMesonLibrary(arg string) bool {
	return !strings.HasPrefix(arg, "-") && (strings.HasSuffix(path.Base(arg), ".a") || isSharedLibrary(arg))
}

// isSharedLibrary matches libz.so and versioned names such as libz.so.1.
func isSharedLibrary(arg string) bool {
	base := path.Base(arg)
	return strings.HasSuffix(base, ".so") || strings.Contains(base, ".so.")
}

// LinkFlags implements Target.
func (t *Meson) LinkFlags() (string, []string) {
	var versionScript string
	var flags []string
	for _, arg := range t.args("LINK_ARGS") {
		switch {
		case isMesonLibrary(arg), slices.Contains(mesonLinkMarkers, arg):
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
// Static libraries between -Wl,--whole-archive and -Wl,--no-whole-archive
// are whole-archive libraries.
func (t *Meson) LinkLibraries() LinkLibraries {
	var libs LinkLibraries
	wholeArchive := false
	for _, arg := range t.args("LINK_ARGS") {
		switch {
		case arg == "-Wl,--whole-archive":
			wholeArchive = true
		case arg == "-Wl,--no-whole-archive":
			wholeArchive = false
		case !isMesonLibrary(arg):
		case isSharedLibrary(arg):
			libs.Shared = append(libs.Shared, arg)
		case wholeArchive:
			libs.WholeStatic = append(libs.WholeStatic, arg)
		default:
			libs.Static = append(libs.Static, arg)
		}
	}
	return libs
}

// RawCommand implements Target.
// `meson --internal exe` wrappers are unwrapped; any other meson
// invocation reconfigures the build.
func (t *Meson) RawCommand() (string, bool) {
	if t.RuleKind() != CustomCommand {
		return "", false
	}
	cmd := stripChdir(ninjautil.Unescape(t.edge.Variable("COMMAND")))
	tool, args := toolName(cmd)
	if tool != "meson" {
		return cmd, true
	}
	if len(args) < 2 || args[0] != "--internal" || args[1] != "exe" {
		return "", false
	}
	return unwrapMesonExe(cmd)
}

// unwrapMesonExe converts
//
//	meson --internal exe [--capture FILE] -- CMD...
//
// to `CMD... [> FILE]`.
func unwrapMesonExe(cmd string) (string, bool) {
	opts, wrapped, ok := strings.Cut(cmd, " -- ")
	if !ok {
		return "", false
	}
	var capture string
	args := shutil.Fields(opts)
	for i, arg := range args {
		if arg == "--capture" && i+1 < len(args) {
			capture = args[i+1]
		}
	}
	wrapped = strings.TrimSpace(wrapped)
	if capture != "" {
		wrapped += " > " + capture
	}
	return wrapped, true
}

// ResponseFile implements Target.
func (t *Meson) ResponseFile() (ResponseFile, bool) {
	return ResponseFile{}, false
}
