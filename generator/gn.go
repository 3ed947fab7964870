// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package generator

import (
	"path"
	"strings"

	"go.chromium.org/infra/build/ninja2soong/toolsupport/ninjautil"
	"go.chromium.org/infra/build/ninja2soong/toolsupport/shutil"
)

// GN is an edge written by GN.
//
// GN writes compiler settings (defines, include_dirs, cflags*) once per
// target as file-scope bindings of the target's .ninja file, and link
// settings (ldflags, libs, solibs) on the link edge. Tool rules may be
// prefixed by the toolchain name, e.g. `clang_x64_cxx`.
type GN struct {
	edge    *ninjautil.Edge
	globals map[string]string
}

// NewGN returns the GN view of edge, without globals.
func NewGN(edge *ninjautil.Edge) *GN {
	return &GN{edge: edge}
}

// NewGNTarget returns the GN view of edge using the file-scope bindings
// recorded by the parser.
func NewGNTarget(edge *ninjautil.Edge) *GN {
	t := NewGN(edge)
	t.SetGlobals(edge.Globals)
	return t
}

// SetGlobals sets the file-scope bindings, looked up after the edge's own.
func (t *GN) SetGlobals(globals map[string]string) {
	t.globals = globals
}

// Edge implements Target.
func (t *GN) Edge() *ninjautil.Edge { return t.edge }

// ordered so that no tool is a `_`-suffix of a later one.
var gnTools = []string{
	"solink_module", "solink", "alink", "link",
	"objcxx", "objc", "cxx", "cc", "asm",
	"stamp", "copy", "phony",
}

// tool returns the tool of the rule without the toolchain prefix.
func (t *GN) tool() string {
	rule := t.edge.Rule
	if strings.HasPrefix(rule, "__") {
		return ""
	}
	for _, tool := range gnTools {
		if rule == tool || strings.HasSuffix(rule, "_"+tool) {
			return tool
		}
	}
	return rule
}

// RuleKind implements Target.
func (t *GN) RuleKind() RuleKind {
	if strings.HasPrefix(t.edge.Rule, "__") {
		return CustomCommand
	}
	switch t.tool() {
	case "cc", "cxx", "asm", "objc", "objcxx":
		return CompilationUnit
	case "alink":
		return StaticLibrary
	case "solink", "solink_module":
		return SharedLibrary
	case "link":
		return Binary
	case "stamp", "phony":
		return Phony
	case "copy", "gn":
		return CustomCommand
	}
	return Unclassified
}

// lookup returns a binding, looking at the edge, then the globals.
func (t *GN) lookup(key string) string {
	if v, ok := t.edge.Variables[key]; ok {
		return v
	}
	return t.globals[key]
}

func (t *GN) args(key string) []string {
	return shutil.Fields(ninjautil.Unescape(t.lookup(key)))
}

// Sources implements Target.
func (t *GN) Sources(buildRoot string) []string {
	return absPaths(buildRoot, t.edge.Inputs)
}

// Includes implements Target.
func (t *GN) Includes(buildRoot string) []string {
	var includes []string
	for _, arg := range t.args("include_dirs") {
		dir, ok := strings.CutPrefix(arg, "-I")
		if !ok {
			continue
		}
		includes = append(includes, absPath(buildRoot, dir))
	}
	return includes
}

// Defines implements Target.
func (t *GN) Defines() []string {
	var defines []string
	for _, arg := range t.args("defines") {
		if d, ok := strings.CutPrefix(arg, "-D"); ok && d != "" {
			defines = append(defines, d)
		}
	}
	return defines
}

// Cflags implements Target.
func (t *GN) Cflags() []string {
	cflags := t.args("cflags")
	switch t.tool() {
	case "cc":
		cflags = append(cflags, t.args("cflags_c")...)
	case "cxx":
		cflags = append(cflags, t.args("cflags_cc")...)
	case "objc":
		cflags = append(cflags, t.args("cflags_objc")...)
	case "objcxx":
		cflags = append(cflags, t.args("cflags_objcc")...)
	case "asm":
		cflags = append(t.args("asmflags"), t.args("cflags_asm")...)
	}
	return cflags
}

// LinkFlags implements Target.
func (t *GN) LinkFlags() (string, []string) {
	var versionScript string
	var flags []string
	for _, arg := range t.args("ldflags") {
		if vs, ok := versionScriptFlag(arg); ok {
			versionScript = vs
			continue
		}
		flags = append(flags, arg)
	}
	return versionScript, flags
}

// LinkLibraries implements Target.
// Static libraries are inputs of the link edge; shared libraries come
// from solibs and libs.
func (t *GN) LinkLibraries() LinkLibraries {
	var libs LinkLibraries
	for _, in := range t.edge.Inputs {
		if strings.HasSuffix(in, ".a") {
			libs.Static = append(libs.Static, in)
		}
	}
	for _, lib := range t.args("solibs") {
		libs.Shared = append(libs.Shared, path.Clean(lib))
	}
	libs.Shared = append(libs.Shared, t.args("libs")...)
	return libs
}

// evalLookup looks up ninja variables of the edge as ninja would when
// running the rule's command.
func (t *GN) evalLookup(depth int) func(string) string {
	return func(key string) string {
		switch key {
		case "in":
			return strings.Join(t.edge.Inputs, " ")
		case "in_newline":
			return strings.Join(t.edge.Inputs, "\n")
		case "out":
			return strings.Join(t.edge.Outputs, " ")
		}
		if depth > 8 {
			return ""
		}
		v, ok := t.edge.Variables[key]
		if !ok {
			v, ok = t.edge.RuleVars[key]
		}
		if !ok {
			v = t.globals[key]
		}
		return ninjautil.Expand(v, t.evalLookup(depth+1))
	}
}

// RawCommand implements Target.
// Action rules run the rule's command; the `copy` tool becomes `cp`;
// the `gn` rule regenerates the build and has no command.
func (t *GN) RawCommand() (string, bool) {
	if t.RuleKind() != CustomCommand {
		return "", false
	}
	switch t.tool() {
	case "gn":
		return "", false
	case "copy":
		return "cp " + strings.Join(t.edge.Inputs, " ") + " " + strings.Join(t.edge.Outputs, " "), true
	}
	cmd, ok := t.edge.RuleVars["command"]
	if !ok {
		return "", false
	}
	cmd = ninjautil.Expand(cmd, t.evalLookup(0))
	if tool, _ := toolName(cmd); tool == "gn" {
		return "", false
	}
	return cmd, true
}

// ResponseFile implements Target.
func (t *GN) ResponseFile() (ResponseFile, bool) {
	rspfile, ok := t.edge.RuleVars["rspfile"]
	if !ok || t.RuleKind() != CustomCommand {
		return ResponseFile{}, false
	}
	lookup := t.evalLookup(0)
	return ResponseFile{
		Path:    ninjautil.Expand(rspfile, lookup),
		Content: ninjautil.Expand(t.edge.RuleVars["rspfile_content"], lookup),
	}, true
}
