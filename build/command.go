// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"path"
	"sort"
	"strings"

	"go.chromium.org/infra/build/ninja2soong/generator"
)

// cmdOutput is an output of a custom command.
type cmdOutput struct {
	// Path is relative to the build root.
	Path string
	// Out is the genrule output name.
	Out string
}

// cmdInput is a source file used by a custom command.
type cmdInput struct {
	// Path is the path as written in the command.
	Path string
	// Src is relative to the source root.
	Src string
}

// cmdDep is a build output of another module used by a custom command.
type cmdDep struct {
	// Path is relative to the build root.
	Path string
	// Ref is the location label, e.g. "tool" or ":gen_foo_h".
	Ref string
}

// commandSpec is a custom command and the paths it refers to.
type commandSpec struct {
	Command      string
	BuildRoot    string
	SrcRoot      string
	Interpreters []string
	Outputs      []cmdOutput
	Inputs       []cmdInput
	Deps         []cmdDep
	DepsPrefix   string
	// Anchor is a source of the module used to locate the build and
	// source roots at build time.
	Anchor string
	Rsp    *generator.ResponseFile
}

// rewriteCommand rewrites a custom command to refer to files with
// genrule location references.
// It reports whether the command needs Anchor in the module's srcs.
func rewriteCommand(c commandSpec) (string, bool) {
	rewrite := func(cmd string) (string, bool) {
		cmd = stripBuildRoot(cmd, c.BuildRoot)
		cmd = replaceOutputs(cmd, c.Outputs)
		cmd = replaceInputs(cmd, c.Inputs)
		cmd = replaceDeps(cmd, c.Deps, c.DepsPrefix)
		return replaceResidualRoot(cmd, c.BuildRoot, c.SrcRoot, c.Anchor)
	}
	cmd := stripInterpreter(escapeDollar(c.Command), c.Interpreters)
	cmd, anchored := rewrite(cmd)
	cmd, rspAnchored := prependRspFile(cmd, c.Rsp, c.BuildRoot, rewrite)
	return cmd, anchored || rspAnchored
}

// escapeDollar escapes `$` for genrule commands.
func escapeDollar(cmd string) string {
	return strings.ReplaceAll(cmd, "$", "$$")
}

// stripInterpreter strips a leading interpreter, e.g. `/usr/bin/python3 `.
func stripInterpreter(cmd string, interpreters []string) string {
	for _, interp := range interpreters {
		if rest, ok := strings.CutPrefix(cmd, interp+" "); ok {
			return strings.TrimLeft(rest, " ")
		}
	}
	return cmd
}

// stripBuildRoot makes paths under the build root relative.
func stripBuildRoot(cmd, buildRoot string) string {
	return strings.ReplaceAll(cmd, buildRoot+"/", "")
}

// replaceOutputs replaces outputs, and outputs referred by basename,
// with their location in the genrule's output directory.
func replaceOutputs(cmd string, outputs []cmdOutput) string {
	outputs = sortedByPathLen(outputs, func(o cmdOutput) string { return o.Path })
	for _, o := range outputs {
		ref := "$(genDir)/" + o.Out
		cmd = replacePath(cmd, o.Path, ref)
		cmd = replacePath(cmd, " "+path.Base(o.Path), " "+ref)
	}
	return cmd
}

// replaceInputs replaces sources with location references.
func replaceInputs(cmd string, inputs []cmdInput) string {
	inputs = sortedByPathLen(inputs, func(in cmdInput) string { return in.Path })
	for _, in := range inputs {
		cmd = replacePath(cmd, in.Path, "$(location "+in.Src+")")
	}
	return cmd
}

// replaceDeps replaces outputs of other modules, with or without
// prefix, with location references.
func replaceDeps(cmd string, deps []cmdDep, prefix string) string {
	deps = sortedByPathLen(deps, func(d cmdDep) string { return d.Path })
	for _, d := range deps {
		ref := "$(location " + d.Ref + ")"
		if prefix != "" {
			cmd = replacePath(cmd, prefix+d.Path, ref)
		}
		cmd = replacePath(cmd, d.Path, ref)
	}
	return cmd
}

// replaceResidualRoot replaces the remaining references to the build
// root and the source root with directories computed from the location
// of anchor. Without anchor, the build root becomes the genrule's output
// directory and the source root is kept.
// It reports whether anchor was used.
func replaceResidualRoot(cmd, buildRoot, srcRoot, anchor string) (string, bool) {
	used := false
	if anchor == "" {
		return replaceRoot(cmd, buildRoot, "$(genDir)"), false
	}
	anchorDir := "$$(dirname $(location " + anchor + "))"
	if s := replaceRoot(cmd, buildRoot, anchorDir); s != cmd {
		cmd, used = s, true
	}
	srcDir := anchorDir
	if dir := path.Dir(anchor); dir != "." {
		srcDir += strings.Repeat("/..", strings.Count(dir, "/")+1)
	}
	if s := replaceRoot(cmd, srcRoot, srcDir); s != cmd {
		cmd, used = s, true
	}
	return cmd, used
}

// prependRspFile writes the response file before running the command.
func prependRspFile(cmd string, rsp *generator.ResponseFile, buildRoot string, rewrite func(string) (string, bool)) (string, bool) {
	if rsp == nil {
		return cmd, false
	}
	rel := strings.TrimPrefix(rsp.Path, buildRoot+"/")
	loc := "$(genDir)/" + rel
	cmd = replacePath(cmd, rel, loc)
	content, anchored := rewrite(escapeDollar(rsp.Content))
	var sb strings.Builder
	if dir := path.Dir(rel); dir != "." {
		sb.WriteString("mkdir -p $(genDir)/" + dir + " && ")
	}
	sb.WriteString("echo " + shellQuote(content) + " > " + loc + " && ")
	sb.WriteString(cmd)
	return sb.String(), anchored
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func sortedByPathLen[E any](s []E, key func(E) string) []E {
	r := make([]E, len(s))
	copy(r, s)
	sort.SliceStable(r, func(i, j int) bool { return len(key(r[i])) > len(key(r[j])) })
	return r
}

func isPathChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("._-+/", c) >= 0
}

// atPathStart reports whether a path may start at s[i]: after a
// delimiter, or right after an option such as -I or --out=.
func atPathStart(s string, i int) bool {
	if i == 0 || !isPathChar(s[i-1]) {
		return true
	}
	start := strings.LastIndexAny(s[:i], " \t") + 1
	return s[start] == '-' && s[i-1] != '/'
}

// replacePath replaces old with repl in s where old is a whole path,
// outside of `$(...)` references.
func replacePath(s, old, repl string) string {
	return replaceMatch(s, old, repl, func(next byte) bool { return !isPathChar(next) })
}

// replaceRoot replaces the directory root with repl where it is a whole
// path or a prefix of one.
func replaceRoot(s, root, repl string) string {
	if root == "" {
		return s
	}
	return replaceMatch(s, root, repl, func(next byte) bool { return next == '/' || !isPathChar(next) })
}

func replaceMatch(s, old, repl string, endOK func(byte) bool) string {
	if old == "" || !strings.Contains(s, old) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '$' && i+1 < len(s) {
			switch s[i+1] {
			case '$':
				sb.WriteString("$$")
				i += 2
				continue
			case '(':
				if end := strings.IndexByte(s[i:], ')'); end >= 0 {
					sb.WriteString(s[i : i+end+1])
					i += end + 1
					continue
				}
			}
		}
		if strings.HasPrefix(s[i:], old) && (old[0] == ' ' || atPathStart(s, i)) {
			j := i + len(old)
			if j == len(s) || endOK(s[j]) {
				sb.WriteString(repl)
				i = j
				continue
			}
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}
