// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ninjautil

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Edge is one build statement of a build manifest.
// Further reading: https://ninja-build.org/manual.html#_build_statements
//
// Edges are created by the parser and are read-only afterwards.
type Edge struct {
	// Rule is the name of the rule used by the build statement.
	Rule string

	// Outputs are explicit outputs. Outputs[0] names the edge.
	Outputs []string
	// ImplicitOutputs are outputs listed after `|` in the output section.
	ImplicitOutputs []string

	// Inputs are explicit inputs, in manifest order.
	Inputs []string
	// ImplicitDeps are dependencies listed after `|`.
	ImplicitDeps []string
	// OrderOnlyDeps are dependencies listed after `||`.
	OrderOnlyDeps []string

	// Variables are the edge-local bindings (indented `key = value` lines).
	Variables map[string]string

	// Globals are the top-level bindings in effect when the edge was parsed.
	// Shared between edges; must not be modified.
	Globals map[string]string

	// RuleVars are the bindings of the rule, if the rule was declared.
	// Shared between edges; must not be modified.
	RuleVars map[string]string

	// File and Line locate the build statement.
	File string
	Line int
}

// AllOutputs returns explicit and implicit outputs.
func (e *Edge) AllOutputs() []string {
	outs := make([]string, 0, len(e.Outputs)+len(e.ImplicitOutputs))
	outs = append(outs, e.Outputs...)
	return append(outs, e.ImplicitOutputs...)
}

// Deps returns explicit inputs, implicit deps and order-only deps, in that order.
func (e *Edge) Deps() []string {
	deps := make([]string, 0, len(e.Inputs)+len(e.ImplicitDeps)+len(e.OrderOnlyDeps))
	deps = append(deps, e.Inputs...)
	deps = append(deps, e.ImplicitDeps...)
	return append(deps, e.OrderOnlyDeps...)
}

// Variable returns the edge-local binding of key.
func (e *Edge) Variable(key string) string {
	return e.Variables[key]
}

// Lookup returns the value of key, looking at edge bindings, then rule
// bindings, then top-level bindings.
func (e *Edge) Lookup(key string) (string, bool) {
	if v, ok := e.Variables[key]; ok {
		return v, true
	}
	if v, ok := e.RuleVars[key]; ok {
		return v, true
	}
	v, ok := e.Globals[key]
	return v, ok
}

func (e *Edge) String() string {
	var sb strings.Builder
	e.Print(&sb)
	return sb.String()
}

// Print prints the edge as a build statement.
func (e *Edge) Print(w io.Writer) {
	if e.File != "" {
		fmt.Fprintf(w, "# %s:%d\n", e.File, e.Line)
	}
	fmt.Fprintf(w, "build %s", strings.Join(e.Outputs, " "))
	if len(e.ImplicitOutputs) > 0 {
		fmt.Fprintf(w, " | %s", strings.Join(e.ImplicitOutputs, " "))
	}
	fmt.Fprintf(w, ": %s", e.Rule)
	if len(e.Inputs) > 0 {
		fmt.Fprintf(w, " %s", strings.Join(e.Inputs, " "))
	}
	if len(e.ImplicitDeps) > 0 {
		fmt.Fprintf(w, " | %s", strings.Join(e.ImplicitDeps, " "))
	}
	if len(e.OrderOnlyDeps) > 0 {
		fmt.Fprintf(w, " || %s", strings.Join(e.OrderOnlyDeps, " "))
	}
	fmt.Fprintln(w)
	keys := make([]string, 0, len(e.Variables))
	for k := range e.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s = %s\n", k, e.Variables[k])
	}
}
