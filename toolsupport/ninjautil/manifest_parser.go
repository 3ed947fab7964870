// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ninjautil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ParseError is a syntax error in a build manifest.
type ParseError struct {
	File string
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s\n%s", e.File, e.Line, e.Msg, e.Text)
}

// Parse parses a build manifest held in buf.
// include and subninja statements are not allowed; use Load for them.
func Parse(fname string, buf []byte) ([]*Edge, error) {
	p := newManifestParser(context.Background(), nil)
	err := p.parse(fname, buf)
	if err != nil {
		return nil, err
	}
	return p.edges, nil
}

// Load loads the build manifest fname from fsys, following include and
// subninja statements. Paths are relative to the root of fsys, i.e. the
// build directory.
func Load(ctx context.Context, fsys fs.FS, fname string) ([]*Edge, error) {
	p := newManifestParser(ctx, fsys)
	err := p.load(fname)
	if err != nil {
		return nil, err
	}
	return p.edges, nil
}

// shared state of all files of a manifest.
type manifestState struct {
	ctx       context.Context
	fsys      fs.FS
	edges     []*Edge
	producers map[string]*Edge
}

// manifestParser parses one scope of a manifest.
// subninja starts a new scope; include reuses the current one.
type manifestParser struct {
	*manifestState

	rules map[string]map[string]string

	// globals is copy-on-write once an edge refers to it.
	globals       map[string]string
	globalsShared bool
}

func newManifestParser(ctx context.Context, fsys fs.FS) *manifestParser {
	return &manifestParser{
		manifestState: &manifestState{
			ctx:       ctx,
			fsys:      fsys,
			producers: make(map[string]*Edge),
		},
		rules:   make(map[string]map[string]string),
		globals: make(map[string]string),
	}
}

func (p *manifestParser) load(fname string) error {
	buf, err := fs.ReadFile(p.fsys, fname)
	if err != nil {
		return err
	}
	return p.parse(fname, buf)
}

type blockKind int

const (
	blockNone blockKind = iota
	blockEdge
	blockRule
	blockIgnored
)

// logicalLine is a manifest line after joining `$`-newline continuations.
type logicalLine struct {
	text string
	num  int
}

func splitLines(buf []byte) []logicalLine {
	var lines []logicalLine
	var cur strings.Builder
	start := 0
	for i, line := range strings.Split(string(buf), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if cur.Len() == 0 {
			start = i + 1
		} else {
			line = strings.TrimLeft(line, " ")
		}
		if hasContinuation(line) {
			cur.WriteString(line[:len(line)-1])
			continue
		}
		cur.WriteString(line)
		lines = append(lines, logicalLine{text: cur.String(), num: start})
		cur.Reset()
	}
	if cur.Len() > 0 {
		lines = append(lines, logicalLine{text: cur.String(), num: start})
	}
	return lines
}

// hasContinuation reports whether line ends with an unescaped `$`.
func hasContinuation(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '$'; i-- {
		n++
	}
	return n%2 == 1
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "\t")
}

func (p *manifestParser) parse(fname string, buf []byte) error {
	var (
		kind blockKind
		edge *Edge
		rule map[string]string
	)
	for _, l := range splitLines(buf) {
		trimmed := strings.TrimSpace(l.text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		perr := func(format string, args ...any) error {
			return &ParseError{File: fname, Line: l.num, Text: l.text, Msg: fmt.Sprintf(format, args...)}
		}
		if isIndented(l.text) {
			if kind == blockNone {
				return perr("indented line outside of a build, rule or pool statement")
			}
			key, value, ok := parseBinding(l.text)
			if !ok {
				return perr("missing '=' in variable assignment")
			}
			switch kind {
			case blockEdge:
				edge.Variables[key] = value
			case blockRule:
				rule[key] = value
			}
			continue
		}
		kind = blockNone
		keyword, rest, _ := strings.Cut(trimmed, " ")
		switch keyword {
		case "build":
			var err error
			edge, err = parseBuildLine(trimmed)
			if err != nil {
				return perr("%v", err)
			}
			edge.File = fname
			edge.Line = l.num
			edge.Variables = make(map[string]string)
			edge.RuleVars = p.rules[edge.Rule]
			edge.Globals = p.globals
			p.globalsShared = true
			for _, out := range edge.AllOutputs() {
				if prev, ok := p.producers[out]; ok {
					return perr("multiple rules generate %s (first at %s:%d)", out, prev.File, prev.Line)
				}
				p.producers[out] = edge
			}
			p.edges = append(p.edges, edge)
			kind = blockEdge
		case "rule":
			name := strings.TrimSpace(rest)
			if name == "" {
				return perr("expected rule name")
			}
			rule = make(map[string]string)
			p.rules[name] = rule
			kind = blockRule
		case "pool", "default":
			kind = blockIgnored
		case "include", "subninja":
			err := p.parseInclude(strings.TrimSpace(rest), keyword == "subninja")
			if err != nil {
				var perror *ParseError
				if errors.As(err, &perror) {
					return err
				}
				return perr("%s: %v", keyword, err)
			}
		default:
			key, value, ok := parseBinding(trimmed)
			if !ok {
				return perr("expected 'build' statement or variable assignment")
			}
			if p.globalsShared {
				p.globals = maps.Clone(p.globals)
				p.globalsShared = false
			}
			p.globals[key] = value
		}
	}
	return nil
}

func (p *manifestParser) parseInclude(fname string, newScope bool) error {
	if p.fsys == nil {
		return fmt.Errorf("cannot load %q without a filesystem", fname)
	}
	select {
	case <-p.ctx.Done():
		return fmt.Errorf("interrupted in manifest parser: %w", p.ctx.Err())
	default:
	}
	fname = path.Clean(strings.TrimPrefix(fname, "./"))
	sub := p
	op := "include"
	if newScope {
		op = "subninja"
		sub = &manifestParser{
			manifestState: p.manifestState,
			rules:         maps.Clone(p.rules),
			globals:       maps.Clone(p.globals),
		}
	}
	started := time.Now()
	err := sub.load(fname)
	if err != nil {
		return err
	}
	log.Debugf("%s %s %s", op, fname, time.Since(started))
	return nil
}

// parseBinding parses `key = value`. The value keeps trailing whitespace.
func parseBinding(line string) (string, string, bool) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimLeft(value, " \t"), true
}

// parseBuildLine parses
//
//	build <outs> [| <implicit outs>]: <rule> <ins> [| <implicit deps>] [|| <order-only deps>]
func parseBuildLine(line string) (*Edge, error) {
	rest, ok := strings.CutPrefix(line, "build")
	if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
		return nil, fmt.Errorf("missing 'build' keyword")
	}
	colon := indexUnescaped(rest, ':')
	if colon < 0 {
		return nil, fmt.Errorf("missing ':' between outputs and rule")
	}
	outSection, inSection := rest[:colon], rest[colon+1:]
	if indexUnescaped(inSection, ':') >= 0 {
		return nil, fmt.Errorf("duplicate ':' in build statement")
	}
	explicitOuts, implicitOuts, _ := strings.Cut(outSection, "|")
	main, orderOnly, _ := strings.Cut(inSection, "||")
	ruleAndInputs, implicit, _ := strings.Cut(main, "|")
	fields := splitPaths(ruleAndInputs)
	if len(fields) == 0 {
		return nil, fmt.Errorf("missing rule name")
	}
	edge := &Edge{
		Rule:            fields[0],
		Outputs:         splitPaths(explicitOuts),
		ImplicitOutputs: splitPaths(implicitOuts),
		Inputs:          fields[1:],
		ImplicitDeps:    splitPaths(implicit),
		OrderOnlyDeps:   splitPaths(orderOnly),
	}
	if len(edge.Outputs) == 0 {
		return nil, fmt.Errorf("expected output path")
	}
	return edge, nil
}

// indexUnescaped returns the index of the first c not preceded by `$`.
func indexUnescaped(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '$':
			i++
		case c:
			return i
		}
	}
	return -1
}

// splitPaths splits s on spaces, dropping empty tokens.
// Escaped spaces are not supported; `$:` is unescaped to `:`.
func splitPaths(s string) []string {
	var paths []string
	for _, f := range strings.Split(s, " ") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		paths = append(paths, strings.ReplaceAll(f, "$:", ":"))
	}
	return paths
}
