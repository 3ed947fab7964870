// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ninjautil

import (
	"fmt"
	"sort"
	"strings"
)

// Graph indexes edges by the paths they produce.
// It is immutable after NewGraph.
type Graph struct {
	edges     []*Edge
	producers map[string]*Edge
	consumed  map[string]bool
}

// NewGraph builds the graph of edges.
// It returns an error if two edges produce the same path.
func NewGraph(edges []*Edge) (*Graph, error) {
	g := &Graph{
		edges:     edges,
		producers: make(map[string]*Edge),
		consumed:  make(map[string]bool),
	}
	for _, e := range edges {
		for _, out := range e.AllOutputs() {
			if prev, ok := g.producers[out]; ok {
				return nil, fmt.Errorf("multiple rules generate %s: %s:%d and %s:%d", out, prev.File, prev.Line, e.File, e.Line)
			}
			g.producers[out] = e
		}
		for _, in := range e.Deps() {
			g.consumed[in] = true
		}
	}
	return g, nil
}

// Edges returns all edges in manifest order.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// Lookup returns the edge producing path.
func (g *Graph) Lookup(path string) (*Edge, bool) {
	e, ok := g.producers[path]
	return e, ok
}

// Targets returns edges for the named targets.
// If no target is given, it returns edges whose outputs are not used by
// any other edge, in manifest order.
func (g *Graph) Targets(args []string) ([]*Edge, error) {
	if len(args) == 0 {
		var roots []*Edge
		for _, e := range g.edges {
			root := true
			for _, out := range e.AllOutputs() {
				if g.consumed[out] {
					root = false
					break
				}
			}
			if root {
				roots = append(roots, e)
			}
		}
		return roots, nil
	}
	var edges []*Edge
	var missing []string
	for _, arg := range args {
		e, ok := g.producers[arg]
		if !ok {
			missing = append(missing, arg)
			continue
		}
		edges = append(edges, e)
	}
	switch len(missing) {
	case 0:
		return edges, nil
	case 1:
		if s := g.spellcheck(missing[0]); s != "" {
			return edges, fmt.Errorf("unknown target %q, did you mean %q?", missing[0], s)
		}
		return edges, fmt.Errorf("unknown target %q", missing[0])
	}
	sort.Strings(missing)
	return edges, fmt.Errorf("unknown targets: %s", strings.Join(missing, " "))
}

// Walk visits edges reachable from roots depth-first, each edge at most once.
// Paths without a producing edge are skipped.
// fn returns whether to descend into the dependencies of the edge.
func (g *Graph) Walk(roots []string, fn func(e *Edge) (bool, error)) error {
	seen := make(map[*Edge]bool)
	stack := make([]string, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e, ok := g.producers[p]
		if !ok || seen[e] {
			continue
		}
		seen[e] = true
		descend, err := fn(e)
		if err != nil {
			return err
		}
		if !descend {
			continue
		}
		deps := e.Deps()
		for i := len(deps) - 1; i >= 0; i-- {
			stack = append(stack, deps[i])
		}
	}
	return nil
}
