// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package soong models Android.bp modules and renders them.
package soong

import (
	"slices"
	"sort"
	"strconv"

	"github.com/google/blueprint/parser"
)

// Value is a property value of a module.
// It is one of Str, StrSet, Bool or Nested.
type Value interface {
	// Type returns the name of the value's variant.
	Type() string

	// empty reports whether the value renders to nothing.
	empty() bool
	expr() parser.Expression
}

// Str is a string property.
type Str string

// StrSet is a set of strings. It is rendered sorted and deduplicated.
type StrSet []string

// Bool is a boolean property.
type Bool bool

// Field is a named value in a Nested block.
type Field struct {
	Name  string
	Value Value
}

// Nested is a block of properties, such as `arch: { arm64: { ... } }`.
// Fields are rendered in the given order.
type Nested []Field

// NewNested returns a Nested block of props in the order modules render
// their properties.
func NewNested(props map[string]Value) Nested {
	var n Nested
	for _, name := range orderProps(props) {
		n = append(n, Field{Name: name, Value: props[name]})
	}
	return n
}

func (Str) Type() string    { return "string" }
func (StrSet) Type() string { return "string set" }
func (Bool) Type() string   { return "bool" }
func (Nested) Type() string { return "nested" }

func (Str) empty() bool      { return false }
func (s StrSet) empty() bool { return len(s) == 0 }
func (Bool) empty() bool     { return false }
func (n Nested) empty() bool {
	for _, f := range n {
		if !f.Value.empty() {
			return false
		}
	}
	return true
}

func (s Str) expr() parser.Expression {
	return &parser.String{Value: string(s)}
}

// Sorted returns the sorted, deduplicated values of the set.
func (s StrSet) Sorted() []string {
	r := slices.Clone([]string(s))
	sort.Strings(r)
	return slices.Compact(r)
}

// Contains reports whether v is in the set.
func (s StrSet) Contains(v string) bool {
	return slices.Contains(s, v)
}

func (s StrSet) expr() parser.Expression {
	list := &parser.List{}
	for _, v := range s.Sorted() {
		list.Values = append(list.Values, &parser.String{Value: v})
	}
	return list
}

func (b Bool) expr() parser.Expression {
	return &parser.Bool{Value: bool(b), Token: strconv.FormatBool(bool(b))}
}

func (n Nested) expr() parser.Expression {
	m := &parser.Map{}
	for _, f := range n {
		if p := property(f.Name, f.Value); p != nil {
			m.Properties = append(m.Properties, p)
		}
	}
	return m
}

// property returns the AST of name: v, or nil if v is empty.
func property(name string, v Value) *parser.Property {
	if v.empty() {
		return nil
	}
	return &parser.Property{Name: name, Value: v.expr()}
}

// string properties that come first, in this order.
var leadingProps = []string{"name", "stem", "version_script", "cmd"}

// propRank groups properties: leading strings, other strings, sets,
// booleans, nested blocks.
func propRank(name string, v Value) int {
	if i := slices.Index(leadingProps, name); i >= 0 {
		return i
	}
	base := len(leadingProps)
	switch v.(type) {
	case Str:
		return base
	case StrSet:
		return base + 1
	case Bool:
		return base + 2
	}
	return base + 3
}

// orderProps returns the names of props in rendering order.
func orderProps(props map[string]Value) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := propRank(names[i], props[names[i]]), propRank(names[j], props[names[j]])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	return names
}
