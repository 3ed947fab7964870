// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package soong

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/blueprint/parser"
)

// ErrPolicyViolation is returned when module data is inconsistent, e.g.
// a property has different types in two architectures.
var ErrPolicyViolation = errors.New("policy violation")

// Module is an Android.bp module, e.g. `cc_library_static { ... }`.
type Module struct {
	Kind  string
	props map[string]Value
}

// NewModule returns an empty module of kind.
func NewModule(kind string) *Module {
	return &Module{
		Kind:  kind,
		props: make(map[string]Value),
	}
}

// Name returns the value of the `name` property.
func (m *Module) Name() string {
	s, _ := m.props["name"].(Str)
	return string(s)
}

// AddProp sets the property name to v, replacing any previous value.
func (m *Module) AddProp(name string, v Value) {
	m.props[name] = v
}

// ExtendProp appends values to the string set property name.
// It fails if the property doesn't exist or is not a string set.
func (m *Module) ExtendProp(name string, values ...string) error {
	v, ok := m.props[name]
	if !ok {
		return fmt.Errorf("%s %q: no property %q to extend", m.Kind, m.Name(), name)
	}
	set, ok := v.(StrSet)
	if !ok {
		return fmt.Errorf("%s %q: cannot extend %s property %q: %w", m.Kind, m.Name(), v.Type(), name, ErrPolicyViolation)
	}
	m.props[name] = append(set, values...)
	return nil
}

// Prop returns the property name.
func (m *Module) Prop(name string) (Value, bool) {
	v, ok := m.props[name]
	return v, ok
}

// DeleteProp removes the property name.
func (m *Module) DeleteProp(name string) {
	delete(m.props, name)
}

// Props returns the property names in rendering order.
func (m *Module) Props() []string {
	return orderProps(m.props)
}

// def returns the module as a blueprint definition with its properties in
// rendering order.
func (m *Module) def() *parser.Module {
	def := &parser.Module{Type: m.Kind}
	for _, name := range m.Props() {
		if p := property(name, m.props[name]); p != nil {
			def.Properties = append(def.Properties, p)
		}
	}
	return def
}

// printDefs formats defs in Android.bp syntax.
func printDefs(defs ...parser.Definition) ([]byte, error) {
	b, err := parser.Print(&parser.File{Defs: defs})
	if err != nil {
		return nil, fmt.Errorf("failed to print Android.bp: %w", err)
	}
	return b, nil
}

// Render writes the module in Android.bp syntax.
func (m *Module) Render(w io.Writer) error {
	b, err := printDefs(m.def())
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func (m *Module) String() string {
	b, err := printDefs(m.def())
	if err != nil {
		return fmt.Sprintf("%s <%v>", m.Kind, err)
	}
	return string(b)
}
