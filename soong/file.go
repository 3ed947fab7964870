// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package soong

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/blueprint/parser"
)

// License describes the `license {}` block of a package.
type License struct {
	Name       string
	Kinds      []string
	Text       []string
	Visibility []string
}

// Header is what precedes the modules of an Android.bp file.
type Header struct {
	// Comment lines, without the `//` prefix.
	Comment           []string
	DefaultVisibility []string
	License           *License
}

// Package is the set of modules of one Android.bp file, keyed by name.
type Package struct {
	modules map[string]*Module
}

// NewPackage returns an empty package.
func NewPackage() *Package {
	return &Package{modules: make(map[string]*Module)}
}

// Add adds m to the package.
// It fails if another module has the same name.
func (p *Package) Add(m *Module) error {
	name := m.Name()
	if name == "" {
		return fmt.Errorf("%s without name", m.Kind)
	}
	if prev, ok := p.modules[name]; ok {
		return fmt.Errorf("duplicate module %q: %s and %s: %w", name, prev.Kind, m.Kind, ErrPolicyViolation)
	}
	p.modules[name] = m
	return nil
}

// Module returns the module called name.
func (p *Package) Module(name string) (*Module, bool) {
	m, ok := p.modules[name]
	return m, ok
}

// Len returns the number of modules.
func (p *Package) Len() int {
	return len(p.modules)
}

// Names returns the module names, sorted.
func (p *Package) Names() []string {
	names := make([]string, 0, len(p.modules))
	for name := range p.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Modules returns the modules sorted by name.
func (p *Package) Modules() []*Module {
	var modules []*Module
	for _, name := range p.Names() {
		modules = append(modules, p.modules[name])
	}
	return modules
}

// Render writes the package as an Android.bp file: the header comment,
// the `package` and `license` blocks, then the modules sorted by name.
func (p *Package) Render(w io.Writer, h Header) error {
	pkg := NewModule("package")
	pkg.AddProp("default_visibility", StrSet(h.DefaultVisibility))
	if h.License != nil {
		pkg.AddProp("default_applicable_licenses", StrSet{h.License.Name})
	}
	defs := []parser.Definition{pkg.def()}
	if h.License != nil {
		lic := NewModule("license")
		lic.AddProp("name", Str(h.License.Name))
		lic.AddProp("visibility", StrSet(h.License.Visibility))
		lic.AddProp("license_kinds", StrSet(h.License.Kinds))
		lic.AddProp("license_text", StrSet(h.License.Text))
		defs = append(defs, lic.def())
	}
	for _, m := range p.Modules() {
		defs = append(defs, m.def())
	}
	b, err := printDefs(defs...)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, line := range h.Comment {
		buf.WriteString(strings.TrimRight("// "+line, " "))
		buf.WriteByte('\n')
	}
	if len(h.Comment) > 0 {
		buf.WriteByte('\n')
	}
	buf.Write(b)
	_, err = buf.WriteTo(w)
	return err
}
