// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package soong

import (
	"fmt"
	"maps"
	"slices"
	"sort"
)

// Merge merges the packages generated for each architecture into one.
//
// Properties equal in every architecture are kept in the module itself;
// the others go to `arch: { <arch>: { ... } }`. String sets are split per
// value: values present in every architecture are common, the rest stay
// with their architecture. A module missing in some architectures is
// disabled by default and enabled in the architectures that have it.
func Merge(pkgs map[string]*Package) (*Package, error) {
	arches := slices.Sorted(maps.Keys(pkgs))
	names := make(map[string]bool)
	for _, pkg := range pkgs {
		for name := range pkg.modules {
			names[name] = true
		}
	}
	merged := NewPackage()
	for _, name := range slices.Sorted(maps.Keys(names)) {
		modules := make(map[string]*Module)
		var present []string
		for _, arch := range arches {
			if m, ok := pkgs[arch].modules[name]; ok {
				modules[arch] = m
				present = append(present, arch)
			}
		}
		m, err := mergeModule(name, present, modules)
		if err != nil {
			return nil, err
		}
		if len(present) < len(arches) {
			if _, ok := m.props["enabled"]; ok {
				return nil, fmt.Errorf("module %q: enabled set before merge: %w", name, ErrPolicyViolation)
			}
			m.AddProp("enabled", Bool(false))
			archProp(m, present, "enabled", Bool(true))
		}
		err = merged.Add(m)
		if err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// mergeModule merges the modules of the architectures in arches.
func mergeModule(name string, arches []string, modules map[string]*Module) (*Module, error) {
	kind := modules[arches[0]].Kind
	propNames := make(map[string]bool)
	for _, arch := range arches {
		m := modules[arch]
		if m.Kind != kind {
			return nil, fmt.Errorf("module %q is %s in %s and %s in %s: %w", name, kind, arches[0], m.Kind, arch, ErrPolicyViolation)
		}
		for prop := range m.props {
			propNames[prop] = true
		}
	}
	common := make(map[string]Value)
	perArch := make(map[string]map[string]Value)
	for _, arch := range arches {
		perArch[arch] = make(map[string]Value)
	}
	for _, prop := range slices.Sorted(maps.Keys(propNames)) {
		values := make(map[string]Value)
		for _, arch := range arches {
			if v, ok := modules[arch].props[prop]; ok {
				values[arch] = v
			}
		}
		err := mergeProp(prop, arches, values, common, perArch)
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", name, err)
		}
	}
	m := NewModule(kind)
	m.props = common
	var archFields Nested
	for _, arch := range arches {
		if len(perArch[arch]) == 0 {
			continue
		}
		archFields = append(archFields, Field{Name: arch, Value: NewNested(perArch[arch])})
	}
	if len(archFields) > 0 {
		m.AddProp("arch", archFields)
	}
	return m, nil
}

// mergeProp places the values of prop either in common or in perArch.
func mergeProp(prop string, arches []string, values map[string]Value, common map[string]Value, perArch map[string]map[string]Value) error {
	var first Value
	for _, arch := range arches {
		v, ok := values[arch]
		if !ok {
			continue
		}
		if first == nil {
			first = v
			continue
		}
		if v.Type() != first.Type() {
			return fmt.Errorf("property %q mixes %s and %s: %w", prop, first.Type(), v.Type(), ErrPolicyViolation)
		}
	}
	switch first.(type) {
	case Nested:
		return fmt.Errorf("cannot merge nested property %q: %w", prop, ErrPolicyViolation)
	case StrSet:
		mergeStrSet(prop, arches, values, common, perArch)
		return nil
	}
	if len(values) == len(arches) && allEqual(arches, values) {
		common[prop] = first
		return nil
	}
	for arch, v := range values {
		perArch[arch][prop] = v
	}
	return nil
}

func allEqual(arches []string, values map[string]Value) bool {
	for _, arch := range arches[1:] {
		if values[arch] != values[arches[0]] {
			return false
		}
	}
	return true
}

// mergeStrSet hoists the values present in every architecture's set.
// A missing set counts as empty.
func mergeStrSet(prop string, arches []string, values map[string]Value, common map[string]Value, perArch map[string]map[string]Value) {
	count := make(map[string]int)
	for _, arch := range arches {
		set, _ := values[arch].(StrSet)
		for _, v := range set.Sorted() {
			count[v]++
		}
	}
	var hoisted StrSet
	for v, n := range count {
		if n == len(arches) {
			hoisted = append(hoisted, v)
		}
	}
	if len(hoisted) > 0 {
		sort.Strings(hoisted)
		common[prop] = hoisted
	}
	for _, arch := range arches {
		set, _ := values[arch].(StrSet)
		var rest StrSet
		for _, v := range set.Sorted() {
			if count[v] != len(arches) {
				rest = append(rest, v)
			}
		}
		if len(rest) > 0 {
			perArch[arch][prop] = rest
		}
	}
}

// archProp sets prop to v in the arch block of every architecture in arches.
func archProp(m *Module, arches []string, prop string, v Value) {
	blocks, _ := m.props["arch"].(Nested)
	for _, arch := range arches {
		i := slices.IndexFunc(blocks, func(f Field) bool { return f.Name == arch })
		if i < 0 {
			blocks = append(blocks, Field{Name: arch, Value: NewNested(map[string]Value{prop: v})})
			continue
		}
		props := make(map[string]Value)
		for _, f := range blocks[i].Value.(Nested) {
			props[f.Name] = f.Value
		}
		props[prop] = v
		blocks[i].Value = NewNested(props)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Name < blocks[j].Name })
	m.AddProp("arch", blocks)
}
