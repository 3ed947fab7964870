// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"errors"
	"fmt"

	"go.starlark.net/starlark"

	"go.chromium.org/infra/build/ninja2soong/soong"
)

// starModule is a module given to the extend_module hook.
//
//	kind: module kind, e.g. "cc_library_static".
//	name: module name.
//	props(): returns the property names in rendering order.
//	get(prop): returns the property value, or None.
//	set(prop, value): sets the property.
//	extend(prop, values): appends values to a string list property.
//	delete(prop): deletes the property.
//	drop(): drops the module from the package.
type starModule struct {
	m       *soong.Module
	dropped bool
	frozen  bool
}

var _ starlark.HasAttrs = (*starModule)(nil)

func (s *starModule) String() string      { return fmt.Sprintf("soong_module(%s %q)", s.m.Kind, s.m.Name()) }
func (*starModule) Type() string          { return "soong_module" }
func (s *starModule) Freeze()             { s.frozen = true }
func (*starModule) Truth() starlark.Bool  { return starlark.True }
func (*starModule) Hash() (uint32, error) { return 0, errors.New("soong_module is not hashable") }
func (*starModule) AttrNames() []string   { return starModuleAttrs }

var starModuleAttrs = []string{"delete", "drop", "extend", "get", "kind", "name", "props", "set"}

func (s *starModule) Attr(name string) (starlark.Value, error) {
	switch name {
	case "kind":
		return starlark.String(s.m.Kind), nil
	case "name":
		return starlark.String(s.m.Name()), nil
	case "props":
		return starlark.NewBuiltin("props", starModuleProps).BindReceiver(s), nil
	case "get":
		return starlark.NewBuiltin("get", starModuleGet).BindReceiver(s), nil
	case "set":
		return starlark.NewBuiltin("set", starModuleSet).BindReceiver(s), nil
	case "extend":
		return starlark.NewBuiltin("extend", starModuleExtend).BindReceiver(s), nil
	case "delete":
		return starlark.NewBuiltin("delete", starModuleDelete).BindReceiver(s), nil
	case "drop":
		return starlark.NewBuiltin("drop", starModuleDrop).BindReceiver(s), nil
	}
	return nil, nil
}

func moduleReceiver(fn *starlark.Builtin, mutate bool) (*starModule, error) {
	s, ok := fn.Receiver().(*starModule)
	if !ok {
		return nil, fmt.Errorf("unexpected receiver: %v", fn.Receiver())
	}
	if mutate && s.frozen {
		return nil, fmt.Errorf("%s: cannot modify frozen %s", fn.Name(), s)
	}
	return s, nil
}

// Starlark function `module.props()`.
func starModuleProps(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	s, err := moduleReceiver(fn, false)
	if err != nil {
		return starlark.None, err
	}
	err = starlark.UnpackArgs("props", args, kwargs)
	if err != nil {
		return starlark.None, err
	}
	return packList(s.m.Props()), nil
}

// Starlark function `module.get(prop)`.
func starModuleGet(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	s, err := moduleReceiver(fn, false)
	if err != nil {
		return starlark.None, err
	}
	var prop string
	err = starlark.UnpackArgs("get", args, kwargs, "prop", &prop)
	if err != nil {
		return starlark.None, err
	}
	v, ok := s.m.Prop(prop)
	if !ok {
		return starlark.None, nil
	}
	return packValue(v), nil
}

// Starlark function `module.set(prop, value)`.
func starModuleSet(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	s, err := moduleReceiver(fn, true)
	if err != nil {
		return starlark.None, err
	}
	var prop string
	var value starlark.Value
	err = starlark.UnpackArgs("set", args, kwargs, "prop", &prop, "value", &value)
	if err != nil {
		return starlark.None, err
	}
	v, err := unpackValue(value)
	if err != nil {
		return starlark.None, fmt.Errorf("set %s: %w", prop, err)
	}
	s.m.AddProp(prop, v)
	return starlark.None, nil
}

// Starlark function `module.extend(prop, values)`.
func starModuleExtend(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	s, err := moduleReceiver(fn, true)
	if err != nil {
		return starlark.None, err
	}
	var prop string
	var values starlark.Value
	err = starlark.UnpackArgs("extend", args, kwargs, "prop", &prop, "values", &values)
	if err != nil {
		return starlark.None, err
	}
	list, err := unpackList(values)
	if err != nil {
		return starlark.None, fmt.Errorf("extend %s: %w", prop, err)
	}
	return starlark.None, s.m.ExtendProp(prop, list...)
}

// Starlark function `module.delete(prop)`.
func starModuleDelete(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	s, err := moduleReceiver(fn, true)
	if err != nil {
		return starlark.None, err
	}
	var prop string
	err = starlark.UnpackArgs("delete", args, kwargs, "prop", &prop)
	if err != nil {
		return starlark.None, err
	}
	if prop == "name" {
		return starlark.None, fmt.Errorf("delete: %w: module needs name", soong.ErrPolicyViolation)
	}
	s.m.DeleteProp(prop)
	return starlark.None, nil
}

// Starlark function `module.drop()`.
func starModuleDrop(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	s, err := moduleReceiver(fn, true)
	if err != nil {
		return starlark.None, err
	}
	err = starlark.UnpackArgs("drop", args, kwargs)
	if err != nil {
		return starlark.None, err
	}
	s.dropped = true
	return starlark.None, nil
}
