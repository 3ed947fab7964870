// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"

	"go.chromium.org/infra/build/ninja2soong/soong"
)

func packList(list []string) starlark.Value {
	values := make([]starlark.Value, 0, len(list))
	for _, elem := range list {
		values = append(values, starlark.String(elem))
	}
	return starlark.NewList(values)
}

func unpackList(v starlark.Value) ([]string, error) {
	iterator := starlark.Iterate(v)
	if iterator == nil {
		return nil, fmt.Errorf("got %v; want iterator", v.Type())
	}
	defer iterator.Done()
	var elem starlark.Value
	var list []string
	for iterator.Next(&elem) {
		s, ok := starlark.AsString(elem)
		if !ok {
			return nil, fmt.Errorf("got %v in %v; want string", elem.Type(), v.Type())
		}
		list = append(list, s)
	}
	return list, nil
}

// unpackStringDict unpacks a dict of string to string.
func unpackStringDict(v starlark.Value) (map[string]string, error) {
	dict, ok := v.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("got %v; want dict", v.Type())
	}
	m := make(map[string]string, dict.Len())
	for _, item := range dict.Items() {
		k, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("got %v key; want string", item[0].Type())
		}
		s, ok := starlark.AsString(item[1])
		if !ok {
			return nil, fmt.Errorf("got %v for %q; want string", item[1].Type(), k)
		}
		m[k] = s
	}
	return m, nil
}

// Starlark value to access flags.
func starFlags(flags map[string]string) starlark.Value {
	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	dict := starlark.NewDict(len(flags))
	for _, k := range keys {
		dict.SetKey(starlark.String(k), starlark.String(flags[k]))
	}
	dict.Freeze()
	return dict
}

// packValue converts a property value into Starlark.
func packValue(v soong.Value) starlark.Value {
	switch v := v.(type) {
	case soong.Str:
		return starlark.String(v)
	case soong.Bool:
		return starlark.Bool(v)
	case soong.StrSet:
		return packList(v)
	case soong.Nested:
		dict := starlark.NewDict(len(v))
		for _, f := range v {
			dict.SetKey(starlark.String(f.Name), packValue(f.Value))
		}
		return dict
	}
	return starlark.None
}

// unpackValue converts a Starlark value into a property value.
// Strings, bools, lists of strings and dicts of these are accepted.
func unpackValue(v starlark.Value) (soong.Value, error) {
	switch v := v.(type) {
	case starlark.String:
		return soong.Str(v), nil
	case starlark.Bool:
		return soong.Bool(v), nil
	case *starlark.List, starlark.Tuple:
		list, err := unpackList(v)
		if err != nil {
			return nil, err
		}
		return soong.StrSet(list), nil
	case *starlark.Dict:
		props := make(map[string]soong.Value, v.Len())
		for _, item := range v.Items() {
			k, ok := starlark.AsString(item[0])
			if !ok {
				return nil, fmt.Errorf("got %v key; want string", item[0].Type())
			}
			pv, err := unpackValue(item[1])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			props[k] = pv
		}
		return soong.NewNested(props), nil
	}
	return nil, fmt.Errorf("%w: unsupported property value %s", soong.ErrPolicyViolation, v.Type())
}
