// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ninjautil

import "testing"

func TestUnescape(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{in: "plain", want: "plain"},
		{in: "echo $$HOME", want: "echo $HOME"},
		{in: "a$ b", want: "a b"},
		{in: "c$:/x", want: "c:/x"},
		{in: "$in and ${out}", want: "$in and ${out}"},
		{in: "trailing$", want: "trailing$"},
	} {
		if got := Unescape(tc.in); got != tc.want {
			t.Errorf("Unescape(%q)=%q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestExpand(t *testing.T) {
	vars := map[string]string{
		"in":      "../../a.py",
		"out":     "gen/a.h",
		"defines": "-DX",
	}
	lookup := func(k string) string { return vars[k] }
	for _, tc := range []struct {
		in, want string
	}{
		{in: "python3 $in -o ${out}", want: "python3 ../../a.py -o gen/a.h"},
		{in: "$defines$$x", want: "-DX$x"},
		{in: "${unknown}x", want: "x"},
		{in: "${unterminated", want: "${unterminated"},
		{in: "$out.d", want: "gen/a.h.d"},
	} {
		if got := Expand(tc.in, lookup); got != tc.want {
			t.Errorf("Expand(%q)=%q; want %q", tc.in, got, tc.want)
		}
	}
}
