// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ninjautil

import "strings"

// Unescape resolves the `$$`, `$ ` and `$:` escapes of a binding value.
// Variable references (`$var`, `${var}`) are kept as is.
func Unescape(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '$' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case '$', ' ', ':':
			sb.WriteByte(s[i+1])
			i++
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// Expand evaluates `$var` and `${var}` references in s with lookup, and
// resolves escapes. Unknown variables expand to the empty string.
func Expand(s string, lookup func(string) string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '$' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch c := s[i]; {
		case c == '$' || c == ' ' || c == ':':
			sb.WriteByte(c)
		case c == '{':
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				sb.WriteString(s[i-1:])
				return sb.String()
			}
			sb.WriteString(lookup(s[i+1 : i+end]))
			i += end
		case isVarChar(c):
			j := i
			for j < len(s) && isVarChar(s[j]) {
				j++
			}
			sb.WriteString(lookup(s[i:j]))
			i = j - 1
		default:
			sb.WriteByte('$')
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// isVarChar reports whether c can be used in a simple variable name.
func isVarChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}
