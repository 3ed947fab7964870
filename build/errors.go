// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"errors"
	"fmt"
	"strings"

	"go.chromium.org/infra/build/ninja2soong/soong"
	"go.chromium.org/infra/build/ninja2soong/toolsupport/ninjautil"
)

var (
	// ErrNoTarget is an error when a requested target has no rule to make it.
	ErrNoTarget = errors.New("no known rule to make target")

	// ErrUnclassified is an error when the rule of an edge is not known
	// to the generator.
	ErrUnclassified = errors.New("unclassified rule")

	// ErrPolicyViolation is an error when a policy hook returns data
	// the generation can't use.
	ErrPolicyViolation = soong.ErrPolicyViolation
)

// GraphError is an error in the build graph.
// Edge is nil when no edge produces Target.
type GraphError struct {
	Target string
	Edge   *ninjautil.Edge
	err    error
}

func (e GraphError) Unwrap() error {
	return e.err
}

func (e GraphError) Error() string {
	if e.Edge == nil {
		return fmt.Sprintf("%q: %v", e.Target, e.err)
	}
	return fmt.Sprintf("%q: %v\n%s", e.Target, e.err, strings.TrimSuffix(e.Edge.String(), "\n"))
}
