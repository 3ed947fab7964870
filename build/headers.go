// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"go.chromium.org/infra/build/ninja2soong/generator"
	"go.chromium.org/infra/build/ninja2soong/toolsupport/ninjautil"
)

// generatedHeaders returns the outputs of the custom commands edge
// depends on through its compilation units.
//
// The walk stops at custom commands and at other libraries; their
// dependencies belong to their own modules.
func (p *Package[T]) generatedHeaders(edge *ninjautil.Edge) ([]string, error) {
	if headers, ok := p.genHeaders[edge]; ok {
		return headers, nil
	}
	var headers []string
	err := p.graph.Walk(edge.Outputs, func(e *ninjautil.Edge) (bool, error) {
		if e == edge {
			return true, nil
		}
		t := p.newTarget(e)
		switch kind := t.RuleKind(); {
		case kind == generator.CustomCommand:
			if _, ok := t.RawCommand(); ok {
				headers = append(headers, e.AllOutputs()...)
			}
			return false, nil
		case kind.IsLinked():
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	p.genHeaders[edge] = headers
	return headers, nil
}
