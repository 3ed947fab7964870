// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ninjautil

import (
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// maxSpellcheckEdits is the largest edit distance a suggested target may
// have from the unknown one.
const maxSpellcheckEdits = 3

// substitutions count as one edit, as in ninja's spellchecker.
var editOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// spellcheck returns the output closest to path, or "" if none is close.
func (g *Graph) spellcheck(path string) string {
	var outputs []string
	for _, e := range g.edges {
		outputs = append(outputs, e.AllOutputs()...)
	}
	s, _ := closest(path, outputs, maxSpellcheckEdits)
	return s
}

// closest returns the candidate with the fewest edits from s, if it is at
// most maxEdits away. The first candidate wins a tie.
func closest(s string, candidates []string, maxEdits int) (string, bool) {
	target := []rune(s)
	best, bestEdits := "", maxEdits+1
	for _, c := range candidates {
		rc := []rune(c)
		if diff := len(rc) - len(target); diff >= bestEdits || -diff >= bestEdits {
			continue
		}
		if d := levenshtein.DistanceForStrings(rc, target, editOptions); d < bestEdits {
			best, bestEdits = c, d
		}
	}
	return best, bestEdits <= maxEdits
}
