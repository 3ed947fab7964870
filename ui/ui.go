// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package ui provides user interface functionalities.
package ui

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Spinner reports progress of a long operation.
type Spinner interface {
	// Start starts the spinner with the specified formatted string.
	Start(format string, args ...any)
	// Stop stops the spinner, outputting an error if provided.
	Stop(err error)
	// Done finishes the spinner with message.
	Done(format string, args ...any)
}

// UI is a user interface.
type UI interface {
	// NewSpinner returns a new spinner.
	NewSpinner() Spinner

	// Infof reports a message to the user.
	Infof(format string, args ...any)
	// Warningf reports a warning to the user.
	Warningf(format string, args ...any)
	// Errorf reports an error to the user.
	Errorf(format string, args ...any)
}

// Default holds the default UI interface.
// Making changes to this variable after init is undefined behavior.
var Default UI

func init() {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		Default = &TermUI{}
	} else {
		Default = &LogUI{}
	}
}

// IsTerminal returns whether currently using a terminal UI.
func IsTerminal() bool {
	_, ok := Default.(*TermUI)
	return ok
}

// https://en.wikipedia.org/wiki/ANSI_escape_code#SGR_(Select_Graphic_Rendition)_parameters
type SGRCode int

const (
	Bold SGRCode = iota
	Red
	Green
	Yellow
	Reset
)

var sgrEscSeq = map[SGRCode]string{
	Bold:   "\033[1m",
	Red:    "\033[31;1m",
	Green:  "\033[32m",
	Yellow: "\033[33m",
	Reset:  "\033[0m",
}

func (s SGRCode) String() string {
	return sgrEscSeq[s]
}

// SGR formats s in SGR (select graphic rendition).
func SGR(n SGRCode, s string) string {
	return fmt.Sprintf("%s%s%s", n, s, Reset)
}

// StripANSIEscapeCodes strips ANSI escape codes.
func StripANSIEscapeCodes(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\033' {
			sb.WriteByte(s[i])
			continue
		}
		// Only strip CSIs.
		if i+1 >= len(s) {
			break
		}
		if s[i+1] != '[' {
			continue
		}
		i += 2
		// Skip everything up to and including the next [a-zA-Z].
		for i < len(s) && !((s[i] >= 'a' && s[i] <= 'z') || s[i] >= 'A' && s[i] <= 'Z') {
			i++
		}
	}
	return sb.String()
}
