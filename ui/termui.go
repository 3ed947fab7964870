// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"fmt"
	"io"
	"os"
	"time"
)

type termSpinner struct {
	w          io.Writer
	quit, done chan struct{}
	started    time.Time
	n          int
	msg        string
}

// Start starts the spinner.
func (s *termSpinner) Start(format string, args ...any) {
	s.started = time.Now()
	s.msg = fmt.Sprintf(format, args...)
	fmt.Fprintf(s.w, "%s... ", s.msg)
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.quit:
				return
			case <-ticker.C:
				const chars = `/-\|`
				fmt.Fprintf(s.w, "\b%c", chars[s.n])
				s.n = (s.n + 1) % len(chars)
			}
		}
	}()
}

func (s *termSpinner) finish() time.Duration {
	close(s.quit)
	<-s.done
	return time.Since(s.started)
}

// Stop stops the spinner.
func (s *termSpinner) Stop(err error) {
	d := s.finish()
	if err != nil {
		fmt.Fprintf(s.w, "\r\033[K%6s %s %s\n", FormatDuration(d), s.msg, SGR(Red, "failed"))
		return
	}
	if d < quietSpinnerDuration {
		fmt.Fprintf(s.w, "\r\033[K")
		return
	}
	fmt.Fprintf(s.w, "\r\033[K%6s %s\n", FormatDuration(d), s.msg)
}

// Done finishes the spinner with message.
func (s *termSpinner) Done(format string, args ...any) {
	d := s.finish()
	fmt.Fprintf(s.w, "\r\033[K%6s %s %s\n", FormatDuration(d), s.msg, fmt.Sprintf(format, args...))
}

// TermUI is a terminal-based UI.
type TermUI struct{}

// NewSpinner returns a terminal-based spinner.
func (TermUI) NewSpinner() Spinner {
	return &termSpinner{w: os.Stdout}
}

// Infof reports to stdout.
func (TermUI) Infof(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}

// Warningf reports to stderr in yellow.
func (TermUI) Warningf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, SGR(Yellow, fmt.Sprintf(format, args...)))
}

// Errorf reports to stderr in red.
func (TermUI) Errorf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, SGR(Red, fmt.Sprintf(format, args...)))
}
