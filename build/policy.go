// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"go.chromium.org/infra/build/ninja2soong/soong"
)

// Policy customizes the generation for one project.
//
// target is the path of the first output of the edge a module is
// generated for, as written in the build manifest. Paths given to the
// filters are relative to the source root, or to the build root for
// generated files.
// Filters return true to keep their argument.
type Policy interface {
	FilterTarget(target string) bool
	FilterSource(source string) bool
	FilterInclude(include string) bool
	FilterCflag(cflag string) bool
	FilterDefine(define string) bool
	FilterLinkFlag(flag string) bool
	FilterLib(lib string) bool
	FilterGenHeader(header string) bool

	// MapLib returns the module name of a library not built in the
	// build graph, e.g. -lz or /usr/lib/libz.so. It returns false to
	// drop the library.
	MapLib(lib string) (string, bool)

	// MapCmdOutput returns the genrule output name of a custom command
	// output.
	MapCmdOutput(output string) string

	// MapModuleName returns the module kind for target.
	MapModuleName(target, kind string) string

	// ExtendModule is called on every module before it is added to
	// the package.
	ExtendModule(target string, m *soong.Module) (*soong.Module, error)
	ExtendCflags(target string) []string
	ExtendSharedLibs(target string) []string

	TargetHeaderLibs(target string) []string

	// DepsPrefix returns the prefix custom commands of target use to
	// refer to other build outputs, e.g. "./".
	DepsPrefix(target string) string

	OptimizeTargetForSize(target string) bool

	// TargetStem returns the stem of target's module, or "".
	TargetStem(target string) string

	// ParseCustomCommandInputs splits the inputs of a custom command into
	// sources, inputs for the command line and generated dependencies.
	// It returns false to use the default classification.
	ParseCustomCommandInputs(target string, inputs []string) (CommandInputs, bool)
}

// policyErr returns the error recorded by policy in a hook without an
// error result, if policy records them with an Err method.
func policyErr(policy Policy) error {
	e, ok := policy.(interface{ Err() error })
	if !ok {
		return nil
	}
	return e.Err()
}

// CommandInputs are the classified inputs of a custom command.
type CommandInputs struct {
	// Sources are paths relative to the source root.
	Sources []string
	// Inputs are replaced by location references in the command.
	Inputs []string
	// Generated are build outputs of other edges the command depends on.
	Generated []string
}

// DefaultPolicy keeps everything and maps nothing.
type DefaultPolicy struct{}

var _ Policy = DefaultPolicy{}

func (DefaultPolicy) FilterTarget(string) bool    { return true }
func (DefaultPolicy) FilterSource(string) bool    { return true }
func (DefaultPolicy) FilterInclude(string) bool   { return true }
func (DefaultPolicy) FilterCflag(string) bool     { return true }
func (DefaultPolicy) FilterDefine(string) bool    { return true }
func (DefaultPolicy) FilterLinkFlag(string) bool  { return true }
func (DefaultPolicy) FilterLib(string) bool       { return true }
func (DefaultPolicy) FilterGenHeader(string) bool { return true }

func (DefaultPolicy) MapLib(string) (string, bool)        { return "", false }
func (DefaultPolicy) MapCmdOutput(output string) string   { return output }
func (DefaultPolicy) MapModuleName(_, kind string) string { return kind }

func (DefaultPolicy) ExtendModule(_ string, m *soong.Module) (*soong.Module, error) {
	return m, nil
}
func (DefaultPolicy) ExtendCflags(string) []string     { return nil }
func (DefaultPolicy) ExtendSharedLibs(string) []string { return nil }

func (DefaultPolicy) TargetHeaderLibs(string) []string  { return nil }
func (DefaultPolicy) DepsPrefix(string) string          { return "" }
func (DefaultPolicy) OptimizeTargetForSize(string) bool { return false }
func (DefaultPolicy) TargetStem(string) string          { return "" }

func (DefaultPolicy) ParseCustomCommandInputs(string, []string) (CommandInputs, bool) {
	return CommandInputs{}, false
}
