// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"go.chromium.org/infra/build/ninja2soong/build"
	"go.chromium.org/infra/build/ninja2soong/soong"
)

// Policy hooks. Each is called with ctx as first argument.
const (
	hookFilterTarget             = "filter_target"               // (ctx, target) -> bool
	hookFilterSource             = "filter_source"               // (ctx, source) -> bool
	hookFilterInclude            = "filter_include"              // (ctx, include) -> bool
	hookFilterCflag              = "filter_cflag"                // (ctx, cflag) -> bool
	hookFilterDefine             = "filter_define"               // (ctx, define) -> bool
	hookFilterLinkFlag           = "filter_link_flag"            // (ctx, flag) -> bool
	hookFilterLib                = "filter_lib"                  // (ctx, lib) -> bool
	hookFilterGenHeader          = "filter_gen_header"           // (ctx, header) -> bool
	hookMapLib                   = "map_lib"                     // (ctx, lib) -> str or None
	hookMapCmdOutput             = "map_cmd_output"              // (ctx, output) -> str
	hookMapModuleName            = "map_module_name"             // (ctx, target, kind) -> str
	hookExtendModule             = "extend_module"               // (ctx, target, module)
	hookExtendCflags             = "extend_cflags"               // (ctx, target) -> list
	hookExtendSharedLibs         = "extend_shared_libs"          // (ctx, target) -> list
	hookTargetHeaderLibs         = "target_header_libs"          // (ctx, target) -> list
	hookDepsPrefix               = "deps_prefix"                 // (ctx, target) -> str
	hookOptimizeTargetForSize    = "optimize_target_for_size"    // (ctx, target) -> bool
	hookTargetStem               = "target_stem"                 // (ctx, target) -> str
	hookParseCustomCommandInputs = "parse_custom_command_inputs" // (ctx, target, inputs) -> dict or None
)

var knownHooks = map[string]bool{
	hookFilterTarget:             true,
	hookFilterSource:             true,
	hookFilterInclude:            true,
	hookFilterCflag:              true,
	hookFilterDefine:             true,
	hookFilterLinkFlag:           true,
	hookFilterLib:                true,
	hookFilterGenHeader:          true,
	hookMapLib:                   true,
	hookMapCmdOutput:             true,
	hookMapModuleName:            true,
	hookExtendModule:             true,
	hookExtendCflags:             true,
	hookExtendSharedLibs:         true,
	hookTargetHeaderLibs:         true,
	hookDepsPrefix:               true,
	hookOptimizeTargetForSize:    true,
	hookTargetStem:               true,
	hookParseCustomCommandInputs: true,
}

// HookNames returns the names of the policy hooks a project may define,
// sorted.
func HookNames() []string {
	names := make([]string, 0, len(knownHooks))
	for name := range knownHooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Policy is a build.Policy calling the hooks of a project.
// Hooks the project doesn't define behave as build.DefaultPolicy.
//
// Policy is not safe for concurrent use. Use one Policy per
// architecture.
type Policy struct {
	arch  string
	hooks map[string]starlark.Value
	hctx  starlark.Value

	// err is the first error of a hook without error result.
	// Hooks are not called once it is set.
	err error
}

var _ build.Policy = (*Policy)(nil)

// Policy returns the policy for arch.
func (p *Project) Policy(arch string) *Policy {
	hctx := starlarkstruct.FromStringDict(starlark.String("ctx"), map[string]starlark.Value{
		"arch":  starlark.String(arch),
		"flags": starFlags(p.flags),
	})
	hctx.Freeze()
	return &Policy{
		arch:  arch,
		hooks: p.hooks,
		hctx:  hctx,
	}
}

// Hooks returns the names of the hooks defined by the project.
func (p *Project) Hooks() []string {
	names := make([]string, 0, len(p.hooks))
	for name := range p.hooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Err returns the first error of a hook.
func (p *Policy) Err() error {
	return p.err
}

// call calls hook. It returns false if hook is not defined or fails.
func (p *Policy) call(hook string, args ...starlark.Value) (starlark.Value, bool) {
	fun, ok := p.hooks[hook]
	if !ok || p.err != nil {
		return nil, false
	}
	ret, err := p.callErr(hook, fun, args...)
	if err != nil {
		p.err = err
		return nil, false
	}
	return ret, true
}

func (p *Policy) callErr(hook string, fun starlark.Value, args ...starlark.Value) (starlark.Value, error) {
	thread := newThread("policy:" + hook + ":" + p.arch)
	ret, err := starlark.Call(thread, fun, append([]starlark.Value{p.hctx}, args...), nil)
	if err != nil {
		return nil, callError(thread, hook, fun, err)
	}
	return ret, nil
}

func (p *Policy) violation(hook string, ret starlark.Value, want string) {
	if p.err == nil {
		p.err = fmt.Errorf("%s returned %s, want %s: %w", hook, ret.Type(), want, build.ErrPolicyViolation)
	}
}

func (p *Policy) boolHook(hook, arg string) bool {
	ret, ok := p.call(hook, starlark.String(arg))
	if !ok {
		return true
	}
	b, ok := ret.(starlark.Bool)
	if !ok {
		p.violation(hook, ret, "bool")
		return true
	}
	return bool(b)
}

func (p *Policy) stringHook(hook, def string, args ...starlark.Value) string {
	ret, ok := p.call(hook, args...)
	if !ok {
		return def
	}
	s, ok := starlark.AsString(ret)
	if !ok {
		p.violation(hook, ret, "string")
		return def
	}
	return s
}

func (p *Policy) listHook(hook, target string) []string {
	ret, ok := p.call(hook, starlark.String(target))
	if !ok || ret == starlark.None {
		return nil
	}
	list, err := unpackList(ret)
	if err != nil {
		p.violation(hook, ret, "list of strings")
		return nil
	}
	return list
}

func (p *Policy) FilterTarget(target string) bool   { return p.boolHook(hookFilterTarget, target) }
func (p *Policy) FilterSource(source string) bool   { return p.boolHook(hookFilterSource, source) }
func (p *Policy) FilterInclude(include string) bool { return p.boolHook(hookFilterInclude, include) }
func (p *Policy) FilterCflag(cflag string) bool     { return p.boolHook(hookFilterCflag, cflag) }
func (p *Policy) FilterDefine(define string) bool   { return p.boolHook(hookFilterDefine, define) }
func (p *Policy) FilterLinkFlag(flag string) bool   { return p.boolHook(hookFilterLinkFlag, flag) }
func (p *Policy) FilterLib(lib string) bool         { return p.boolHook(hookFilterLib, lib) }
func (p *Policy) FilterGenHeader(header string) bool {
	return p.boolHook(hookFilterGenHeader, header)
}

// MapLib calls map_lib, which returns a module name or None.
func (p *Policy) MapLib(lib string) (string, bool) {
	ret, ok := p.call(hookMapLib, starlark.String(lib))
	if !ok || ret == starlark.None {
		return "", false
	}
	s, ok := starlark.AsString(ret)
	if !ok {
		p.violation(hookMapLib, ret, "string or None")
		return "", false
	}
	return s, true
}

func (p *Policy) MapCmdOutput(output string) string {
	return p.stringHook(hookMapCmdOutput, output, starlark.String(output))
}

func (p *Policy) MapModuleName(target, kind string) string {
	return p.stringHook(hookMapModuleName, kind, starlark.String(target), starlark.String(kind))
}

// ExtendModule calls extend_module, which may modify or drop m.
func (p *Policy) ExtendModule(target string, m *soong.Module) (*soong.Module, error) {
	fun, ok := p.hooks[hookExtendModule]
	if !ok {
		return m, nil
	}
	sm := &starModule{m: m}
	_, err := p.callErr(hookExtendModule, fun, starlark.String(target), sm)
	sm.Freeze()
	if err != nil {
		return nil, err
	}
	if sm.dropped {
		log.Debugf("%s dropped %s", hookExtendModule, m.Name())
		return nil, nil
	}
	return m, nil
}

func (p *Policy) ExtendCflags(target string) []string {
	return p.listHook(hookExtendCflags, target)
}

func (p *Policy) ExtendSharedLibs(target string) []string {
	return p.listHook(hookExtendSharedLibs, target)
}

func (p *Policy) TargetHeaderLibs(target string) []string {
	return p.listHook(hookTargetHeaderLibs, target)
}

func (p *Policy) DepsPrefix(target string) string {
	return p.stringHook(hookDepsPrefix, "", starlark.String(target))
}

func (p *Policy) OptimizeTargetForSize(target string) bool {
	ret, ok := p.call(hookOptimizeTargetForSize, starlark.String(target))
	if !ok {
		return false
	}
	b, ok := ret.(starlark.Bool)
	if !ok {
		p.violation(hookOptimizeTargetForSize, ret, "bool")
		return false
	}
	return bool(b)
}

func (p *Policy) TargetStem(target string) string {
	ret, ok := p.call(hookTargetStem, starlark.String(target))
	if !ok || ret == starlark.None {
		return ""
	}
	s, ok := starlark.AsString(ret)
	if !ok {
		p.violation(hookTargetStem, ret, "string or None")
		return ""
	}
	return s
}

// ParseCustomCommandInputs calls parse_custom_command_inputs, which
// returns None or a dict with lists "sources", "inputs" and "generated".
func (p *Policy) ParseCustomCommandInputs(target string, inputs []string) (build.CommandInputs, bool) {
	ret, ok := p.call(hookParseCustomCommandInputs, starlark.String(target), packList(inputs))
	if !ok || ret == starlark.None {
		return build.CommandInputs{}, false
	}
	dict, ok := ret.(*starlark.Dict)
	if !ok {
		p.violation(hookParseCustomCommandInputs, ret, "dict or None")
		return build.CommandInputs{}, false
	}
	var ci build.CommandInputs
	for _, item := range dict.Items() {
		k, _ := starlark.AsString(item[0])
		var dst *[]string
		switch k {
		case "sources":
			dst = &ci.Sources
		case "inputs":
			dst = &ci.Inputs
		case "generated":
			dst = &ci.Generated
		default:
			p.violation(hookParseCustomCommandInputs, item[0], "sources, inputs or generated key")
			return build.CommandInputs{}, false
		}
		list, err := unpackList(item[1])
		if err != nil {
			p.violation(hookParseCustomCommandInputs, item[1], "list of strings")
			return build.CommandInputs{}, false
		}
		*dst = list
	}
	return ci, true
}
