// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"path"
	"strings"

	"github.com/charmbracelet/log"

	"go.chromium.org/infra/build/ninja2soong/generator"
	"go.chromium.org/infra/build/ninja2soong/soong"
	"go.chromium.org/infra/build/ninja2soong/toolsupport/ninjautil"
)

func libraryKind(kind generator.RuleKind) string {
	switch kind {
	case generator.SharedLibrary:
		return "cc_library_shared"
	case generator.StaticLibrary:
		return "cc_library_static"
	}
	return "cc_binary"
}

// libraryStem returns the file name of a library without extension,
// e.g. "libfoo" for "lib/libfoo.so.1.2".
func libraryStem(output string) string {
	base := path.Base(output)
	for _, ext := range []string{".so", ".a"} {
		if i := strings.Index(base, ext); i > 0 && (len(base) == i+len(ext) || base[i+len(ext)] == '.') {
			return base[:i]
		}
	}
	return base
}

// library is the properties of a library or binary module being built.
type library struct {
	srcs             strSet
	generatedSources strSet
	localIncludeDirs strSet
	includeDirs      strSet
	cflags           strSet
	ldflags          strSet
	staticLibs       strSet
	wholeStaticLibs  strSet
	sharedLibs       strSet
	headerLibs       strSet
	generatedHeaders strSet
	versionScript    string
}

func (p *Package[T]) genLibrary(t T, kind generator.RuleKind) error {
	edge := t.Edge()
	target := edge.Outputs[0]
	var lib library
	for _, in := range edge.Inputs {
		producer, ok := p.lookup(in)
		if !ok {
			continue
		}
		cu := p.newTarget(producer)
		if cu.RuleKind() != generator.CompilationUnit {
			p.push(in)
			continue
		}
		p.addCompilationUnit(&lib, target, cu)
	}
	lib.cflags.add(p.policy.ExtendCflags(target)...)

	versionScript, flags := t.LinkFlags()
	if versionScript != "" {
		if rel, ok := p.srcRel(versionScript); ok {
			lib.versionScript = rel
		} else if rel, ok := p.buildRel(versionScript); ok {
			p.copyFile(rel)
			lib.versionScript = rel
		} else {
			lib.versionScript = versionScript
		}
	}
	for _, flag := range flags {
		if p.policy.FilterLinkFlag(flag) {
			lib.ldflags.add(flag)
		}
	}
	libs := t.LinkLibraries()
	p.addLibs(&lib.staticLibs, libs.Static)
	p.addLibs(&lib.wholeStaticLibs, libs.WholeStatic)
	p.addLibs(&lib.sharedLibs, libs.Shared)
	lib.sharedLibs.add(p.policy.ExtendSharedLibs(target)...)
	lib.headerLibs.add(p.policy.TargetHeaderLibs(target)...)

	headers, err := p.generatedHeaders(edge)
	if err != nil {
		return err
	}
	for _, h := range headers {
		producer, _ := p.lookup(h)
		if !p.policy.FilterGenHeader(h) || p.excluded(producer.Outputs[0]) {
			if rel, ok := p.buildRel(h); ok {
				p.copyFile(rel)
			}
			continue
		}
		lib.generatedHeaders.add(p.moduleName(producer))
		p.push(producer.Outputs[0])
	}

	m := soong.NewModule(p.policy.MapModuleName(target, libraryKind(kind)))
	m.AddProp("name", soong.Str(p.moduleName(edge)))
	stem := p.stems[edge]
	if stem == "" {
		stem = p.policy.TargetStem(target)
	}
	if stem == "" {
		stem = libraryStem(target)
	}
	m.AddProp("stem", soong.Str(stem))
	if lib.versionScript != "" {
		m.AddProp("version_script", soong.Str(lib.versionScript))
	}
	m.AddProp("srcs", lib.srcs.value())
	m.AddProp("generated_sources", lib.generatedSources.value())
	m.AddProp("local_include_dirs", lib.localIncludeDirs.value())
	m.AddProp("include_dirs", lib.includeDirs.value())
	m.AddProp("cflags", lib.cflags.value())
	m.AddProp("ldflags", lib.ldflags.value())
	m.AddProp("static_libs", lib.staticLibs.value())
	m.AddProp("whole_static_libs", lib.wholeStaticLibs.value())
	m.AddProp("shared_libs", lib.sharedLibs.value())
	m.AddProp("header_libs", lib.headerLibs.value())
	m.AddProp("generated_headers", lib.generatedHeaders.value())
	if p.policy.OptimizeTargetForSize(target) {
		m.AddProp("optimize_for_size", soong.Bool(true))
	}
	return p.addModule(target, m)
}

// addCompilationUnit adds the sources and compiler settings of cu.
func (p *Package[T]) addCompilationUnit(lib *library, target string, cu T) {
	for _, src := range cu.Sources(p.opts.BuildRoot) {
		if producer, ok := p.lookup(src); ok && !p.excluded(producer.Outputs[0]) {
			lib.generatedSources.add(p.moduleName(producer))
			p.push(producer.Outputs[0])
			continue
		}
		if rel, ok := p.srcRel(src); ok {
			if p.policy.FilterSource(rel) {
				lib.srcs.add(rel)
			}
			continue
		}
		if rel, ok := p.buildRel(src); ok {
			p.copyFile(rel)
			if p.policy.FilterSource(rel) {
				lib.srcs.add(rel)
			}
			continue
		}
		log.Warnf("%s: source %s outside of source and build roots", target, src)
	}
	for _, inc := range cu.Includes(p.opts.BuildRoot) {
		if rel, ok := p.srcRel(inc); ok {
			if p.policy.FilterInclude(rel) {
				lib.localIncludeDirs.add(rel)
			}
			continue
		}
		if rel, ok := p.buildRel(inc); ok {
			if p.policy.FilterInclude(rel) {
				lib.localIncludeDirs.add(rel)
			}
			continue
		}
		if p.policy.FilterInclude(inc) {
			lib.includeDirs.add(inc)
		}
	}
	for _, d := range cu.Defines() {
		if p.policy.FilterDefine(d) {
			lib.cflags.add("-D" + d)
		}
	}
	for _, flag := range cu.Cflags() {
		if p.policy.FilterCflag(flag) {
			lib.cflags.add(flag)
		}
	}
}

// addLibs adds the module names of libs to set.
// Libraries built in the graph are pushed to the frontier; others, and
// excluded ones, are mapped by policy.
func (p *Package[T]) addLibs(set *strSet, libs []string) {
	for _, lib := range libs {
		if !p.policy.FilterLib(lib) {
			continue
		}
		producer, ok := p.lookup(lib)
		if ok {
			producer = p.resolveSymlink(producer)
			ok = !p.excluded(producer.Outputs[0])
		}
		if !ok {
			if name, ok := p.policy.MapLib(lib); ok {
				set.add(name)
			} else {
				log.Debugf("drop library %s", lib)
			}
			continue
		}
		set.add(p.moduleName(producer))
		p.push(producer.Outputs[0])
	}
}

// resolveSymlink returns the edge producing the file a symbolic link
// edge links to.
func (p *Package[T]) resolveSymlink(edge *ninjautil.Edge) *ninjautil.Edge {
	for range 8 {
		if p.newTarget(edge).RuleKind() != generator.SymbolicLink || len(edge.Inputs) == 0 {
			return edge
		}
		next, ok := p.lookup(edge.Inputs[0])
		if !ok {
			return edge
		}
		edge = next
	}
	return edge
}
