// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"go.chromium.org/infra/build/ninja2soong/generator"
	"go.chromium.org/infra/build/ninja2soong/soong"
	"go.chromium.org/infra/build/ninja2soong/toolsupport/shutil"
)

const genruleKind = "cc_genrule"

// genCustomCommand generates a genrule running the command of t.
func (p *Package[T]) genCustomCommand(t T) error {
	edge := t.Edge()
	target := edge.Outputs[0]
	cmd, ok := t.RawCommand()
	if !ok || strings.TrimSpace(cmd) == "" {
		log.Debugf("skip %s: reruns the generator", target)
		return nil
	}
	if src, ok := p.copySource(cmd, edge.Inputs); ok && len(edge.Outputs) == 1 && len(edge.ImplicitOutputs) == 0 {
		return p.genCopy(target, src)
	}

	var srcs, outs, tools, exportDirs strSet
	spec := commandSpec{
		Command:      cmd,
		BuildRoot:    p.opts.BuildRoot,
		SrcRoot:      p.opts.SrcRoot,
		Interpreters: p.opts.Interpreters,
		DepsPrefix:   p.policy.DepsPrefix(target),
	}
	inputs := append(slices.Clone(edge.Inputs), edge.ImplicitDeps...)
	classified, ok := p.policy.ParseCustomCommandInputs(target, inputs)
	if !ok {
		classified = p.classifyInputs(inputs)
	}
	srcs.add(classified.Sources...)

	// Outputs of excluded targets are used as plain build root files.
	plain := slices.Clone(classified.Inputs)
	var generated []string
	for _, dep := range classified.Generated {
		producer, ok := p.lookup(dep)
		if !ok {
			return GraphError{Target: target, Edge: edge, err: fmt.Errorf("%w: generated input %s", ErrNoTarget, dep)}
		}
		if p.excluded(p.resolveSymlink(producer).Outputs[0]) {
			plain = append(plain, dep)
			continue
		}
		generated = append(generated, dep)
	}
	for _, in := range plain {
		if rel, ok := p.buildRel(in); ok {
			p.copyFile(rel)
			spec.Inputs = append(spec.Inputs, cmdInput{Path: rel, Src: rel})
			srcs.add(rel)
			continue
		}
		rel, ok := p.srcRel(in)
		if !ok {
			log.Warnf("%s: input %s outside of source and build roots", target, in)
			continue
		}
		spec.Inputs = append(spec.Inputs, cmdInput{Path: p.abs(in), Src: rel})
		if !filepath.IsAbs(in) {
			spec.Inputs = append(spec.Inputs, cmdInput{Path: in, Src: rel})
		}
		srcs.add(rel)
	}
	for _, dep := range generated {
		producer, _ := p.lookup(dep)
		producer = p.resolveSymlink(producer)
		name := p.moduleName(producer)
		var ref string
		if p.newTarget(producer).RuleKind() == generator.Binary {
			ref = name
			tools.add(name)
		} else {
			ref = ":" + name
			srcs.add(ref)
		}
		rel, ok := p.buildRel(dep)
		if !ok {
			rel = dep
		}
		spec.Deps = append(spec.Deps, cmdDep{Path: rel, Ref: ref})
		p.push(producer.Outputs[0])
	}
	for _, src := range srcs.values {
		if !strings.HasPrefix(src, ":") {
			spec.Anchor = src
			break
		}
	}
	for _, out := range edge.AllOutputs() {
		rel, ok := p.buildRel(out)
		if !ok {
			rel = out
		}
		mapped := p.policy.MapCmdOutput(rel)
		outs.add(mapped)
		spec.Outputs = append(spec.Outputs, cmdOutput{Path: rel, Out: mapped})
		if isHeader(mapped) {
			exportDirs.add(path.Dir(mapped))
		}
	}
	if rsp, ok := t.ResponseFile(); ok {
		spec.Rsp = &rsp
	}
	rewritten, anchored := rewriteCommand(spec)
	if anchored {
		srcs.add(spec.Anchor)
	}

	m := soong.NewModule(p.policy.MapModuleName(target, genruleKind))
	m.AddProp("name", soong.Str(p.moduleName(edge)))
	m.AddProp("cmd", soong.Str(rewritten))
	m.AddProp("srcs", srcs.value())
	m.AddProp("out", outs.value())
	m.AddProp("tools", tools.value())
	m.AddProp("export_include_dirs", exportDirs.value())
	return p.addModule(target, m)
}

// classifyInputs splits the inputs of a custom command into sources and
// outputs of other edges.
func (p *Package[T]) classifyInputs(inputs []string) CommandInputs {
	var ci CommandInputs
	for _, in := range inputs {
		if producer, ok := p.lookup(in); ok {
			if p.newTarget(producer).RuleKind() == generator.Phony {
				p.push(in)
				continue
			}
			ci.Generated = append(ci.Generated, in)
			continue
		}
		if _, ok := p.srcRel(in); ok {
			ci.Inputs = append(ci.Inputs, in)
			continue
		}
		if _, ok := p.buildRel(in); ok {
			ci.Inputs = append(ci.Inputs, in)
			continue
		}
		log.Debugf("external input %s", in)
	}
	return ci
}

// copySource returns the source of cmd if it only copies one file.
func (p *Package[T]) copySource(cmd string, inputs []string) (string, bool) {
	if len(inputs) != 1 {
		return "", false
	}
	args, err := shutil.Split(cmd)
	if err != nil || len(args) == 0 {
		return "", false
	}
	switch path.Base(args[0]) {
	case "cp":
		if len(args) != 3 {
			return "", false
		}
	case "cmake":
		if len(args) != 5 || args[1] != "-E" || (args[2] != "copy" && args[2] != "copy_if_different") {
			return "", false
		}
	default:
		return "", false
	}
	return inputs[0], true
}

// genCopy generates a genrule copying src to target.
func (p *Package[T]) genCopy(target, src string) error {
	edge, _ := p.lookup(target)
	var ref string
	if producer, ok := p.lookup(src); ok {
		ref = ":" + p.moduleName(p.resolveSymlink(producer))
		p.push(src)
	} else if rel, ok := p.srcRel(src); ok {
		ref = rel
	} else if rel, ok := p.buildRel(src); ok {
		p.copyFile(rel)
		ref = rel
	} else {
		return GraphError{Target: target, Edge: edge, err: fmt.Errorf("copy of external file %s", src)}
	}
	out, ok := p.buildRel(target)
	if !ok {
		out = target
	}
	out = p.policy.MapCmdOutput(out)
	m := soong.NewModule(p.policy.MapModuleName(target, genruleKind))
	m.AddProp("name", soong.Str(p.moduleName(edge)))
	m.AddProp("cmd", soong.Str("cp $(in) $(out)"))
	m.AddProp("srcs", soong.StrSet{ref})
	m.AddProp("out", soong.StrSet{out})
	if isHeader(out) {
		m.AddProp("export_include_dirs", soong.StrSet{path.Dir(out)})
	}
	return p.addModule(target, m)
}

// genSymlink generates a genrule creating the symbolic links of t.
func (p *Package[T]) genSymlink(t T) error {
	edge := t.Edge()
	target := edge.Outputs[0]
	if len(edge.Inputs) == 0 {
		return GraphError{Target: target, Edge: edge, err: fmt.Errorf("symbolic link without target")}
	}
	p.push(edge.Inputs[0])
	link := path.Base(edge.Inputs[0])
	var outs strSet
	var cmds []string
	for _, out := range edge.AllOutputs() {
		name := path.Base(out)
		if name == link {
			continue
		}
		outs.add(name)
		cmds = append(cmds, "ln -s "+link+" $(genDir)/"+name)
	}
	cmd := strings.Join(cmds, " && ")
	if len(cmds) == 1 {
		cmd = "ln -s " + link + " $(out)"
	}
	m := soong.NewModule(p.policy.MapModuleName(target, genruleKind))
	m.AddProp("name", soong.Str(p.moduleName(edge)))
	m.AddProp("cmd", soong.Str(cmd))
	m.AddProp("out", outs.value())
	return p.addModule(target, m)
}

func isHeader(name string) bool {
	switch path.Ext(name) {
	case ".h", ".hh", ".hpp", ".hxx", ".inc", ".def":
		return true
	}
	return false
}
