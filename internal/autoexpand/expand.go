// Package autoexpand rewrites /*AUTO...*/ directives into concrete
// SystemVerilog: port lists, port connections, and net/variable
// declarations synthesized from the module declarations visible across the
// project. Expansion is pure with respect to the parsed files; it returns
// text edits and never mutates its inputs.
package autoexpand

import (
	"sort"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kirkster96/verible/internal/project"
	"github.com/kirkster96/verible/internal/sv"
	"github.com/kirkster96/verible/internal/template"
)

// fixedPointPasses bounds the port-propagation fixed point. Two passes let
// a module see ports its instantiated modules gain from their own AUTO
// directives, including through dependency cycles, without looping.
const fixedPointPasses = 2

// Engine expands AUTO directives against a project snapshot. A single call
// performs the full bounded fixed point; callers must serialize per
// buffer.
type Engine struct {
	proj *project.Project
}

// New creates an engine over the given project.
func New(proj *project.Project) *Engine {
	return &Engine{proj: proj}
}

// Edit is one planned replacement, annotated with the directive that owns
// it so the code-action façade can filter by kind and range.
type Edit struct {
	Kind sv.DirectiveKind
	// Full is the directive comment plus its replacement span; used for
	// range intersection.
	Full sv.Span
	// Span is the replaced byte range (directive end through the stale
	// generated text, if any).
	Span    sv.Span
	NewText string
}

// ExpandFile computes the edits for every AUTO directive in the buffer,
// ordered so that applying them back to front never invalidates a
// position.
func (e *Engine) ExpandFile(buf *sv.File) []protocol.TextEdit {
	return toTextEdits(buf, e.Plan(buf))
}

// ExpandRange is like ExpandFile but keeps only directives whose span
// shares at least one line with r. Range expansion runs a single planning
// pass: positions shift after application, so chaining is the caller's
// problem.
func (e *Engine) ExpandRange(buf *sv.File, r protocol.Range) []protocol.TextEdit {
	var kept []Edit
	for _, ed := range e.Plan(buf) {
		if intersectsLines(buf, ed, r) {
			kept = append(kept, ed)
		}
	}
	return toTextEdits(buf, kept)
}

// Plan computes every directive replacement in the buffer, sorted
// back-to-front.
func (e *Engine) Plan(buf *sv.File) []Edit {
	ps := newPass(e.proj)
	ps.settle()

	var edits []Edit
	for _, m := range buf.Modules {
		for _, d := range m.Directives {
			if ed, ok := ps.expand(buf, m, d); ok {
				edits = append(edits, ed)
			}
		}
	}
	sort.Slice(edits, func(i, j int) bool {
		return edits[i].Span.End > edits[j].Span.End
	})
	return edits
}

func toTextEdits(buf *sv.File, edits []Edit) []protocol.TextEdit {
	out := make([]protocol.TextEdit, 0, len(edits))
	for _, ed := range edits {
		out = append(out, protocol.TextEdit{
			Range:   buf.Lines.Range(ed.Span.Start, ed.Span.End),
			NewText: ed.NewText,
		})
	}
	return out
}

func intersectsLines(buf *sv.File, ed Edit, r protocol.Range) bool {
	start := buf.Lines.Position(ed.Full.Start)
	end := buf.Lines.Position(ed.Full.End)
	return start.Line <= r.End.Line && end.Line >= r.Start.Line
}

// genPorts is the overlay of ports a module's own AUTOINPUT / AUTOOUTPUT /
// AUTOINOUT directives would declare. Together with the declared ports it
// forms the module's effective port set.
type genPorts struct {
	inputs  []sv.Port
	outputs []sv.Port
	inouts  []sv.Port
}

type pass struct {
	proj   *project.Project
	gen    map[*sv.Module]*genPorts
	rules  map[*sv.Module]map[string]*template.Rule
	hidden map[*sv.Module][]sv.Span
}

func newPass(proj *project.Project) *pass {
	return &pass{
		proj:   proj,
		gen:    make(map[*sv.Module]*genPorts),
		rules:  make(map[*sv.Module]map[string]*template.Rule),
		hidden: make(map[*sv.Module][]sv.Span),
	}
}

// hiddenSpans returns the byte spans of the module's previously generated
// sentinel blocks. Declarations inside them are expansion output, not user
// declarations, so candidate filtering looks through them.
func (ps *pass) hiddenSpans(m *sv.Module) []sv.Span {
	if spans, ok := ps.hidden[m]; ok {
		return spans
	}
	spans := []sv.Span{}
	for _, d := range m.Directives {
		switch d.Kind {
		case sv.AutoInput, sv.AutoOutput, sv.AutoInout, sv.AutoWire, sv.AutoReg:
		default:
			continue
		}
		if d.Context != sv.CtxBody && d.Context != sv.CtxHeaderParen {
			continue
		}
		end := trailingGeneratedEnd(m.File.Text, d.Span.End, beginSentinel(d.Kind), nextDirectiveStart(m, d))
		if end > d.Span.End {
			spans = append(spans, sv.Span{Start: d.Span.End, End: end})
		}
	}
	ps.hidden[m] = spans
	return spans
}

// declaredOutside reports whether the module declares the name outside of
// any previously generated block.
func (ps *pass) declaredOutside(m *sv.Module, name string) bool {
	return anyOffsetOutside(m.DeclOffsets[name], ps.hiddenSpans(m))
}

// regOutside reports whether the module declares the name as reg outside
// of any previously generated block.
func (ps *pass) regOutside(m *sv.Module, name string) bool {
	return anyOffsetOutside(m.RegOffsets[name], ps.hiddenSpans(m))
}

func anyOffsetOutside(offsets []int, spans []sv.Span) bool {
	for _, off := range offsets {
		inside := false
		for _, s := range spans {
			if off >= s.Start && off < s.End {
				inside = true
				break
			}
		}
		if !inside {
			return true
		}
	}
	return false
}

// settle runs the bounded fixed point over every module in the project,
// updating the overlay in registration order so chained dependencies
// resolve within one call. Cycles simply stop improving once the bound is
// reached.
func (ps *pass) settle() {
	mods := ps.proj.Modules()
	for i := 0; i < fixedPointPasses; i++ {
		for _, m := range mods {
			ps.gen[m] = ps.computeGenerated(m)
		}
	}
}

// computeGenerated derives the overlay for one module from the directives
// it actually contains.
func (ps *pass) computeGenerated(m *sv.Module) *genPorts {
	g := &genPorts{}
	for _, d := range m.Directives {
		if d.Context != sv.CtxBody && d.Context != sv.CtxHeaderParen {
			continue
		}
		switch d.Kind {
		case sv.AutoInput:
			if g.inputs == nil {
				g.inputs = ps.propagated(m, sv.DirInput, sv.DirInput)
			}
		case sv.AutoOutput:
			if g.outputs == nil {
				g.outputs = ps.propagated(m, sv.DirOutput, sv.DirOutput)
			}
		case sv.AutoInout:
			if g.inouts == nil {
				g.inouts = ps.propagated(m, sv.DirInout, sv.DirInout)
			}
		}
	}
	return g
}

// effective returns a module's declared ports plus its overlay: the port
// set it presents to modules that instantiate it. Names are deduplicated,
// first occurrence wins, so re-expanding already generated declarations
// does not double a port.
func (ps *pass) effective(m *sv.Module) []sv.Port {
	var out []sv.Port
	seen := make(map[string]bool)
	add := func(p sv.Port) {
		if seen[p.Name] {
			return
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	for _, p := range m.Ports {
		if p.Dir == sv.DirInput || p.Dir == sv.DirOutput || p.Dir == sv.DirInout {
			add(p)
		}
	}
	if g := ps.gen[m]; g != nil {
		for _, p := range g.inputs {
			add(p)
		}
		for _, p := range g.outputs {
			add(p)
		}
		for _, p := range g.inouts {
			add(p)
		}
	}
	return out
}

// propagated gathers the candidate ports a module pulls in from the
// AUTOINST instances it contains: target-module ports within [lo, hi],
// renamed through the instance's template rule, minus names the module
// already declares.
func (ps *pass) propagated(m *sv.Module, lo, hi sv.Direction) []sv.Port {
	var out []sv.Port
	seen := make(map[string]bool)
	for _, inst := range m.Instances {
		if !inst.HasAutoInst {
			continue
		}
		t := ps.proj.Lookup(inst.ModuleName)
		if t == nil {
			continue
		}
		rule := ps.ruleFor(m, inst.ModuleName)
		for _, p := range ps.effective(t) {
			if p.Dir < lo || p.Dir > hi {
				continue
			}
			name, packed, unpacked := p.Name, p.PackedDims, p.UnpackedDims
			if expr, ok := rule.Entry(p.Name); ok {
				switch {
				case strings.HasSuffix(expr, "[]"):
					name = strings.TrimSpace(expr[:len(expr)-2])
				case template.IsSimpleIdent(expr):
					name, packed, unpacked = expr, nil, nil
				default:
					// an expression template connects the port to
					// something that is not a declarable name
					continue
				}
			}
			if name == "" || seen[name] || ps.declaredOutside(m, name) {
				continue
			}
			seen[name] = true
			out = append(out, sv.Port{
				Name:         name,
				Dir:          p.Dir,
				PackedDims:   packed,
				UnpackedDims: unpacked,
				Origin:       sv.Origin{InstanceName: inst.InstanceName, ModuleName: inst.ModuleName},
			})
		}
	}
	return out
}

func (ps *pass) ruleFor(m *sv.Module, target string) *template.Rule {
	cache, ok := ps.rules[m]
	if !ok {
		cache = make(map[string]*template.Rule)
		ps.rules[m] = cache
	}
	if r, ok := cache[target]; ok {
		return r
	}
	r := template.RuleFor(m.TemplateBlocks, target)
	cache[target] = r
	return r
}

// expand dispatches one directive to its expander. The bool result is
// false when the directive produces no edit: wrong context, unresolved
// module, or nothing to generate.
func (ps *pass) expand(buf *sv.File, m *sv.Module, d *sv.Directive) (Edit, bool) {
	switch d.Kind {
	case sv.AutoArg:
		return ps.expandArg(buf, m, d)
	case sv.AutoInst:
		return ps.expandInst(buf, m, d)
	case sv.AutoInput, sv.AutoOutput, sv.AutoInout, sv.AutoWire, sv.AutoReg:
		return ps.expandDecls(buf, m, d)
	}
	return Edit{}, false
}

// expandArg rewrites the module header's argument list: every effective
// port not already listed by hand before the directive, grouped by
// direction, names only.
func (ps *pass) expandArg(buf *sv.File, m *sv.Module, d *sv.Directive) (Edit, bool) {
	if d.Context != sv.CtxHeaderParen || m.HeaderClose < d.Span.End {
		return Edit{}, false
	}
	pre := m.PredeclaredArgs(d.Span.Start)
	var ports []sv.Port
	for _, p := range ps.effective(m) {
		if !pre[p.Name] {
			ports = append(ports, p)
		}
	}
	inputs, inouts, outputs := groupByDirection(ports)
	total := len(inputs) + len(inouts) + len(outputs)
	if total == 0 {
		return Edit{}, false
	}

	ind := buf.Lines.LineIndent(m.StmtStart)
	entryInd := ind + "    "
	var b strings.Builder
	if needsCommaBefore(buf.Text, m.HeaderOpen+1, d.Span.Start) {
		b.WriteString(",")
	}
	n := 0
	emit := func(label string, group []sv.Port) {
		if len(group) == 0 {
			return
		}
		b.WriteString("\n" + entryInd + label)
		for _, p := range group {
			n++
			b.WriteString("\n" + entryInd + p.Name)
			if n < total {
				b.WriteString(",")
			}
		}
	}
	emit(labelInputs, inputs)
	emit(labelInouts, inouts)
	emit(labelOutputs, outputs)
	b.WriteString("\n" + ind)

	return Edit{
		Kind:    d.Kind,
		Full:    sv.Span{Start: d.Span.Start, End: m.HeaderClose},
		Span:    sv.Span{Start: d.Span.End, End: m.HeaderClose},
		NewText: b.String(),
	}, true
}

// needsCommaBefore reports whether hand-written argument tokens before the
// directive still need a comma terminator. Comments do not count as
// argument tokens.
func needsCommaBefore(src string, from, to int) bool {
	if from < 0 || to <= from {
		return false
	}
	last := sv.Token{Type: sv.EOF}
	for _, t := range sv.NewLexer(src[from:to]).Scan() {
		switch t.Type {
		case sv.LINE_COMMENT, sv.BLOCK_COMMENT, sv.EOF:
		default:
			last = t
		}
	}
	return last.Type != sv.EOF && last.Type != sv.COMMA
}

// expandInst rewrites an instance argument list: one connection per target
// port not already connected before the directive, template rules applied,
// grouped by direction.
func (ps *pass) expandInst(buf *sv.File, m *sv.Module, d *sv.Directive) (Edit, bool) {
	if d.Context != sv.CtxInstanceArgs || d.Instance == nil {
		return Edit{}, false
	}
	inst := d.Instance
	if inst.ParenClose < d.Span.End {
		return Edit{}, false
	}
	t := ps.proj.Lookup(inst.ModuleName)
	if t == nil {
		return Edit{}, false
	}
	rule := ps.ruleFor(m, inst.ModuleName)

	var ports []sv.Port
	for _, p := range ps.effective(t) {
		if inst.ConnectedBefore(p.Name, d.Span.Start) {
			continue
		}
		ports = append(ports, p)
	}
	inputs, inouts, outputs := groupByDirection(ports)
	total := len(inputs) + len(inouts) + len(outputs)
	if total == 0 {
		return Edit{}, false
	}

	ind := buf.Lines.LineIndent(inst.StmtStart)
	entryInd := ind + "    "
	var b strings.Builder
	n := 0
	emit := func(label string, group []sv.Port) {
		if len(group) == 0 {
			return
		}
		b.WriteString("\n" + entryInd + label)
		for _, p := range group {
			n++
			expr := ""
			if e, ok := rule.Entry(p.Name); ok {
				if strings.HasSuffix(e, "[]") {
					expr = connExpr(strings.TrimSpace(e[:len(e)-2]), p.PackedDims, p.UnpackedDims)
				} else {
					expr = e
				}
			} else {
				expr = connExpr(p.Name, p.PackedDims, p.UnpackedDims)
			}
			b.WriteString("\n" + entryInd + "." + p.Name + "(" + expr + ")")
			if n < total {
				b.WriteString(",")
			}
		}
	}
	emit(labelInputs, inputs)
	emit(labelInouts, inouts)
	emit(labelOutputs, outputs)
	b.WriteString("\n" + ind)

	return Edit{
		Kind:    d.Kind,
		Full:    sv.Span{Start: d.Span.Start, End: inst.ParenClose},
		Span:    sv.Span{Start: d.Span.End, End: inst.ParenClose},
		NewText: b.String(),
	}, true
}

// expandDecls handles the declaration directives: AUTOINPUT, AUTOOUTPUT,
// AUTOINOUT, AUTOWIRE, AUTOREG. The replacement swallows a previously
// generated sentinel block immediately after the directive.
func (ps *pass) expandDecls(buf *sv.File, m *sv.Module, d *sv.Directive) (Edit, bool) {
	header := d.Context == sv.CtxHeaderParen
	switch d.Kind {
	case sv.AutoWire, sv.AutoReg:
		if d.Context != sv.CtxBody {
			return Edit{}, false
		}
	default:
		if d.Context != sv.CtxBody && !header {
			return Edit{}, false
		}
	}

	g := ps.gen[m]
	if g == nil {
		g = ps.computeGenerated(m)
	}
	var kw string
	var ports []sv.Port
	switch d.Kind {
	case sv.AutoInput:
		kw, ports = "input", g.inputs
	case sv.AutoOutput:
		kw, ports = "output", g.outputs
	case sv.AutoInout:
		kw, ports = "inout", g.inouts
	case sv.AutoWire:
		kw, ports = "wire", ps.propagated(m, sv.DirOutput, sv.DirInout)
	case sv.AutoReg:
		kw, ports = "reg", ps.undeclaredRegs(m)
	}
	if len(ports) == 0 {
		return Edit{}, false
	}

	spanEnd := trailingGeneratedEnd(buf.Text, d.Span.End, beginSentinel(d.Kind), nextDirectiveStart(m, d))
	ind := buf.Lines.LineIndent(d.Span.Start)

	lastOmitsComma := header &&
		buf.Lines.OnlyWhitespaceBetween(spanEnd, m.HeaderClose)

	var b strings.Builder
	b.WriteString("\n" + ind + beginSentinel(d.Kind))
	for i, p := range ports {
		b.WriteString("\n" + ind)
		b.WriteString(declText(kw, p))
		if header {
			if !(lastOmitsComma && i == len(ports)-1) {
				b.WriteString(",")
			}
		} else {
			b.WriteString(";")
		}
		if c := originComment(p); c != "" && d.Kind != sv.AutoReg {
			b.WriteString("  " + c)
		}
	}
	b.WriteString("\n" + ind + endAutomatic)

	return Edit{
		Kind:    d.Kind,
		Full:    sv.Span{Start: d.Span.Start, End: spanEnd},
		Span:    sv.Span{Start: d.Span.End, End: spanEnd},
		NewText: b.String(),
	}, true
}

// undeclaredRegs lists the module's declared outputs that still need a reg
// declaration: not already a reg, and not driven by an output or inout of
// an instantiated module (those are nets, not registers).
func (ps *pass) undeclaredRegs(m *sv.Module) []sv.Port {
	driven := ps.instanceDrivenNames(m)
	var out []sv.Port
	for _, p := range m.Ports {
		if p.Dir == sv.DirOutput && !ps.regOutside(m, p.Name) && !driven[p.Name] {
			out = append(out, p)
		}
	}
	return out
}

// instanceDrivenNames collects the signal names the module's AUTOINST
// instances drive: every output or inout of an instantiated module, under
// the template rule's renaming.
func (ps *pass) instanceDrivenNames(m *sv.Module) map[string]bool {
	driven := make(map[string]bool)
	for _, inst := range m.Instances {
		if !inst.HasAutoInst {
			continue
		}
		t := ps.proj.Lookup(inst.ModuleName)
		if t == nil {
			continue
		}
		rule := ps.ruleFor(m, inst.ModuleName)
		for _, p := range ps.effective(t) {
			if p.Dir != sv.DirOutput && p.Dir != sv.DirInout {
				continue
			}
			name := p.Name
			if expr, ok := rule.Entry(p.Name); ok {
				switch {
				case strings.HasSuffix(expr, "[]"):
					name = strings.TrimSpace(expr[:len(expr)-2])
				case template.IsSimpleIdent(expr):
					name = expr
				default:
					continue
				}
			}
			driven[name] = true
		}
	}
	return driven
}

// nextDirectiveStart bounds how far a directive's trailing generated block
// may reach: never into the next directive of the same module.
func nextDirectiveStart(m *sv.Module, d *sv.Directive) int {
	bound := m.Span.End
	for _, other := range m.Directives {
		if other.Span.Start >= d.Span.End && other != d && other.Span.Start < bound {
			bound = other.Span.Start
		}
	}
	return bound
}

// trailingGeneratedEnd extends a directive span over the sentinel block
// that a previous expansion left behind. Only whitespace may separate the
// directive from the block's begin sentinel; hand-edited sentinels are not
// recognized and the block becomes ordinary user text.
func trailingGeneratedEnd(src string, from int, begin string, bound int) int {
	if begin == "" {
		return from
	}
	i := from
	for i < len(src) && isBlank(src[i]) {
		i++
	}
	if !strings.HasPrefix(src[i:], begin) {
		return from
	}
	j := strings.Index(src[i:], endAutomatic)
	if j < 0 {
		return from
	}
	end := i + j + len(endAutomatic)
	if end > bound {
		return from
	}
	return end
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
