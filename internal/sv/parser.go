package sv

import (
	"strings"
)

// declKeywords are identifier tokens inside a module header that can never
// be port names.
var declKeywords = map[string]bool{
	"input": true, "output": true, "inout": true, "ref": true,
	"wire": true, "reg": true, "logic": true, "bit": true, "var": true,
	"signed": true, "unsigned": true, "tri": true, "tri0": true, "tri1": true,
	"uwire": true, "wand": true, "wor": true, "triand": true, "trior": true,
	"supply0": true, "supply1": true, "integer": true, "time": true,
	"real": true, "realtime": true, "byte": true, "shortint": true,
	"int": true, "longint": true, "genvar": true, "parameter": true,
	"localparam": true,
}

// typeKeywords may follow a direction or net keyword before the dimensions
// and the declared name.
var typeKeywords = map[string]bool{
	"wire": true, "reg": true, "logic": true, "bit": true, "var": true,
	"signed": true, "unsigned": true, "tri": true, "tri0": true, "tri1": true,
	"uwire": true, "wand": true, "wor": true, "triand": true, "trior": true,
	"supply0": true, "supply1": true, "integer": true, "time": true,
	"real": true, "realtime": true, "byte": true, "shortint": true,
	"int": true, "longint": true,
}

// netVarKeywords start a net or variable declaration statement.
var netVarKeywords = map[string]bool{
	"wire": true, "reg": true, "logic": true, "bit": true, "var": true,
	"tri": true, "tri0": true, "tri1": true, "uwire": true, "wand": true,
	"wor": true, "triand": true, "trior": true, "supply0": true,
	"supply1": true, "integer": true, "time": true, "real": true,
	"realtime": true, "byte": true, "shortint": true, "int": true,
	"longint": true, "genvar": true,
}

// skipToSemiKeywords start statements the expansion engine has no interest
// in beyond skipping them whole.
var skipToSemiKeywords = map[string]bool{
	"assign": true, "parameter": true, "localparam": true, "typedef": true,
	"import": true, "export": true, "defparam": true, "timeunit": true,
	"timeprecision": true, "alias": true,
}

// blockKeywords open a procedural or generate block that may span
// statements.
var blockKeywords = map[string]bool{
	"always": true, "always_ff": true, "always_comb": true,
	"always_latch": true, "initial": true, "final": true, "if": true,
	"for": true, "case": true, "casex": true, "casez": true,
}

var directiveKinds = map[string]DirectiveKind{
	"AUTOARG":    AutoArg,
	"AUTOINST":   AutoInst,
	"AUTOINPUT":  AutoInput,
	"AUTOOUTPUT": AutoOutput,
	"AUTOINOUT":  AutoInout,
	"AUTOWIRE":   AutoWire,
	"AUTOREG":    AutoReg,
}

// ParseFile parses the module surface of a SystemVerilog buffer: modules,
// their ports and local declarations, instantiations with their named
// connections, and the AUTO comments. It never fails; constructs it does
// not model are skipped.
func ParseFile(path, text string) *File {
	toks := NewLexer(text).Scan()
	p := &parser{src: text, toks: toks}
	mods := p.parse()
	f := &File{Path: path, Text: text, Modules: mods, Lines: NewLineMap(text)}
	for _, m := range mods {
		m.File = f
	}
	attachComments(f, toks)
	return f
}

type parser struct {
	src  string
	toks []Token
	i    int
}

func (p *parser) tok() Token { return p.toks[p.i] }

func (p *parser) advance() {
	if p.i < len(p.toks)-1 {
		p.i++
	}
}

// code returns the current non-comment token, advancing past comments.
func (p *parser) code() Token {
	for p.tok().Type == LINE_COMMENT || p.tok().Type == BLOCK_COMMENT {
		p.advance()
	}
	return p.tok()
}

func (p *parser) parse() []*Module {
	var mods []*Module
	for {
		t := p.code()
		if t.Type == EOF {
			return mods
		}
		if t.Type == ID && (t.Text == "module" || t.Text == "macromodule") {
			mods = append(mods, p.parseModule())
			continue
		}
		p.advance()
	}
}

func (p *parser) parseModule() *Module {
	kw := p.code()
	m := &Module{
		StmtStart:   kw.Start,
		HeaderOpen:  -1,
		HeaderClose: -1,
		Locals:      make(map[string]Direction),
		RegNames:    make(map[string]bool),
		DeclOffsets: make(map[string][]int),
		RegOffsets:  make(map[string][]int),
	}
	m.Span.Start = kw.Start
	p.advance()

	if t := p.code(); t.Type == ID {
		m.Name = t.Text
		p.advance()
	}

	// module name [import ...;]* [#(params)] [(ports)] ;
header:
	for {
		switch t := p.code(); {
		case t.Type == EOF:
			m.Span.End = t.End
			return m
		case t.Type == HASH:
			p.advance()
			if p.code().Type == LPAREN {
				p.skipBalancedParens()
			}
		case t.Type == LPAREN:
			p.parseHeader(m)
		case t.Type == SEMI:
			p.advance()
			break header
		default:
			p.advance()
		}
	}

	p.parseBody(m)
	m.Span.End = p.toks[p.i-1].End
	return m
}

// parseHeader consumes the port list parentheses, collecting ANSI port
// declarations and the raw identifier tokens.
func (p *parser) parseHeader(m *Module) {
	open := p.code()
	m.HeaderOpen = open.Start
	p.advance()

	var entry []Token
	depth := 0
	for {
		t := p.tok()
		switch t.Type {
		case EOF:
			m.HeaderClose = t.Start
			return
		case LINE_COMMENT, BLOCK_COMMENT:
			p.advance()
			continue
		case LPAREN, LBRACE:
			depth++
		case RBRACE:
			depth--
		case RPAREN:
			if depth == 0 {
				p.finishHeaderEntry(m, entry)
				m.HeaderClose = t.Start
				p.advance()
				return
			}
			depth--
		case COMMA:
			if depth == 0 {
				p.finishHeaderEntry(m, entry)
				entry = entry[:0]
				p.advance()
				continue
			}
		}
		if t.Type == ID {
			m.HeaderTokens = append(m.HeaderTokens, t)
		}
		entry = append(entry, t)
		p.advance()
	}
}

// finishHeaderEntry turns one comma-separated header entry into a declared
// port. Entries without an explicit direction stay DirUnknown until a body
// declaration of the same name fills the direction in.
func (p *parser) finishHeaderEntry(m *Module, entry []Token) {
	i := 0
	skipBrackets := func() []string {
		var dims []string
		for i < len(entry) && entry[i].Type == LBRACKET {
			depth := 0
			start := entry[i].Start
			for i < len(entry) {
				if entry[i].Type == LBRACKET {
					depth++
				} else if entry[i].Type == RBRACKET {
					depth--
					if depth == 0 {
						dims = append(dims, p.src[start:entry[i].End])
						i++
						break
					}
				}
				i++
			}
		}
		return dims
	}

	dir := DirUnknown
	isReg := false
	if i < len(entry) && entry[i].Type == ID {
		switch entry[i].Text {
		case "input":
			dir = DirInput
			i++
		case "output":
			dir = DirOutput
			i++
		case "inout":
			dir = DirInout
			i++
		}
	}
	for i < len(entry) && entry[i].Type == ID && typeKeywords[entry[i].Text] {
		if entry[i].Text == "reg" {
			isReg = true
		}
		i++
	}
	packed := skipBrackets()
	if i >= len(entry) || entry[i].Type != ID {
		return
	}
	name := entry[i].Text
	nameAt := entry[i].Start
	i++
	unpacked := skipBrackets()

	m.addPort(Port{Name: name, Dir: dir, PackedDims: packed, UnpackedDims: unpacked, IsReg: isReg}, nameAt)
}

func (p *parser) parseBody(m *Module) {
	for {
		t := p.code()
		switch {
		case t.Type == EOF:
			return
		case t.Type == ID && t.Text == "endmodule":
			p.advance()
			return
		case t.Type == ID && (t.Text == "input" || t.Text == "output" || t.Text == "inout"):
			p.parseDecl(m, t.Text)
		case t.Type == ID && netVarKeywords[t.Text]:
			p.parseDecl(m, t.Text)
		case t.Type == ID && skipToSemiKeywords[t.Text]:
			p.skipToSemi()
		case t.Type == ID && (t.Text == "generate" || t.Text == "endgenerate"):
			p.advance()
		case t.Type == ID && t.Text == "function":
			p.skipUntilKeyword("endfunction")
		case t.Type == ID && t.Text == "task":
			p.skipUntilKeyword("endtask")
		case t.Type == ID && blockKeywords[t.Text]:
			p.skipBlock()
		case t.Type == ID:
			p.parseInstanceOrDecl(m)
		default:
			p.advance()
		}
	}
}

// parseDecl parses a port, net, or variable declaration statement starting
// at the given keyword, recording declared ports and local names.
func (p *parser) parseDecl(m *Module, kw string) {
	var dir Direction
	isPort := false
	switch kw {
	case "input":
		dir, isPort = DirInput, true
	case "output":
		dir, isPort = DirOutput, true
	case "inout":
		dir, isPort = DirInout, true
	case "wire":
		dir = DirWire
	case "reg":
		dir = DirReg
	default:
		dir = DirWire
	}
	isReg := kw == "reg"
	p.advance()

	for {
		t := p.code()
		if t.Type != ID || !typeKeywords[t.Text] {
			break
		}
		if t.Text == "reg" {
			isReg = true
		}
		p.advance()
	}
	packed := p.collectBrackets()

	for {
		t := p.code()
		if t.Type != ID {
			break
		}
		name := t.Text
		nameAt := t.Start
		p.advance()
		unpacked := p.collectBrackets()

		if isPort {
			m.addPort(Port{Name: name, Dir: dir, PackedDims: packed, UnpackedDims: unpacked, IsReg: isReg}, nameAt)
		} else {
			m.Locals[name] = dir
			m.DeclOffsets[name] = append(m.DeclOffsets[name], nameAt)
		}
		if isReg {
			m.RegNames[name] = true
			m.RegOffsets[name] = append(m.RegOffsets[name], nameAt)
		}

		// skip a default value up to the next declarator or the end
		depth := 0
		for {
			t := p.code()
			if t.Type == EOF || t.Type == SEMI && depth == 0 {
				break
			}
			if t.Type == ID && t.Text == "endmodule" && depth == 0 {
				break
			}
			if t.Type == COMMA && depth == 0 {
				break
			}
			switch t.Type {
			case LPAREN, LBRACKET, LBRACE:
				depth++
			case RPAREN, RBRACKET, RBRACE:
				depth--
			}
			p.advance()
		}
		if p.code().Type == COMMA {
			p.advance()
			continue
		}
		break
	}
	p.skipToSemi()
}

// parseInstanceOrDecl handles statements that begin with a plain
// identifier: a module instantiation, or a declaration using a user type.
func (p *parser) parseInstanceOrDecl(m *Module) {
	modName := p.code()
	p.advance()

	if p.code().Type == HASH {
		p.advance()
		if p.code().Type == LPAREN {
			p.skipBalancedParens()
		}
	}

	t := p.code()
	if t.Type != ID {
		p.skipToSemi()
		return
	}
	name := t.Text
	p.advance()
	p.collectBrackets()

	if p.code().Type != LPAREN {
		// user-type variable declaration: record the names only
		m.Locals[name] = DirUnknown
		m.DeclOffsets[name] = append(m.DeclOffsets[name], t.Start)
		for p.code().Type == COMMA {
			p.advance()
			if n := p.code(); n.Type == ID {
				m.Locals[n.Text] = DirUnknown
				m.DeclOffsets[n.Text] = append(m.DeclOffsets[n.Text], n.Start)
				p.advance()
				p.collectBrackets()
			}
		}
		p.skipToSemi()
		return
	}

	inst := &Instance{
		InstanceName: name,
		ModuleName:   modName.Text,
		StmtStart:    modName.Start,
	}
	p.parseConnections(inst)
	m.Instances = append(m.Instances, inst)
	p.skipToSemi()
}

// parseConnections consumes the instance argument list, recording named
// connections verbatim.
func (p *parser) parseConnections(inst *Instance) {
	open := p.code()
	inst.ParenOpen = open.Start
	p.advance()

	depth := 0
	var entry []Token
	flush := func() {
		if c, ok := p.namedConnection(entry); ok {
			inst.Connections = append(inst.Connections, c)
		}
		entry = entry[:0]
	}
	for {
		t := p.tok()
		switch t.Type {
		case EOF:
			inst.ParenClose = t.Start
			return
		case LINE_COMMENT, BLOCK_COMMENT:
			p.advance()
			continue
		case LPAREN, LBRACE, LBRACKET:
			depth++
		case RBRACE, RBRACKET:
			depth--
		case RPAREN:
			if depth == 0 {
				flush()
				inst.ParenClose = t.Start
				p.advance()
				return
			}
			depth--
		case COMMA:
			if depth == 0 {
				flush()
				p.advance()
				continue
			}
		}
		entry = append(entry, t)
		p.advance()
	}
}

// namedConnection recognizes `.port(expr)` in an argument-list entry.
func (p *parser) namedConnection(entry []Token) (Connection, bool) {
	if len(entry) < 4 || entry[0].Type != DOT || entry[1].Type != ID || entry[2].Type != LPAREN {
		return Connection{}, false
	}
	last := entry[len(entry)-1]
	if last.Type != RPAREN {
		return Connection{}, false
	}
	return Connection{
		PortName: entry[1].Text,
		Expr:     p.src[entry[2].End:last.Start],
		Span:     Span{Start: entry[0].Start, End: last.End},
	}, true
}

func (p *parser) collectBrackets() []string {
	var dims []string
	for p.code().Type == LBRACKET {
		start := p.code().Start
		depth := 0
		for {
			t := p.code()
			if t.Type == EOF {
				return dims
			}
			if t.Type == LBRACKET {
				depth++
			} else if t.Type == RBRACKET {
				depth--
				if depth == 0 {
					dims = append(dims, p.src[start:t.End])
					p.advance()
					break
				}
			}
			p.advance()
		}
	}
	return dims
}

// skipToSemi consumes tokens through the next top-level semicolon, but
// never past endmodule.
func (p *parser) skipToSemi() {
	depth := 0
	for {
		t := p.code()
		switch {
		case t.Type == EOF:
			return
		case t.Type == ID && t.Text == "endmodule" && depth <= 0:
			return
		case t.Type == SEMI && depth <= 0:
			p.advance()
			return
		case t.Type == LPAREN || t.Type == LBRACKET || t.Type == LBRACE:
			depth++
		case t.Type == RPAREN || t.Type == RBRACKET || t.Type == RBRACE:
			depth--
		}
		p.advance()
	}
}

func (p *parser) skipBalancedParens() {
	depth := 0
	for {
		t := p.code()
		if t.Type == EOF {
			return
		}
		if t.Type == LPAREN {
			depth++
		} else if t.Type == RPAREN {
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

func (p *parser) skipUntilKeyword(kw string) {
	for {
		t := p.code()
		if t.Type == EOF {
			return
		}
		p.advance()
		if t.Type == ID && t.Text == kw {
			return
		}
	}
}

// skipBlock consumes a procedural or generate statement: either through
// the first top-level semicolon, or through the end matching its begin.
func (p *parser) skipBlock() {
	p.advance()
	depth := 0
	parens := 0
	seenBegin := false
	for {
		t := p.code()
		switch {
		case t.Type == EOF:
			return
		case t.Type == ID && t.Text == "endmodule" && depth == 0:
			return
		case t.Type == LPAREN || t.Type == LBRACKET || t.Type == LBRACE:
			parens++
		case t.Type == RPAREN || t.Type == RBRACKET || t.Type == RBRACE:
			parens--
		case t.Type == ID && (t.Text == "begin" || t.Text == "case" || t.Text == "casex" || t.Text == "casez" || t.Text == "fork"):
			depth++
			seenBegin = true
		case t.Type == ID && (t.Text == "end" || t.Text == "endcase" || t.Text == "join" || t.Text == "join_any" || t.Text == "join_none"):
			depth--
			if depth <= 0 {
				p.advance()
				return
			}
		case t.Type == SEMI && depth == 0 && parens == 0 && !seenBegin:
			p.advance()
			return
		}
		p.advance()
	}
}

// addPort appends a declared port, merging body re-declarations into a
// header entry of the same name.
func (m *Module) addPort(port Port, at int) {
	m.Locals[port.Name] = port.Dir
	m.DeclOffsets[port.Name] = append(m.DeclOffsets[port.Name], at)
	if port.IsReg {
		m.RegNames[port.Name] = true
		m.RegOffsets[port.Name] = append(m.RegOffsets[port.Name], at)
	}
	for i := range m.Ports {
		if m.Ports[i].Name == port.Name {
			if m.Ports[i].Dir == DirUnknown {
				m.Ports[i] = port
			}
			return
		}
	}
	m.Ports = append(m.Ports, port)
}

// attachComments classifies AUTO comments and assigns them to their
// enclosing module with the right context.
func attachComments(f *File, toks []Token) {
	for _, t := range toks {
		if t.Type != BLOCK_COMMENT {
			continue
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(t.Text, "/*"), "*/")
		mod := moduleAt(f, t.Start)
		if mod == nil {
			continue
		}
		if kind, ok := directiveKinds[strings.TrimSpace(inner)]; ok {
			d := &Directive{Kind: kind, Span: Span{Start: t.Start, End: t.End}, Context: CtxBody}
			if mod.HeaderOpen >= 0 && t.Start > mod.HeaderOpen && t.Start < mod.HeaderClose {
				d.Context = CtxHeaderParen
			} else if inst := instanceAt(mod, t.Start); inst != nil {
				d.Context = CtxInstanceArgs
				d.Instance = inst
				if kind == AutoInst {
					inst.HasAutoInst = true
					inst.AutoInst = d
				}
			}
			mod.Directives = append(mod.Directives, d)
			continue
		}
		if strings.Contains(inner, "AUTO_TEMPLATE") {
			mod.TemplateBlocks = append(mod.TemplateBlocks, TemplateBlock{
				Text: t.Text,
				Span: Span{Start: t.Start, End: t.End},
			})
		}
	}
}

func moduleAt(f *File, off int) *Module {
	for _, m := range f.Modules {
		if off >= m.Span.Start && off < m.Span.End {
			return m
		}
	}
	return nil
}

func instanceAt(m *Module, off int) *Instance {
	for _, inst := range m.Instances {
		if off > inst.ParenOpen && off < inst.ParenClose {
			return inst
		}
	}
	return nil
}
