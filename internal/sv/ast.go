package sv

// Direction classifies a port or net declaration.
type Direction int

const (
	DirUnknown Direction = iota
	DirInput
	DirOutput
	DirInout
	DirWire
	DirReg
)

func (d Direction) String() string {
	switch d {
	case DirInput:
		return "input"
	case DirOutput:
		return "output"
	case DirInout:
		return "inout"
	case DirWire:
		return "wire"
	case DirReg:
		return "reg"
	}
	return "unknown"
}

// Span is a half-open byte interval [Start, End) in the source.
type Span struct {
	Start int
	End   int
}

// Origin records where a propagated port came from.
type Origin struct {
	InstanceName string
	ModuleName   string
}

// Port is a declared port or net of a module: its name, direction, and the
// raw text of its packed (before the name) and unpacked (after the name)
// dimension groups. Two ports are the same port iff their names are equal.
type Port struct {
	Name         string
	Dir          Direction
	PackedDims   []string
	UnpackedDims []string
	IsReg        bool // declared with the reg keyword
	Origin       Origin
}

// Connection is one named connection in an instance argument list,
// preserved verbatim.
type Connection struct {
	PortName string
	Expr     string
	Span     Span
}

// Instance is a module instantiation inside a module body.
type Instance struct {
	InstanceName string
	ModuleName   string
	Connections  []Connection
	ParenOpen    int // byte offset of '('
	ParenClose   int // byte offset of ')'
	StmtStart    int // byte offset of the module-name token
	HasAutoInst  bool
	AutoInst     *Directive // the AUTOINST directive inside the argument list, if any
}

// ConnectedBefore reports whether the named port has an explicit connection
// that lexically precedes the given byte offset.
func (in *Instance) ConnectedBefore(name string, before int) bool {
	for _, c := range in.Connections {
		if c.PortName == name && c.Span.Start < before {
			return true
		}
	}
	return false
}

// DirectiveKind enumerates the AUTO comment kinds the engine expands.
type DirectiveKind int

const (
	AutoArg DirectiveKind = iota
	AutoInst
	AutoInput
	AutoOutput
	AutoInout
	AutoWire
	AutoReg
)

func (k DirectiveKind) String() string {
	switch k {
	case AutoArg:
		return "AUTOARG"
	case AutoInst:
		return "AUTOINST"
	case AutoInput:
		return "AUTOINPUT"
	case AutoOutput:
		return "AUTOOUTPUT"
	case AutoInout:
		return "AUTOINOUT"
	case AutoWire:
		return "AUTOWIRE"
	case AutoReg:
		return "AUTOREG"
	}
	return "?"
}

// DirectiveContext says where in the module a directive comment sits.
type DirectiveContext int

const (
	CtxBody DirectiveContext = iota
	CtxHeaderParen
	CtxInstanceArgs
)

// Directive is one /*AUTO...*/ comment together with its placement.
type Directive struct {
	Kind     DirectiveKind
	Span     Span
	Context  DirectiveContext
	Instance *Instance // set when Context == CtxInstanceArgs
}

// TemplateBlock is a raw AUTO_TEMPLATE comment; rule parsing happens in the
// template package.
type TemplateBlock struct {
	Text string // comment text including delimiters
	Span Span
}

// Module is the parsed surface of one module declaration.
type Module struct {
	Name           string
	Ports          []Port               // declared ports, header + body, source order, deduped by name
	Locals         map[string]Direction // every declared name -> kind of its declaration
	RegNames       map[string]bool      // names declared with the reg keyword
	DeclOffsets    map[string][]int     // byte offsets of each name's declarations
	RegOffsets     map[string][]int     // byte offsets of each name's reg declarations
	HeaderTokens   []Token              // identifier tokens inside the header parens
	HeaderOpen     int                  // byte offset of the header '(' (-1 if none)
	HeaderClose    int                  // byte offset of the header ')' (-1 if none)
	Instances      []*Instance
	Directives     []*Directive
	TemplateBlocks []TemplateBlock
	Span           Span  // module keyword through endmodule
	StmtStart      int   // byte offset of the module keyword
	File           *File // the file this module was parsed from
}

// File is a parsed source file: the module list plus the text it was
// parsed from and a coordinate map over that text.
type File struct {
	Path    string
	Text    string
	Modules []*Module
	Lines   *LineMap
}

// PortsOf returns the module's declared ports in source order.
func (m *Module) PortsOf() []Port { return m.Ports }

// LocalsOf returns the set of names declared inside the module as a port,
// net, or variable.
func (m *Module) LocalsOf() map[string]Direction { return m.Locals }

// InstancesOf returns the module's instantiations in source order.
func (m *Module) InstancesOf() []*Instance { return m.Instances }

// DirectivesOf returns the module's AUTO directives in source order.
func (m *Module) DirectivesOf() []*Directive { return m.Directives }

// TemplatesOf returns the module's AUTO_TEMPLATE comment blocks in source
// order.
func (m *Module) TemplatesOf() []TemplateBlock { return m.TemplateBlocks }

// DeclaredHere reports whether the name is declared in the module as a
// port, net, or variable.
func (m *Module) DeclaredHere(name string) bool {
	_, ok := m.Locals[name]
	return ok
}

// PredeclaredArgs returns the identifier names that appear inside the
// header parentheses before the given byte offset. AUTOARG uses this to
// skip ports the author already listed by hand.
func (m *Module) PredeclaredArgs(before int) map[string]bool {
	out := make(map[string]bool)
	for _, t := range m.HeaderTokens {
		if t.Start < before && !declKeywords[t.Text] {
			out[t.Text] = true
		}
	}
	return out
}
