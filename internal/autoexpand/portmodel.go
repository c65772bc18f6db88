package autoexpand

import (
	"strings"

	"github.com/kirkster96/verible/internal/sv"
)

// Sentinel comments delimiting previously generated blocks. These must be
// emitted and recognized byte-for-byte so expansions round-trip.
const (
	beginInputs  = "// Beginning of automatic inputs (from autoinst inputs)"
	beginOutputs = "// Beginning of automatic outputs (from autoinst outputs)"
	beginInouts  = "// Beginning of automatic inouts (from autoinst inouts)"
	beginWires   = "// Beginning of automatic wires (for undeclared instantiated-module outputs)"
	beginRegs    = "// Beginning of automatic regs (for this module's undeclared outputs)"
	endAutomatic = "// End of automatics"

	labelInputs  = "// Inputs"
	labelInouts  = "// Inouts"
	labelOutputs = "// Outputs"
)

func beginSentinel(kind sv.DirectiveKind) string {
	switch kind {
	case sv.AutoInput:
		return beginInputs
	case sv.AutoOutput:
		return beginOutputs
	case sv.AutoInout:
		return beginInouts
	case sv.AutoWire:
		return beginWires
	case sv.AutoReg:
		return beginRegs
	}
	return ""
}

// connExpr derives the connection expression for a port: the bit slice for
// a single packed dimension, or a dimension comment otherwise. This is the
// shape the project formatter leaves untouched.
//
//	scalar                  name
//	one packed dim          name[msb:lsb]
//	several packed dims     name  /*[a][b]*/
//	unpacked dims only      name  /*.[x][y]*/
//	packed and unpacked     name  /*[a].[x]*/
func connExpr(name string, packed, unpacked []string) string {
	switch {
	case len(packed) == 0 && len(unpacked) == 0:
		return name
	case len(packed) == 1 && len(unpacked) == 0:
		return name + packed[0]
	case len(unpacked) == 0:
		return name + "  /*" + strings.Join(packed, "") + "*/"
	default:
		return name + "  /*" + strings.Join(packed, "") + "." + strings.Join(unpacked, "") + "*/"
	}
}

// declText renders `kw [packed] name[unpacked]` without terminator.
func declText(kw string, p sv.Port) string {
	var b strings.Builder
	b.WriteString(kw)
	b.WriteByte(' ')
	if len(p.PackedDims) > 0 {
		b.WriteString(strings.Join(p.PackedDims, ""))
		b.WriteByte(' ')
	}
	b.WriteString(p.Name)
	b.WriteString(strings.Join(p.UnpackedDims, ""))
	return b.String()
}

// originComment renders the provenance note for a propagated declaration.
// Inputs feed an instance, outputs come from one, inouts both.
func originComment(p sv.Port) string {
	var dir string
	switch p.Dir {
	case sv.DirInput:
		dir = "To"
	case sv.DirOutput:
		dir = "From"
	case sv.DirInout:
		dir = "To/From"
	default:
		return ""
	}
	return "// " + dir + " " + p.Origin.InstanceName + " of " + p.Origin.ModuleName
}

// groupByDirection splits ports into the three emission groups, preserving
// order within each.
func groupByDirection(ports []sv.Port) (inputs, inouts, outputs []sv.Port) {
	for _, p := range ports {
		switch p.Dir {
		case sv.DirInput:
			inputs = append(inputs, p)
		case sv.DirInout:
			inouts = append(inouts, p)
		case sv.DirOutput:
			outputs = append(outputs, p)
		}
	}
	return
}
