package sv

import (
	"strings"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// LineMap converts byte offsets in a source buffer to LSP positions
// (zero-based line, UTF-16 code-unit column) and back. It is read-only
// after construction and safe for concurrent use.
type LineMap struct {
	src        string
	lineStarts []int
}

// NewLineMap builds the line index for src.
func NewLineMap(src string) *LineMap {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineMap{src: src, lineStarts: starts}
}

// Position maps a byte offset to an LSP position. Offsets past the end of
// the buffer clamp to the last position.
func (m *LineMap) Position(offset int) protocol.Position {
	if offset > len(m.src) {
		offset = len(m.src)
	}
	line := m.lineOf(offset)
	col := utf16Len(m.src[m.lineStarts[line]:offset])
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)}
}

// Range maps a byte span to an LSP range.
func (m *LineMap) Range(start, end int) protocol.Range {
	return protocol.Range{Start: m.Position(start), End: m.Position(end)}
}

// Offset maps an LSP position back to a byte offset. Columns past the end
// of the line clamp to the line end.
func (m *LineMap) Offset(p protocol.Position) int {
	line := int(p.Line)
	if line >= len(m.lineStarts) {
		return len(m.src)
	}
	start := m.lineStarts[line]
	end := len(m.src)
	if line+1 < len(m.lineStarts) {
		end = m.lineStarts[line+1] - 1
	}
	rest := m.src[start:end]
	units := int(p.Character)
	off := start
	for units > 0 && len(rest) > 0 {
		r, size := utf8.DecodeRuneInString(rest)
		if r >= 0x10000 {
			units -= 2
		} else {
			units--
		}
		off += size
		rest = rest[size:]
	}
	return off
}

// LineIndent returns the leading whitespace of the line containing the
// given byte offset.
func (m *LineMap) LineIndent(offset int) string {
	line := m.lineOf(offset)
	start := m.lineStarts[line]
	end := start
	for end < len(m.src) && (m.src[end] == ' ' || m.src[end] == '\t') {
		end++
	}
	return m.src[start:end]
}

func (m *LineMap) lineOf(offset int) int {
	lo, hi := 0, len(m.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if m.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// utf16Len counts UTF-16 code units in a UTF-8 string, which is what LSP
// character offsets are measured in.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// OnlyWhitespaceBetween reports whether the source between two byte offsets
// is blank. The emitters use it for the trailing-comma rule in module
// header parentheses.
func (m *LineMap) OnlyWhitespaceBetween(start, end int) bool {
	if start > end {
		return true
	}
	return strings.TrimSpace(m.src[start:end]) == ""
}
