package autoexpand

import (
	"sort"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kirkster96/verible/internal/sv"
)

// ApplyEdits applies a non-overlapping edit set to the buffer's text.
// Edits are applied back to front so earlier ranges stay valid; the edits
// may arrive in any order.
func ApplyEdits(buf *sv.File, edits []protocol.TextEdit) string {
	sorted := make([]protocol.TextEdit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Range.Start, sorted[j].Range.Start
		if a.Line != b.Line {
			return a.Line > b.Line
		}
		return a.Character > b.Character
	})

	text := buf.Text
	for _, e := range sorted {
		start := buf.Lines.Offset(e.Range.Start)
		end := buf.Lines.Offset(e.Range.End)
		text = text[:start] + e.NewText + text[end:]
	}
	return text
}
