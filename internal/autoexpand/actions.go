package autoexpand

import (
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kirkster96/verible/internal/sv"
)

// Action titles are part of the engine's contract with editor clients.
const (
	TitleExpandFile  = "Expand all AUTOs in file"
	TitleExpandRange = "Expand all AUTOs in selected range"
)

var log = commonlog.GetLogger("autoexpand")

// CodeActions groups the buffer's planned edits into the named actions the
// LSP adapter offers: one per directive kind intersecting the requested
// range, then the range action, then the whole-file action.
func (e *Engine) CodeActions(buf *sv.File, uri protocol.DocumentUri, r protocol.Range) []protocol.CodeAction {
	all := e.Plan(buf)
	if len(all) == 0 {
		return nil
	}

	var inRange []Edit
	for _, ed := range all {
		if intersectsLines(buf, ed, r) {
			inRange = append(inRange, ed)
		}
	}

	var actions []protocol.CodeAction
	seenKind := make(map[sv.DirectiveKind]bool)
	for _, ed := range inRange {
		if seenKind[ed.Kind] {
			continue
		}
		seenKind[ed.Kind] = true
		var kindEdits []Edit
		for _, other := range inRange {
			if other.Kind == ed.Kind {
				kindEdits = append(kindEdits, other)
			}
		}
		actions = append(actions, newAction("Expand "+ed.Kind.String(), uri, toTextEdits(buf, kindEdits)))
	}
	if len(inRange) > 0 {
		actions = append(actions, newAction(TitleExpandRange, uri, toTextEdits(buf, inRange)))
	}
	actions = append(actions, newAction(TitleExpandFile, uri, toTextEdits(buf, all)))

	log.Debug("code actions generated",
		"uri", uri, "directives", len(all), "inRange", len(inRange))
	return actions
}

func newAction(title string, uri protocol.DocumentUri, edits []protocol.TextEdit) protocol.CodeAction {
	kind := protocol.CodeActionKindRefactorRewrite
	return protocol.CodeAction{
		Title: title,
		Kind:  &kind,
		Edit: &protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{uri: edits},
		},
	}
}
