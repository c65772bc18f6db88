package autoexpand

import (
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kirkster96/verible/internal/project"
	"github.com/kirkster96/verible/internal/sv"
)

const actionsSource = `
module foo (  /*AUTOARG*/);
  /*AUTOINPUT*/
  /*AUTOOUTPUT*/

  /* qux AUTO_TEMPLATE
     bar AUTO_TEMPLATE ".*" (
         .o1(out_a[]),
         .o2(out_b[])
     ); */
  bar b (  /*AUTOINST*/);
endmodule

module bar (  /*AUTOARG*/);
  input clk;
  input rst;
  output [63:0] o1;
  output o2[16];

  /*AUTOREG*/
endmodule
`

const actionsRangeGolden = `
module foo (  /*AUTOARG*/
    // Inputs
    clk,
    rst,
    // Outputs
    out_a,
    out_b
);
  /*AUTOINPUT*/
  // Beginning of automatic inputs (from autoinst inputs)
  input clk;  // To b of bar
  input rst;  // To b of bar
  // End of automatics
  /*AUTOOUTPUT*/
  // Beginning of automatic outputs (from autoinst outputs)
  output [63:0] out_a;  // From b of bar
  output out_b[16];  // From b of bar
  // End of automatics

  /* qux AUTO_TEMPLATE
     bar AUTO_TEMPLATE ".*" (
         .o1(out_a[]),
         .o2(out_b[])
     ); */
  bar b (  /*AUTOINST*/
      // Inputs
      .clk(clk),
      .rst(rst),
      // Outputs
      .o1(out_a[63:0]),
      .o2(out_b  /*.[16]*/)
  );
endmodule

module bar (  /*AUTOARG*/);
  input clk;
  input rst;
  output [63:0] o1;
  output o2[16];

  /*AUTOREG*/
endmodule
`

func actionsProject(src string) (*project.Project, *sv.File) {
	proj := project.New()
	buf := sv.ParseFile("<<tested-file>>", src)
	proj.SetBuffer(buf)
	return proj, buf
}

func findAction(actions []protocol.CodeAction, title string) *protocol.CodeAction {
	for i := range actions {
		if actions[i].Title == title {
			return &actions[i]
		}
	}
	return nil
}

// The range action expands only the directives whose lines intersect the
// selection, leaving the second module untouched. It runs a single pass:
// line numbers shift after application, so it is not re-composed.
func TestCodeActionExpandSelectedRange(t *testing.T) {
	proj, buf := actionsProject(actionsSource)
	uri := protocol.DocumentUri("file:///test.sv")
	r := protocol.Range{
		Start: protocol.Position{Line: 0},
		End:   protocol.Position{Line: 11},
	}
	actions := New(proj).CodeActions(buf, uri, r)
	action := findAction(actions, TitleExpandRange)
	if action == nil {
		t.Fatalf("missing action %q", TitleExpandRange)
	}
	got := ApplyEdits(buf, action.Edit.Changes[uri])
	if got != actionsRangeGolden {
		t.Errorf("range expansion mismatch:\n%s", unifiedDiff(actionsRangeGolden, got))
	}
}

func TestCodeActionExpandFileMatchesExpandFile(t *testing.T) {
	proj, buf := actionsProject(actionsSource)
	uri := protocol.DocumentUri("file:///test.sv")
	r := protocol.Range{Start: protocol.Position{Line: 0}, End: protocol.Position{Line: 1}}
	actions := New(proj).CodeActions(buf, uri, r)
	action := findAction(actions, TitleExpandFile)
	if action == nil {
		t.Fatalf("missing action %q", TitleExpandFile)
	}
	fromAction := ApplyEdits(buf, action.Edit.Changes[uri])
	fromExpand := ApplyEdits(buf, New(proj).ExpandFile(buf))
	if fromAction != fromExpand {
		t.Errorf("whole-file action differs from direct expansion:\n%s",
			unifiedDiff(fromExpand, fromAction))
	}
}

func TestCodeActionPerDirectiveTitles(t *testing.T) {
	proj, buf := actionsProject(actionsSource)
	uri := protocol.DocumentUri("file:///test.sv")
	// the selection covers only the first module
	r := protocol.Range{Start: protocol.Position{Line: 0}, End: protocol.Position{Line: 11}}
	actions := New(proj).CodeActions(buf, uri, r)

	for _, title := range []string{
		"Expand AUTOARG",
		"Expand AUTOINPUT",
		"Expand AUTOOUTPUT",
		"Expand AUTOINST",
		TitleExpandRange,
		TitleExpandFile,
	} {
		if findAction(actions, title) == nil {
			t.Errorf("missing action %q", title)
		}
	}
	// AUTOREG sits in the second module, outside the selection
	if findAction(actions, "Expand AUTOREG") != nil {
		t.Errorf("unexpected action for directive outside the selection")
	}

	action := findAction(actions, "Expand AUTOINST")
	if action == nil {
		t.Fatal("missing AUTOINST action")
	}
	if n := len(action.Edit.Changes[uri]); n != 1 {
		t.Errorf("expected exactly one AUTOINST edit in range, got %d", n)
	}
	if action.Kind == nil || *action.Kind != protocol.CodeActionKindRefactorRewrite {
		t.Errorf("expected refactor.rewrite kind")
	}
}

func TestCodeActionsEmptyWhenNoDirectives(t *testing.T) {
	proj, buf := actionsProject(`
module plain (
    input  clk,
    output o
);
endmodule
`)
	actions := New(proj).CodeActions(buf, "file:///plain.sv", protocol.Range{})
	if len(actions) != 0 {
		t.Errorf("expected no actions, got %d", len(actions))
	}
}
