package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kirkster96/verible/internal/sv"
)

func TestLookupFirstDeclarationWins(t *testing.T) {
	p := New()
	p.SetBuffer(sv.ParseFile("buf.sv", `
module dup (input a);
endmodule
`))
	p.AddFile(sv.ParseFile("peer1.sv", `
module dup (input b);
endmodule
module only_here;
endmodule
`))
	p.AddFile(sv.ParseFile("peer2.sv", `
module dup (input c);
endmodule
`))

	m := p.Lookup("dup")
	if m == nil {
		t.Fatal("expected dup to resolve")
	}
	if len(m.Ports) != 1 || m.Ports[0].Name != "a" {
		t.Errorf("expected the buffer's declaration to win, got port %v", m.Ports)
	}
	if p.Lookup("only_here") == nil {
		t.Errorf("expected peer modules to resolve")
	}
	if p.Lookup("missing") != nil {
		t.Errorf("expected missing module to resolve to nil")
	}
}

func TestLookupDuplicateWithinFile(t *testing.T) {
	p := New()
	p.SetBuffer(sv.ParseFile("buf.sv", `
module dup (input first);
endmodule

module dup (input second);
endmodule
`))
	m := p.Lookup("dup")
	if m == nil || len(m.Ports) != 1 || m.Ports[0].Name != "first" {
		t.Fatalf("expected the first in-file declaration to win")
	}
}

func TestFilesOrderAndModules(t *testing.T) {
	p := New()
	p.AddFile(sv.ParseFile("a.sv", "module a; endmodule\n"))
	p.AddFile(sv.ParseFile("b.sv", "module b; endmodule\n"))
	p.SetBuffer(sv.ParseFile("buf.sv", "module top; endmodule\n"))

	files := p.Files()
	if len(files) != 3 || files[0].Path != "buf.sv" || files[1].Path != "a.sv" || files[2].Path != "b.sv" {
		t.Fatalf("unexpected file order: %v", paths(files))
	}
	mods := p.Modules()
	if len(mods) != 3 || mods[0].Name != "top" {
		t.Fatalf("unexpected module order")
	}
	if got := p.ModulesInFile("a.sv"); len(got) != 1 || got[0].Name != "a" {
		t.Fatalf("expected module a in a.sv")
	}
}

func paths(files []*sv.File) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestInstantiationsOf(t *testing.T) {
	p := New()
	p.SetBuffer(sv.ParseFile("buf.sv", `
module top;
  leaf u0 ();
  leaf u1 ();
  other u2 ();
endmodule
`))
	insts := p.InstantiationsOf("leaf")
	if len(insts) != 2 || insts[0].InstanceName != "u0" || insts[1].InstanceName != "u1" {
		t.Fatalf("expected u0 and u1, got %d instances", len(insts))
	}
}

func TestLoadFilesParsesInOrder(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.sv")
	pathB := filepath.Join(dir, "b.sv")
	if err := os.WriteFile(pathA, []byte("module a; endmodule\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pathB, []byte("module b; endmodule\n"), 0644); err != nil {
		t.Fatal(err)
	}

	p := New()
	if err := p.LoadFiles([]string{pathA, pathB}, 2); err != nil {
		t.Fatal(err)
	}
	files := p.Files()
	if len(files) != 2 || files[0].Path != pathA || files[1].Path != pathB {
		t.Fatalf("expected registration in path order, got %v", paths(files))
	}
}

func TestLoadFilesMissingFile(t *testing.T) {
	p := New()
	if err := p.LoadFiles([]string{filepath.Join(t.TempDir(), "nope.sv")}, 0); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
