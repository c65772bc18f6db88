package template

import (
	"testing"

	"github.com/kirkster96/verible/internal/sv"
)

func TestParseBlockSingleRule(t *testing.T) {
	rules := ParseBlock(`/* bar AUTO_TEMPLATE "some_regex" (
         .i1(in_a[]),
         .o2(out_b)
     ); */`)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	r := rules[0]
	if r.ModuleName != "bar" || r.Pattern != "some_regex" {
		t.Fatalf("unexpected rule header: %q %q", r.ModuleName, r.Pattern)
	}
	if r.Connections["i1"] != "in_a[]" {
		t.Errorf("expected i1 -> in_a[], got %q", r.Connections["i1"])
	}
	if r.Connections["o2"] != "out_b" {
		t.Errorf("expected o2 -> out_b, got %q", r.Connections["o2"])
	}
}

func TestParseBlockSharedConnectionList(t *testing.T) {
	rules := ParseBlock(`/* qux AUTO_TEMPLATE
     quux AUTO_TEMPLATE
     bar AUTO_TEMPLATE "re" (
         .i1(in_a)); */`)
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	for _, r := range rules {
		if r.Connections["i1"] != "in_a" {
			t.Errorf("rule %s missing shared connection", r.ModuleName)
		}
	}
	if rules[0].ModuleName != "qux" || rules[1].ModuleName != "quux" || rules[2].ModuleName != "bar" {
		t.Errorf("rule order lost: %v %v %v", rules[0].ModuleName, rules[1].ModuleName, rules[2].ModuleName)
	}
}

func TestParseBlockHeaderWithoutListYieldsNothing(t *testing.T) {
	rules := ParseBlock(`/* bar AUTO_TEMPLATE */`)
	if len(rules) != 0 {
		t.Fatalf("expected no rules, got %d", len(rules))
	}
}

func TestParseBlockMalformedIsSkipped(t *testing.T) {
	rules := ParseBlock(`/* bar AUTO_TEMPLATE (
         .i1(in_a */`)
	if len(rules) != 0 {
		t.Fatalf("expected no rules from an unterminated list, got %d", len(rules))
	}
}

func TestParseBlockExpressionTemplates(t *testing.T) {
	rules := ParseBlock(`/* bar AUTO_TEMPLATE (
         .data({hi, lo}),
         .sel(sel[1:0])); */`)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Connections["data"] != "{hi, lo}" {
		t.Errorf("expected verbatim expression, got %q", rules[0].Connections["data"])
	}
	if rules[0].Connections["sel"] != "sel[1:0]" {
		t.Errorf("expected verbatim slice, got %q", rules[0].Connections["sel"])
	}
}

func blocks(texts ...string) []sv.TemplateBlock {
	var out []sv.TemplateBlock
	for _, text := range texts {
		out = append(out, sv.TemplateBlock{Text: text})
	}
	return out
}

func TestRuleForLastMatchWins(t *testing.T) {
	bs := blocks(
		`/* bar AUTO_TEMPLATE (
             .i1(first[])); */`,
		`/* bar AUTO_TEMPLATE (
             .i1(second[])); */`,
	)
	r := RuleFor(bs, "bar")
	if r == nil {
		t.Fatal("expected a rule for bar")
	}
	if r.Connections["i1"] != "second[]" {
		t.Errorf("expected the later block to win, got %q", r.Connections["i1"])
	}
	if RuleFor(bs, "qux") != nil {
		t.Errorf("expected no rule for qux")
	}
}

func TestRuleEntryOnNilRule(t *testing.T) {
	var r *Rule
	if _, ok := r.Entry("x"); ok {
		t.Errorf("nil rule must have no entries")
	}
}

func TestIsSimpleIdent(t *testing.T) {
	for _, good := range []string{"a", "in_a", "_x", "$unit", "sig9"} {
		if !IsSimpleIdent(good) {
			t.Errorf("expected %q to be an identifier", good)
		}
	}
	for _, bad := range []string{"", "9a", "{a,b}", "a[1]", "a b", "~a"} {
		if IsSimpleIdent(bad) {
			t.Errorf("expected %q not to be an identifier", bad)
		}
	}
}
