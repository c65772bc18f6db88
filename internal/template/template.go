// Package template parses AUTO_TEMPLATE comment blocks and resolves which
// rewrite rule applies to an instance. A block looks like
//
//	/* alu AUTO_TEMPLATE
//	   mul AUTO_TEMPLATE "regex" (
//	       .clk(core_clk),
//	       .data(data_bus[])); */
//
// Consecutive headers share the connection list that follows them. The
// regex after the module name is accepted for compatibility and ignored:
// every rule applies to every instance of its named module.
package template

import (
	"strings"

	"github.com/kirkster96/verible/internal/sv"
)

// Rule is one (module name, connection rewrites) pair from a template
// block.
type Rule struct {
	ModuleName string
	Pattern    string // accepted, unused
	// Connections maps a port name to its expression template. A
	// template ending in "[]" keeps the port's dimensions; anything else
	// is used verbatim.
	Connections map[string]string
}

// ParseBlock extracts the rules of one AUTO_TEMPLATE comment, in source
// order. A malformed block yields no rules; headers whose connection list
// never appears contribute nothing.
func ParseBlock(text string) []Rule {
	inner := strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
	toks := sv.NewLexer(inner).Scan()

	var rules []Rule
	var pending []Rule
	i := 0
	for i < len(toks) && toks[i].Type != sv.EOF {
		t := toks[i]
		if t.Type == sv.ID && i+1 < len(toks) &&
			toks[i+1].Type == sv.ID && toks[i+1].Text == "AUTO_TEMPLATE" {
			rule := Rule{ModuleName: t.Text}
			i += 2
			if i < len(toks) && toks[i].Type == sv.STRING {
				rule.Pattern = strings.Trim(toks[i].Text, `"`)
				i++
			}
			pending = append(pending, rule)
			if i < len(toks) && toks[i].Type == sv.LPAREN {
				conns, next, ok := parseConnections(inner, toks, i)
				if !ok {
					return nil
				}
				i = next
				for _, r := range pending {
					r.Connections = conns
					rules = append(rules, r)
				}
				pending = nil
			}
			continue
		}
		i++
	}
	return rules
}

// parseConnections reads a parenthesized `.port(expr)` list starting at
// the opening parenthesis token, returning the port-to-template map and
// the index past the closing parenthesis.
func parseConnections(src string, toks []sv.Token, open int) (map[string]string, int, bool) {
	conns := make(map[string]string)
	i := open + 1
	for {
		if i >= len(toks) || toks[i].Type == sv.EOF {
			return nil, i, false
		}
		switch toks[i].Type {
		case sv.RPAREN:
			return conns, i + 1, true
		case sv.COMMA, sv.SEMI:
			i++
		case sv.DOT:
			if i+2 >= len(toks) || toks[i+1].Type != sv.ID || toks[i+2].Type != sv.LPAREN {
				return nil, i, false
			}
			port := toks[i+1].Text
			depth := 0
			j := i + 2
			for {
				if j >= len(toks) || toks[j].Type == sv.EOF {
					return nil, j, false
				}
				if toks[j].Type == sv.LPAREN {
					depth++
				} else if toks[j].Type == sv.RPAREN {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			conns[port] = strings.TrimSpace(src[toks[i+2].End:toks[j].Start])
			i = j + 1
		default:
			i++
		}
	}
}

// RuleFor picks the rule governing instances of the named module: the last
// matching rule across all template blocks of the enclosing module, or nil
// when none matches.
func RuleFor(blocks []sv.TemplateBlock, moduleName string) *Rule {
	var found *Rule
	for _, b := range blocks {
		for _, r := range ParseBlock(b.Text) {
			if r.ModuleName == moduleName {
				rule := r
				found = &rule
			}
		}
	}
	return found
}

// Entry returns the template expression for a port, if the rule has one.
func (r *Rule) Entry(port string) (string, bool) {
	if r == nil {
		return "", false
	}
	e, ok := r.Connections[port]
	return e, ok
}

// IsSimpleIdent reports whether a template expression is a plain
// identifier, which is what port propagation needs to rename a port.
func IsSimpleIdent(expr string) bool {
	if expr == "" {
		return false
	}
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		ok := c == '_' || c == '$' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(i > 0 && c >= '0' && c <= '9')
		if !ok {
			return false
		}
	}
	return true
}
