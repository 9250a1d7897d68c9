package template

import (
	"fmt"
	"strings"

	"github.com/doeshing/cmdagent/internal/domain"
)

// token kinds produced by the lexer.
type tokenKind int

const (
	tokText tokenKind = iota
	tokVar            // {{ ... }}
	tokTag            // {% ... %}
)

type token struct {
	kind tokenKind
	pos  int
	body string
}

func lex(tpl string) ([]token, error) {
	var toks []token
	for i := 0; i < len(tpl); {
		next := -1
		var kind tokenKind
		var close string
		for j := i; j < len(tpl)-1; j++ {
			if tpl[j] == '{' && tpl[j+1] == '{' {
				next, kind, close = j, tokVar, "}}"
				break
			}
			if tpl[j] == '{' && tpl[j+1] == '%' {
				next, kind, close = j, tokTag, "%}"
				break
			}
		}
		if next < 0 {
			toks = append(toks, token{kind: tokText, pos: i, body: tpl[i:]})
			break
		}
		if next > i {
			toks = append(toks, token{kind: tokText, pos: i, body: tpl[i:next]})
		}
		end := strings.Index(tpl[next+2:], close)
		if end < 0 {
			return nil, &domain.SyntaxError{Pos: next, Msg: fmt.Sprintf("unclosed %q directive", tpl[next:next+2])}
		}
		body := strings.TrimSpace(tpl[next+2 : next+2+end])
		toks = append(toks, token{kind: kind, pos: next, body: body})
		i = next + 2 + end + len(close)
	}
	return toks, nil
}

// parse turns the token stream into an AST, handling nested if blocks
// with recursive descent.
func parse(tpl string) ([]node, error) {
	toks, err := lex(tpl)
	if err != nil {
		return nil, err
	}
	nodes, rest, err := parseNodes(toks, false)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, &domain.SyntaxError{Pos: rest[0].pos, Msg: fmt.Sprintf("unexpected {%% %s %%}", rest[0].body)}
	}
	return nodes, nil
}

// parseNodes consumes tokens until the stream ends or, inside an if
// block, until an else/endif tag is reached (which is left for the
// caller).
func parseNodes(toks []token, inIf bool) ([]node, []token, error) {
	var nodes []node
	for len(toks) > 0 {
		tok := toks[0]
		switch tok.kind {
		case tokText:
			nodes = append(nodes, &textNode{text: tok.body})
			toks = toks[1:]
		case tokVar:
			vn, err := parseVar(tok)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, vn)
			toks = toks[1:]
		case tokTag:
			fields := strings.Fields(tok.body)
			if len(fields) == 0 {
				return nil, nil, &domain.SyntaxError{Pos: tok.pos, Msg: "empty tag"}
			}
			switch fields[0] {
			case "if":
				ifn, rest, err := parseIf(tok, toks[1:])
				if err != nil {
					return nil, nil, err
				}
				nodes = append(nodes, ifn)
				toks = rest
			case "else", "endif":
				if !inIf {
					return nil, nil, &domain.SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("%q outside if block", fields[0])}
				}
				return nodes, toks, nil
			default:
				return nil, nil, &domain.SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unknown tag %q", fields[0])}
			}
		}
	}
	if inIf {
		return nil, nil, &domain.SyntaxError{Pos: 0, Msg: "missing {% endif %}"}
	}
	return nodes, toks, nil
}

func parseIf(open token, toks []token) (*ifNode, []token, error) {
	fields := strings.Fields(open.body)
	name, negate := "", false
	switch {
	case len(fields) == 2:
		name = fields[1]
	case len(fields) == 3 && fields[1] == "not":
		name, negate = fields[2], true
	default:
		return nil, nil, &domain.SyntaxError{Pos: open.pos, Msg: "if takes a single variable name"}
	}
	if err := checkIdentifier(name, open.pos); err != nil {
		return nil, nil, err
	}

	then, rest, err := parseNodes(toks, true)
	if err != nil {
		return nil, nil, err
	}
	if len(rest) == 0 {
		return nil, nil, &domain.SyntaxError{Pos: open.pos, Msg: "missing {% endif %}"}
	}

	ifn := &ifNode{pos: open.pos, name: name, negate: negate, then: then}

	closing := strings.Fields(rest[0].body)[0]
	if closing == "else" {
		els, rest2, err := parseNodes(rest[1:], true)
		if err != nil {
			return nil, nil, err
		}
		if len(rest2) == 0 || strings.Fields(rest2[0].body)[0] != "endif" {
			return nil, nil, &domain.SyntaxError{Pos: rest[0].pos, Msg: "missing {% endif %}"}
		}
		ifn.els = els
		return ifn, rest2[1:], nil
	}
	// closing == "endif"
	return ifn, rest[1:], nil
}

func parseVar(tok token) (*varNode, error) {
	parts := strings.Split(tok.body, "|")
	name := strings.TrimSpace(parts[0])
	if err := checkIdentifier(name, tok.pos); err != nil {
		return nil, err
	}
	vn := &varNode{pos: tok.pos, name: name}
	for _, raw := range parts[1:] {
		fc, err := parseFilter(strings.TrimSpace(raw), tok.pos)
		if err != nil {
			return nil, err
		}
		vn.filters = append(vn.filters, fc)
	}
	return vn, nil
}

// checkIdentifier rejects anything but a bare variable name. Dotted
// paths and index expressions are refused outright so attribute
// traversal is impossible by construction.
func checkIdentifier(name string, pos int) error {
	if name == "" {
		return &domain.SyntaxError{Pos: pos, Msg: "empty variable reference"}
	}
	if !domain.ValidVariableName(name) {
		return &domain.SyntaxError{Pos: pos, Msg: fmt.Sprintf("invalid variable reference %q: only bare variable names are allowed", name)}
	}
	return nil
}
