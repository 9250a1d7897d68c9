// Package template implements the sandboxed command-template
// renderer. It supports `{{ name }}` substitution with an allowlisted
// filter chain (`{{ name | shellquote }}`) and `{% if name %} ... {%
// else %} ... {% endif %}` conditionals.
//
// The renderer is an interpreter over a minimal AST of text,
// substitution, and conditional nodes. There is no attribute access,
// no function calls beyond the filter allowlist, and no file or
// network reach — the sandbox is structural, not policy-enforced.
// Rendered output is never re-scanned for directives, so values
// containing `{{` cannot smuggle in second-order expansion.
package template

import (
	"strings"

	"github.com/doeshing/cmdagent/internal/domain"
	"github.com/doeshing/cmdagent/internal/ports"
)

// Renderer expands template directives against a VariableContext.
type Renderer struct{}

// New creates a Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render parses and evaluates the template in a single left-to-right
// pass. A `{{ name }}` referencing an unbound variable is a hard
// *domain.UndefinedVariableError; malformed directives are
// *domain.SyntaxError.
func (r *Renderer) Render(tpl string, vars domain.VariableContext) (string, error) {
	nodes, err := parse(tpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := eval(nodes, vars, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

type node interface{}

type textNode struct {
	text string
}

type varNode struct {
	pos     int
	name    string
	filters []filterCall
}

type ifNode struct {
	pos    int
	name   string
	negate bool
	then   []node
	els    []node
}

type filterCall struct {
	name string
	arg  string // literal argument for default:"..."
}

var _ ports.Renderer = (*Renderer)(nil)

func eval(nodes []node, vars domain.VariableContext, b *strings.Builder) error {
	for _, n := range nodes {
		switch n := n.(type) {
		case *textNode:
			b.WriteString(n.text)
		case *varNode:
			value, ok := vars.Lookup(n.name)
			if !ok && !hasDefaultFilter(n.filters) {
				return &domain.UndefinedVariableError{Name: n.name}
			}
			b.WriteString(applyFilters(value, ok, n.filters))
		case *ifNode:
			branch := n.then
			if truthy(vars, n.name) == n.negate {
				branch = n.els
			}
			if err := eval(branch, vars, b); err != nil {
				return err
			}
		}
	}
	return nil
}

// truthy follows the usual template convention: an unbound, empty,
// "false", or "0" variable is false.
func truthy(vars domain.VariableContext, name string) bool {
	v, ok := vars.Lookup(name)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "false", "0", "no":
		return false
	}
	return true
}
