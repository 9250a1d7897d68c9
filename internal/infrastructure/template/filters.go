package template

import (
	"fmt"
	"strings"

	"github.com/doeshing/cmdagent/internal/domain"
)

// parseFilter parses one element of a filter chain: a bare name, or
// default:"literal".
func parseFilter(raw string, pos int) (filterCall, error) {
	name, arg, hasArg := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	switch name {
	case "upper", "lower", "trim", "shellquote":
		if hasArg {
			return filterCall{}, &domain.SyntaxError{Pos: pos, Msg: fmt.Sprintf("filter %q takes no argument", name)}
		}
		return filterCall{name: name}, nil
	case "default":
		if !hasArg {
			return filterCall{}, &domain.SyntaxError{Pos: pos, Msg: `default requires a quoted argument: default:"value"`}
		}
		arg = strings.TrimSpace(arg)
		if len(arg) < 2 || arg[0] != '"' || arg[len(arg)-1] != '"' {
			return filterCall{}, &domain.SyntaxError{Pos: pos, Msg: `default argument must be double-quoted`}
		}
		return filterCall{name: name, arg: arg[1 : len(arg)-1]}, nil
	default:
		return filterCall{}, &domain.SyntaxError{Pos: pos, Msg: fmt.Sprintf("unknown filter %q", name)}
	}
}

func hasDefaultFilter(filters []filterCall) bool {
	for _, f := range filters {
		if f.name == "default" {
			return true
		}
	}
	return false
}

// applyFilters runs the chain left to right. bound reports whether the
// variable was present in the context; only the default filter may
// supply a value for an unbound variable.
func applyFilters(value string, bound bool, filters []filterCall) string {
	for _, f := range filters {
		switch f.name {
		case "upper":
			value = strings.ToUpper(value)
		case "lower":
			value = strings.ToLower(value)
		case "trim":
			value = strings.TrimSpace(value)
		case "shellquote":
			value = shellQuote(value)
		case "default":
			if !bound || value == "" {
				value = f.arg
			}
			bound = true
		}
	}
	return value
}

// shellQuote wraps value in single quotes, closing and reopening
// around embedded single quotes, so untrusted values are safe to
// splice into a shell command line.
func shellQuote(value string) string {
	if value == "" {
		return "''"
	}
	if !strings.ContainsAny(value, " \t\n\"'\\$`!*?[]{}()<>|&;~#") {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}
