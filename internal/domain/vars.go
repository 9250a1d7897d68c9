package domain

import (
	"fmt"
	"regexp"
	"sort"
)

// VariableDef declares a template variable in configuration. A
// definition without a default is required: resolving it to absent at
// context-build time is a configuration error, not a render error.
type VariableDef struct {
	Name    string  `yaml:"name"`
	Default *string `yaml:"default,omitempty"`
}

// Required reports whether the variable has no configured default.
func (d VariableDef) Required() bool {
	return d.Default == nil
}

var variableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidVariableName reports whether name is a legal template variable
// identifier.
func ValidVariableName(name string) bool {
	return variableNameRe.MatchString(name)
}

// VariableContext is an ordered name → value binding set used by the
// template renderer. It is immutable after construction and safe to
// share across goroutines.
type VariableContext struct {
	names  []string
	values map[string]string
}

// NewVariableContext merges the three variable layers in precedence
// order (lowest to highest): configured defaults, environment,
// CLI-supplied overrides. Every declared variable must resolve; a
// required variable left unbound is a ConfigurationError.
func NewVariableContext(defs []VariableDef, env map[string]string, cli map[string]string) (VariableContext, error) {
	vc := VariableContext{values: make(map[string]string)}

	for _, def := range defs {
		if !ValidVariableName(def.Name) {
			return VariableContext{}, &ConfigurationError{
				Field: "variables." + def.Name,
				Msg:   fmt.Sprintf("invalid variable name %q", def.Name),
				Hint:  "variable names must match [A-Za-z_][A-Za-z0-9_]*",
			}
		}
		value, bound := resolveVariable(def, env, cli)
		if !bound {
			return VariableContext{}, &ConfigurationError{
				Field: "variables." + def.Name,
				Msg:   fmt.Sprintf("required variable %q is not set", def.Name),
				Hint:  fmt.Sprintf("define %s via --var, the environment, or a config default", def.Name),
			}
		}
		vc.set(def.Name, value)
	}

	// CLI variables without a declaration are still usable; they just
	// have no default layer underneath them.
	for _, name := range sortedKeys(cli) {
		if _, ok := vc.values[name]; ok {
			continue
		}
		if !ValidVariableName(name) {
			return VariableContext{}, &ConfigurationError{
				Field: "variables." + name,
				Msg:   fmt.Sprintf("invalid variable name %q", name),
				Hint:  "variable names must match [A-Za-z_][A-Za-z0-9_]*",
			}
		}
		vc.set(name, cli[name])
	}

	return vc, nil
}

func resolveVariable(def VariableDef, env map[string]string, cli map[string]string) (string, bool) {
	if v, ok := cli[def.Name]; ok {
		return v, true
	}
	if v, ok := env[def.Name]; ok {
		return v, true
	}
	if def.Default != nil {
		return *def.Default, true
	}
	return "", false
}

func (vc *VariableContext) set(name, value string) {
	if _, ok := vc.values[name]; !ok {
		vc.names = append(vc.names, name)
	}
	vc.values[name] = value
}

// Lookup returns the bound value for name.
func (vc VariableContext) Lookup(name string) (string, bool) {
	v, ok := vc.values[name]
	return v, ok
}

// Names returns the variable names in declaration order.
func (vc VariableContext) Names() []string {
	out := make([]string, len(vc.names))
	copy(out, vc.names)
	return out
}

// Len returns the number of bound variables.
func (vc VariableContext) Len() int {
	return len(vc.names)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
