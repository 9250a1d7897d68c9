package domain

import (
	"errors"
	"fmt"
)

// ErrIterationBound terminates a session that ran out of command
// budget before the model produced an answer. It is deliberately
// distinct from a normal answer so callers can tell "ran out of
// budget" from "the model finished".
var ErrIterationBound = errors.New("iteration bound exceeded")

// ConfigurationError reports an invalid policy or variable
// configuration. Always fatal, surfaced before any command runs.
type ConfigurationError struct {
	Field string
	Msg   string
	Hint  string
}

func (e *ConfigurationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("config %s: %s (%s)", e.Field, e.Msg, e.Hint)
	}
	return fmt.Sprintf("config %s: %s", e.Field, e.Msg)
}

// ValidationDenied reports a command rejected by policy. Recoverable:
// the agent loop feeds it back to the model as a tool result.
type ValidationDenied struct {
	Command string
	Msg     string
}

func (e *ValidationDenied) Error() string {
	return fmt.Sprintf("command %q denied: %s", e.Command, e.Msg)
}

// SyntaxError reports a malformed template directive.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template syntax error at offset %d: %s", e.Pos, e.Msg)
}

// UndefinedVariableError reports a template reference to a variable
// absent from the context. Rendering fails fast rather than
// substituting an empty string.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined template variable %q (define it via --var, the environment, or a config default)", e.Name)
}
