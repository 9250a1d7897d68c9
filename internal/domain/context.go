package domain

// ContextCommand declares one context-gathering command executed once
// at session start. The template may reference variables from the
// session's VariableContext.
type ContextCommand struct {
	Name    string `yaml:"name"`
	Command string `yaml:"command"`
}

// ContextBlock is the labeled output of one context command, assembled
// into the session's system message in declaration order.
type ContextBlock struct {
	Name   string
	Output string
	Err    string
}
