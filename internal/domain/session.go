package domain

// Role names follow the chat-completion convention.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn in the running conversation passed to the
// completion provider.
type Message struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	ToolCall   *ToolCall `json:"tool_call,omitempty"`
}

// ToolCall is the model's request to execute a shell command.
type ToolCall struct {
	CallID  string `json:"call_id"`
	Command string `json:"command"`
	Reason  string `json:"reason,omitempty"`
}

// Completion is the provider's answer to one model call: either a
// final text answer or a tool call, never both.
type Completion struct {
	Text     string
	ToolCall *ToolCall
}

// IsToolCall reports whether the completion requests command execution.
func (c Completion) IsToolCall() bool {
	return c.ToolCall != nil
}

// ToolSchema describes the single run_command tool advertised to the
// model. Catalog entries, when present, are embedded verbatim so the
// model knows which base commands are documented as available.
type ToolSchema struct {
	Name        string
	Description string
	Catalog     []CommandSpec
}

// AgentSession holds the mutable state of one agent invocation. It is
// owned exclusively by the agent loop and must not be touched from
// other goroutines.
type AgentSession struct {
	ID             string
	Messages       []Message
	Trace          []ExecutionResult
	IterationCount int
}

// Append adds a message to the running conversation.
func (s *AgentSession) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
}

// Record appends an execution result to the session trace.
func (s *AgentSession) Record(res ExecutionResult) {
	s.Trace = append(s.Trace, res)
}

// SystemMessage combines the static system prompt with the assembled
// context block into the single system-role message persisted once per
// session.
func SystemMessage(staticPrompt, contextBlock string) string {
	switch {
	case staticPrompt == "" && contextBlock == "":
		return ""
	case contextBlock == "":
		return staticPrompt
	case staticPrompt == "":
		return "Environment context:\n" + contextBlock
	default:
		return staticPrompt + "\n\nEnvironment context:\n" + contextBlock
	}
}

// StopReason explains why an agent session terminated.
type StopReason string

const (
	StopAnswered       StopReason = "answered"
	StopIterationBound StopReason = "iteration_bound"
	StopProviderError  StopReason = "provider_error"
	StopCancelled      StopReason = "cancelled"
)

// AgentResult is returned to the caller at loop termination: the final
// answer (when there is one) plus the complete ordered audit trace.
type AgentResult struct {
	Answer     string
	Trace      []ExecutionResult
	Iterations int
	Stopped    StopReason
}
