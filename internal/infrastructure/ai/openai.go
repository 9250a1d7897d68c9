package ai

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/doeshing/cmdagent/internal/domain"
)

// openaiCodec speaks the chat-completions format with function
// calling. It is the default for any model without an explicit
// wire_format, which covers OpenAI-compatible endpoints generally.
var openaiCodec = wireCodec{
	buildRequest:  buildOpenAIRequest,
	parseResponse: parseOpenAICompletion,
}

func buildOpenAIRequest(model domain.ModelDefinition, messages []domain.Message, tool domain.ToolSchema) ([]byte, error) {
	request := map[string]any{
		"model": model.ModelID,
		"tools": []any{openaiToolDefinition(tool)},
	}
	if model.MaxTokens > 0 {
		request["max_tokens"] = model.MaxTokens
	}

	if model.APIFormat.IsSystemMessageSeparate() {
		system, chat := splitSystemMessages(messages)
		if system != "" {
			request["system"] = system
		}
		request["messages"] = chat
	} else {
		request["messages"] = wireMessages(messages)
	}

	return json.Marshal(request)
}

// openaiToolDefinition emits the function-calling JSON for the
// run_command tool.
func openaiToolDefinition(tool domain.ToolSchema) map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"parameters":  commandParameterSchema(),
		},
	}
}

// commandParameterSchema is the JSON schema for the run_command
// arguments, shared by both wire formats.
func commandParameterSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to execute.",
			},
			"reason": map[string]any{
				"type":        "string",
				"description": "One sentence explaining why this command is needed.",
			},
		},
		"required": []string{"command"},
	}
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

type toolArguments struct {
	Command string `json:"command"`
	Reason  string `json:"reason"`
}

func parseOpenAICompletion(raw []byte) (domain.Completion, error) {
	var resp wireResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.Completion{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Completion{}, fmt.Errorf("response has no choices")
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		return domain.Completion{Text: msg.Content}, nil
	}

	call := msg.ToolCalls[0]
	var args toolArguments
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return domain.Completion{}, fmt.Errorf("unmarshal tool arguments: %w", err)
	}
	if args.Command == "" {
		return domain.Completion{}, fmt.Errorf("tool call missing command argument")
	}

	callID := call.ID
	if callID == "" {
		callID = uuid.NewString()
	}

	return domain.Completion{
		ToolCall: &domain.ToolCall{
			CallID:  callID,
			Command: args.Command,
			Reason:  args.Reason,
		},
	}, nil
}

func splitSystemMessages(messages []domain.Message) (string, []map[string]any) {
	var system string
	var chat []map[string]any
	for _, msg := range messages {
		if msg.Role == domain.RoleSystem {
			if system != "" {
				system += "\n"
			}
			system += msg.Content
			continue
		}
		chat = append(chat, wireMessage(msg))
	}
	return system, chat
}

func wireMessages(messages []domain.Message) []map[string]any {
	out := make([]map[string]any, 0, len(messages))
	for _, msg := range messages {
		out = append(out, wireMessage(msg))
	}
	return out
}

func wireMessage(msg domain.Message) map[string]any {
	m := map[string]any{
		"role":    msg.Role,
		"content": msg.Content,
	}
	if msg.ToolCallID != "" {
		m["tool_call_id"] = msg.ToolCallID
	}
	if msg.ToolCall != nil {
		args, _ := json.Marshal(toolArguments{
			Command: msg.ToolCall.Command,
			Reason:  msg.ToolCall.Reason,
		})
		m["tool_calls"] = []any{map[string]any{
			"id":   msg.ToolCall.CallID,
			"type": "function",
			"function": map[string]any{
				"name":      domain.RunCommandTool,
				"arguments": string(args),
			},
		}}
	}
	return m
}
