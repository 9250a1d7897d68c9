package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/doeshing/cmdagent/internal/domain"
)

// The messages API rejects requests without max_tokens.
const defaultAnthropicMaxTokens = 1024

// anthropicCodec speaks the /v1/messages format: a top-level system
// field, content-block messages, and tool_use/tool_result blocks in
// place of function calls.
var anthropicCodec = wireCodec{
	buildRequest:  buildAnthropicRequest,
	parseResponse: parseAnthropicCompletion,
}

func buildAnthropicRequest(model domain.ModelDefinition, messages []domain.Message, tool domain.ToolSchema) ([]byte, error) {
	maxTokens := model.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	request := map[string]any{
		"model":      model.ModelID,
		"max_tokens": maxTokens,
		"tools": []any{map[string]any{
			"name":         tool.Name,
			"description":  tool.Description,
			"input_schema": commandParameterSchema(),
		}},
	}

	system, chat := anthropicMessages(messages)
	if system != "" {
		request["system"] = system
	}
	request["messages"] = chat

	return json.Marshal(request)
}

// anthropicMessages converts the session transcript. System turns
// always move to the top-level system field regardless of
// SystemMessageMode; tool results become user turns carrying a
// tool_result block.
func anthropicMessages(messages []domain.Message) (string, []map[string]any) {
	var system string
	var chat []map[string]any
	for _, msg := range messages {
		switch {
		case msg.Role == domain.RoleSystem:
			if system != "" {
				system += "\n"
			}
			system += msg.Content
		case msg.Role == domain.RoleTool:
			chat = append(chat, map[string]any{
				"role": domain.RoleUser,
				"content": []any{map[string]any{
					"type":        "tool_result",
					"tool_use_id": msg.ToolCallID,
					"content":     msg.Content,
				}},
			})
		case msg.ToolCall != nil:
			blocks := []any{}
			if msg.Content != "" {
				blocks = append(blocks, map[string]any{"type": "text", "text": msg.Content})
			}
			blocks = append(blocks, map[string]any{
				"type": "tool_use",
				"id":   msg.ToolCall.CallID,
				"name": domain.RunCommandTool,
				"input": toolArguments{
					Command: msg.ToolCall.Command,
					Reason:  msg.ToolCall.Reason,
				},
			})
			chat = append(chat, map[string]any{"role": msg.Role, "content": blocks})
		default:
			chat = append(chat, map[string]any{"role": msg.Role, "content": msg.Content})
		}
	}
	return system, chat
}

type anthropicResponse struct {
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
}

func parseAnthropicCompletion(raw []byte) (domain.Completion, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.Completion{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Content) == 0 {
		return domain.Completion{}, fmt.Errorf("response has no content blocks")
	}

	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "tool_use":
			var args toolArguments
			if err := json.Unmarshal(block.Input, &args); err != nil {
				return domain.Completion{}, fmt.Errorf("unmarshal tool input: %w", err)
			}
			if args.Command == "" {
				return domain.Completion{}, fmt.Errorf("tool call missing command argument")
			}
			callID := block.ID
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
		case "text":
			if text.Len() > 0 {
				text.WriteString("\n")
			}
			text.WriteString(block.Text)
		}
	}
	return domain.Completion{Text: text.String()}, nil
}
