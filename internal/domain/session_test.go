package domain

import (
	"strings"
	"testing"
)

func TestSystemMessageComposition(t *testing.T) {
	if got := SystemMessage("", ""); got != "" {
		t.Errorf("empty inputs: %q", got)
	}
	if got := SystemMessage("prompt", ""); got != "prompt" {
		t.Errorf("prompt only: %q", got)
	}
	got := SystemMessage("prompt", "block")
	if !strings.Contains(got, "prompt") || !strings.Contains(got, "block") {
		t.Errorf("combined message missing parts: %q", got)
	}
}

func TestCompletionIsToolCall(t *testing.T) {
	answer := Completion{Text: "done"}
	if answer.IsToolCall() {
		t.Error("text completion reported as tool call")
	}
	call := Completion{ToolCall: &ToolCall{CallID: "c1", Command: "ls"}}
	if !call.IsToolCall() {
		t.Error("tool-call completion not detected")
	}
}
