package domain

import (
	"fmt"
	"strings"
)

// RunCommandTool is the name of the single tool advertised to the
// model.
const RunCommandTool = "run_command"

// BuildToolSchema derives the tool description from the policy. A
// configured catalog is embedded verbatim so the model sees exactly
// which documented commands are available; without a catalog the
// description falls back to the safe-default command categories.
func BuildToolSchema(policy *Policy) ToolSchema {
	schema := ToolSchema{
		Name:    RunCommandTool,
		Catalog: policy.Catalog,
	}

	if policy.HasCatalog() {
		var b strings.Builder
		b.WriteString("Run one shell command to gather information. Available commands:\n")
		for _, spec := range policy.Catalog {
			if spec.Description != "" {
				fmt.Fprintf(&b, "- %s: %s\n", spec.Pattern, spec.Description)
			} else {
				fmt.Fprintf(&b, "- %s\n", spec.Pattern)
			}
		}
		b.WriteString("Arguments may be appended to any listed command.")
		schema.Description = b.String()
		return schema
	}

	schema.Description = "Run one read-only shell command to gather information. " +
		"Permitted categories: git inspection (status/log/diff/show), file listing and reading " +
		"(ls/cat/head/tail/grep/find), test runners, and basic system info (pwd/whoami/df/ps)."
	return schema
}
