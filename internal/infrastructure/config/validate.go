package config

import (
	"fmt"

	"github.com/doeshing/cmdagent/internal/domain"
)

// Validate ensures the loaded configuration is internally consistent.
// Structural problems are caught here, before any session starts.
func Validate(cfg domain.Config) error {
	if len(cfg.Models) == 0 {
		return &domain.ConfigurationError{
			Field: "models",
			Msg:   "at least one model must be configured",
			Hint:  "add an entry under models: with endpoint and model_id",
		}
	}
	if name := cfg.Preferences.DefaultModel; name != "" {
		if _, ok := cfg.FindModelByName(name); !ok {
			return &domain.ConfigurationError{
				Field: "preferences.default_model",
				Msg:   fmt.Sprintf("model %q not found in models list", name),
			}
		}
	}
	for i, model := range cfg.Models {
		if model.Name == "" || model.Endpoint == "" || model.ModelID == "" {
			return &domain.ConfigurationError{
				Field: fmt.Sprintf("models[%d]", i),
				Msg:   "name, endpoint, and model_id are required",
			}
		}
		switch model.APIFormat.WireFormat {
		case "", domain.WireFormatOpenAI, domain.WireFormatAnthropic:
		default:
			return &domain.ConfigurationError{
				Field: fmt.Sprintf("models[%d].api_format.wire_format", i),
				Msg:   fmt.Sprintf("unknown wire format %q", model.APIFormat.WireFormat),
				Hint:  `use "openai" or "anthropic"`,
			}
		}
	}

	if cfg.Commands.TimeoutSeconds < 0 {
		return &domain.ConfigurationError{
			Field: "commands.timeout",
			Msg:   "timeout must not be negative",
		}
	}
	if cfg.Commands.MaxCommands < 0 {
		return &domain.ConfigurationError{
			Field: "commands.max_commands",
			Msg:   "max_commands must not be negative",
		}
	}
	for i, spec := range cfg.Commands.Catalog {
		if spec.Pattern == "" {
			return &domain.ConfigurationError{
				Field: fmt.Sprintf("commands.catalog[%d]", i),
				Msg:   "pattern is required",
			}
		}
	}

	seen := map[string]bool{}
	for i, def := range cfg.Context.Commands {
		if def.Name == "" || def.Command == "" {
			return &domain.ConfigurationError{
				Field: fmt.Sprintf("context.commands[%d]", i),
				Msg:   "name and command are required",
			}
		}
		if seen[def.Name] {
			return &domain.ConfigurationError{
				Field: fmt.Sprintf("context.commands[%d]", i),
				Msg:   fmt.Sprintf("duplicate context command name %q", def.Name),
			}
		}
		seen[def.Name] = true
	}
	if cfg.Context.MaxParallel < 0 {
		return &domain.ConfigurationError{
			Field: "context.max_parallel",
			Msg:   "max_parallel must not be negative",
		}
	}

	for _, def := range cfg.Variables {
		if !domain.ValidVariableName(def.Name) {
			return &domain.ConfigurationError{
				Field: "variables." + def.Name,
				Msg:   fmt.Sprintf("invalid variable name %q", def.Name),
				Hint:  "variable names must match [A-Za-z_][A-Za-z0-9_]*",
			}
		}
	}

	return nil
}
