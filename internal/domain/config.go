package domain

// Config mirrors ~/.cmdagent/config.yaml.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	Preferences         Preferences       `yaml:"preferences"`
	Models              []ModelDefinition `yaml:"models"`
	Commands            CommandSettings   `yaml:"commands"`
	Context             ContextSettings   `yaml:"context"`
	Execution           ExecutionSettings `yaml:"execution"`
	Variables           []VariableDef     `yaml:"variables,omitempty"`
	SystemPrompt        string            `yaml:"system_prompt,omitempty"`
}

// Preferences captures user-level toggles.
type Preferences struct {
	DefaultModel string `yaml:"default_model"`
	Verbose      bool   `yaml:"verbose"`
}

// CommandSettings is the policy surface of the config file. Command
// execution is opt-in: with Enabled false the engine never runs
// anything, regardless of other settings.
type CommandSettings struct {
	Enabled             bool          `yaml:"enabled"`
	Deny                []string      `yaml:"deny,omitempty"`
	Allow               []string      `yaml:"allow,omitempty"`
	Catalog             []CommandSpec `yaml:"catalog,omitempty"`
	RequireConfirmation bool          `yaml:"require_confirmation"`
	TimeoutSeconds      int           `yaml:"timeout"`
	MaxCommands         int           `yaml:"max_commands"`
}

// ContextSettings configures the one-shot context injection batch.
type ContextSettings struct {
	Commands    []ContextCommand `yaml:"commands,omitempty"`
	MaxParallel int              `yaml:"max_parallel"`
	RequireAny  bool             `yaml:"require_any"`
}

// ExecutionSettings controls how subprocesses are spawned. Shell
// "none" splits the command into argv words and execs it directly;
// anything else is used as `<shell> -c`.
type ExecutionSettings struct {
	Shell   string `yaml:"shell"`
	WorkDir string `yaml:"work_dir,omitempty"`
}

// BuildPolicy assembles the session policy from config, applying
// defaults for unset bounds.
func (c *Config) BuildPolicy() *Policy {
	p := &Policy{
		Deny:                c.Commands.Deny,
		Allow:               c.Commands.Allow,
		Catalog:             c.Commands.Catalog,
		RequireConfirmation: c.Commands.RequireConfirmation,
		TimeoutSeconds:      c.Commands.TimeoutSeconds,
		MaxCommands:         c.Commands.MaxCommands,
		WorkDir:             c.Execution.WorkDir,
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = 30
	}
	if p.MaxCommands <= 0 {
		p.MaxCommands = 10
	}
	return p
}

// GetDefaultModel retrieves the default model definition.
func (c *Config) GetDefaultModel() (ModelDefinition, error) {
	name := c.Preferences.DefaultModel
	if name == "" && len(c.Models) > 0 {
		return c.Models[0], nil
	}
	if model, ok := c.FindModelByName(name); ok {
		return model, nil
	}
	return ModelDefinition{}, &ConfigurationError{
		Field: "preferences.default_model",
		Msg:   "model " + name + " not found in models list",
		Hint:  "add it under models: or change preferences.default_model",
	}
}

// FindModelByName searches the configured models by name.
func (c *Config) FindModelByName(name string) (ModelDefinition, bool) {
	for _, model := range c.Models {
		if model.Name == name {
			return model, true
		}
	}
	return ModelDefinition{}, false
}

// CommandsEnabled reports whether the execution engine is switched on.
func (c *Config) CommandsEnabled() bool {
	return c.Commands.Enabled
}
