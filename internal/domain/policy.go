package domain

// CommandSpec is one entry in the structured command catalog: a base
// command pattern the model is allowed to run, with an optional
// description embedded into the tool schema.
type CommandSpec struct {
	Pattern     string `yaml:"pattern"`
	Description string `yaml:"description,omitempty"`
}

// Policy governs which commands may run and under which bounds.
// It is read-only for the whole session and safe to share across
// goroutines.
type Policy struct {
	Deny                []string      `yaml:"deny,omitempty"`
	Allow               []string      `yaml:"allow,omitempty"`
	Catalog             []CommandSpec `yaml:"catalog,omitempty"`
	RequireConfirmation bool          `yaml:"require_confirmation"`
	TimeoutSeconds      int           `yaml:"timeout"`
	MaxCommands         int           `yaml:"max_commands"`
	WorkDir             string        `yaml:"work_dir,omitempty"`
}

// HasCatalog reports whether a structured catalog is configured.
func (p *Policy) HasCatalog() bool {
	return len(p.Catalog) > 0
}

// HasAllowList reports whether an explicit allow-list is configured.
func (p *Policy) HasAllowList() bool {
	return len(p.Allow) > 0
}
