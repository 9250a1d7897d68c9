// Package ports defines the interfaces between the application core
// and external adapters, following the ports-and-adapters pattern: the
// agent loop depends on these abstractions, never on concrete
// infrastructure.
package ports

import (
	"context"
	"time"

	"github.com/doeshing/cmdagent/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent
// storage, typically ~/.cmdagent/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// CompletionProvider is the model-completion capability: given the
// running message list and the tool schema, return either a final
// answer or a tool-call request.
type CompletionProvider interface {
	Name() string
	Complete(ctx context.Context, messages []domain.Message, tool domain.ToolSchema) (domain.Completion, error)
}

// ProviderFactory builds completion providers from model definitions.
type ProviderFactory interface {
	ForModel(domain.ModelDefinition) (CompletionProvider, error)
}

// Validator decides whether a candidate command is permitted by
// policy. Pure and deterministic for a given (command, policy) pair.
type Validator interface {
	IsAllowed(command string, policy *domain.Policy) bool
	// Explain returns a human-readable denial reason for a command
	// that IsAllowed rejected.
	Explain(command string, policy *domain.Policy) string
}

// Renderer expands template directives in a command string against a
// variable context.
type Renderer interface {
	Render(template string, vars domain.VariableContext) (string, error)
}

// SpawnSpec describes one subprocess request handed to a CommandRunner.
type SpawnSpec struct {
	Command string
	WorkDir string
	Timeout time.Duration
}

// RawResult is the unclassified output of a spawn attempt. TimedOut
// marks a deadline kill; Canceled marks a parent-context cancellation
// that terminated the process before it finished on its own.
type RawResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Canceled bool
	SpawnErr error
	Duration time.Duration
}

// CommandRunner is the narrow OS process-spawn primitive. Keeping it
// this small lets the executor be tested with a fake returning canned
// results.
type CommandRunner interface {
	Run(ctx context.Context, spec SpawnSpec) RawResult
}

// Executor runs an already-validated, already-rendered command and
// classifies the result. It performs no validation of its own.
type Executor interface {
	Execute(ctx context.Context, command string, policy *domain.Policy) domain.ExecutionResult
}

// ContextBuilder gathers environment context by running the
// configured context commands. It returns the assembled context block
// plus the execution trace of each attempt.
type ContextBuilder interface {
	BuildContext(ctx context.Context, defs []domain.ContextCommand, vars domain.VariableContext, policy *domain.Policy) (string, []domain.ExecutionResult, error)
}

// Confirmer asks for approval before a command runs when the policy
// requires confirmation.
type Confirmer interface {
	Confirm(command string, reason string) (bool, error)
	Enabled() bool
}

// TraceRepository persists execution traces for later audit.
type TraceRepository interface {
	Save(sessionID string, results []domain.ExecutionResult) error
	Records(limit int, search string) ([]domain.TraceRecord, error)
	Close() error
}

// Logger is the structured logging abstraction used across layers.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}
