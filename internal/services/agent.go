package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/doeshing/cmdagent/internal/domain"
	"github.com/doeshing/cmdagent/internal/ports"
)

// AgentService owns the sequential tool-calling loop: call the model,
// validate the requested command, execute it, feed the result back,
// and repeat until the model answers or the command budget runs out.
// Exactly one command is in flight at any time.
type AgentService struct {
	ConfigProvider  ports.ConfigProvider
	ContextBuilder  ports.ContextBuilder
	ProviderFactory ports.ProviderFactory
	Validator       ports.Validator
	Executor        ports.Executor
	Confirmer       ports.Confirmer
	Traces          ports.TraceRepository
	Logger          ports.Logger
}

// SessionOptions carries per-invocation overrides, typically sourced
// from CLI flags. Zero values defer to the loaded configuration.
type SessionOptions struct {
	ModelOverride  string
	EnableExec     bool
	ExtraAllow     []string
	ExtraDeny      []string
	ForceConfirm   bool
	TimeoutSeconds int
	MaxCommands    int
	Variables      map[string]string
	Environ        map[string]string
}

// loopState enumerates the agent state machine. Transitions are
// strictly sequential; there is never more than one pending tool call.
type loopState int

const (
	stateAwaitingModel loopState = iota
	stateValidatingTool
	stateExecuting
	stateTerminated
)

// Session is one agent conversation. Context commands run exactly once
// at session start; subsequent Ask calls reuse the captured context.
// A Session is not safe for concurrent use.
type Session struct {
	svc      *AgentService
	policy   *domain.Policy
	provider ports.CompletionProvider
	tool     domain.ToolSchema
	state    *domain.AgentSession
}

// StartSession loads configuration, resolves variables, runs the
// context-injection batch once, and prepares the conversation. Command
// execution must be switched on in config or via options; a disabled
// engine is a configuration error, not a silent no-op.
func (s *AgentService) StartSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	if s.ConfigProvider == nil || s.ContextBuilder == nil || s.ProviderFactory == nil ||
		s.Validator == nil || s.Executor == nil || s.Logger == nil {
		return nil, errors.New("services.AgentService dependencies not satisfied")
	}

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if !cfg.CommandsEnabled() && !opts.EnableExec {
		return nil, &domain.ConfigurationError{
			Field: "commands.enabled",
			Msg:   "command execution is disabled",
			Hint:  "set commands.enabled: true or pass --exec",
		}
	}

	policy := cfg.BuildPolicy()
	applyPolicyOverrides(policy, opts)

	model, err := pickModel(cfg, opts.ModelOverride)
	if err != nil {
		return nil, err
	}
	provider, err := s.ProviderFactory.ForModel(model)
	if err != nil {
		return nil, fmt.Errorf("provider init: %w", err)
	}

	vars, err := domain.NewVariableContext(cfg.Variables, opts.Environ, opts.Variables)
	if err != nil {
		return nil, err
	}

	contextBlock, contextTrace, err := s.ContextBuilder.BuildContext(ctx, cfg.Context.Commands, vars, policy)
	if err != nil {
		return nil, fmt.Errorf("build context: %w", err)
	}

	session := &domain.AgentSession{ID: uuid.NewString()}
	if sys := domain.SystemMessage(cfg.SystemPrompt, contextBlock); sys != "" {
		session.Append(domain.Message{Role: domain.RoleSystem, Content: sys})
	}
	for _, res := range contextTrace {
		session.Record(res)
	}

	s.Logger.Debug("session started",
		"session", session.ID,
		"model", model.Name,
		"context_commands", len(cfg.Context.Commands))

	return &Session{
		svc:      s,
		policy:   policy,
		provider: provider,
		tool:     domain.BuildToolSchema(policy),
		state:    session,
	}, nil
}

// ID returns the session identifier.
func (sess *Session) ID() string {
	return sess.state.ID
}

// Trace returns the accumulated execution trace, context commands
// included, in attempt order.
func (sess *Session) Trace() []domain.ExecutionResult {
	out := make([]domain.ExecutionResult, len(sess.state.Trace))
	copy(out, sess.state.Trace)
	return out
}

// Ask submits one user turn and drives the loop until the model
// produces a final answer, the command budget is exhausted, or an
// unrecoverable error occurs. The returned result always carries the
// full trace, even on error.
func (sess *Session) Ask(ctx context.Context, prompt string) (domain.AgentResult, error) {
	sess.state.Append(domain.Message{Role: domain.RoleUser, Content: prompt})

	traceStart := len(sess.state.Trace)
	result, err := sess.run(ctx)
	sess.persistTrace(sess.state.Trace[traceStart:])

	result.Trace = sess.Trace()
	result.Iterations = sess.state.IterationCount
	return result, err
}

func (sess *Session) run(ctx context.Context) (domain.AgentResult, error) {
	var (
		result  domain.AgentResult
		pending *domain.ToolCall
		state   = stateAwaitingModel
	)

	for state != stateTerminated {
		switch state {
		case stateAwaitingModel:
			completion, err := sess.provider.Complete(ctx, sess.state.Messages, sess.tool)
			if err != nil {
				if ctx.Err() != nil {
					result.Stopped = domain.StopCancelled
					return result, ctx.Err()
				}
				result.Stopped = domain.StopProviderError
				return result, fmt.Errorf("model completion: %w", err)
			}
			if !completion.IsToolCall() {
				sess.state.Append(domain.Message{Role: domain.RoleAssistant, Content: completion.Text})
				result.Answer = completion.Text
				result.Stopped = domain.StopAnswered
				state = stateTerminated
				continue
			}
			pending = completion.ToolCall
			state = stateValidatingTool

		case stateValidatingTool:
			if sess.state.IterationCount >= sess.policy.MaxCommands {
				sess.svc.Logger.Warn("command budget exhausted",
					"session", sess.state.ID,
					"max_commands", sess.policy.MaxCommands)
				result.Stopped = domain.StopIterationBound
				return result, domain.ErrIterationBound
			}
			sess.state.IterationCount++
			sess.state.Append(domain.Message{Role: domain.RoleAssistant, ToolCall: pending})

			if !sess.svc.Validator.IsAllowed(pending.Command, sess.policy) {
				explanation := sess.svc.Validator.Explain(pending.Command, sess.policy)
				sess.deny(pending, explanation)
				pending = nil
				state = stateAwaitingModel
				continue
			}
			state = stateExecuting

		case stateExecuting:
			if sess.policy.RequireConfirmation {
				approved, err := sess.confirm(pending)
				if err != nil {
					result.Stopped = domain.StopCancelled
					return result, fmt.Errorf("confirmation: %w", err)
				}
				if !approved {
					sess.deny(pending, "declined by user")
					pending = nil
					state = stateAwaitingModel
					continue
				}
			}

			res := sess.svc.Executor.Execute(ctx, pending.Command, sess.policy)
			res.Reason = pending.Reason
			sess.state.Record(res)
			if res.Outcome == domain.OutcomeCancelled {
				result.Stopped = domain.StopCancelled
				return result, ctx.Err()
			}
			sess.state.Append(domain.Message{
				Role:       domain.RoleTool,
				ToolCallID: pending.CallID,
				Content:    toolResultContent(res),
			})
			sess.svc.Logger.Info("command executed",
				"session", sess.state.ID,
				"command", pending.Command,
				"outcome", string(res.Outcome),
				"duration_ms", res.DurationMS)
			pending = nil
			state = stateAwaitingModel
		}
	}

	return result, nil
}

// deny records a refused tool call and feeds the refusal back to the
// model so it can try a different command or answer without one.
func (sess *Session) deny(call *domain.ToolCall, reason string) {
	sess.state.Record(domain.ExecutionResult{
		Command:  call.Command,
		Reason:   call.Reason,
		Outcome:  domain.OutcomeDenied,
		ExitCode: -1,
		Stderr:   reason,
	})
	sess.state.Append(domain.Message{
		Role:       domain.RoleTool,
		ToolCallID: call.CallID,
		Content:    "Command was not executed: " + reason,
	})
	sess.svc.Logger.Warn("command denied",
		"session", sess.state.ID,
		"command", call.Command,
		"reason", reason)
}

func (sess *Session) confirm(call *domain.ToolCall) (bool, error) {
	if sess.svc.Confirmer == nil || !sess.svc.Confirmer.Enabled() {
		return false, nil
	}
	return sess.svc.Confirmer.Confirm(call.Command, call.Reason)
}

func (sess *Session) persistTrace(results []domain.ExecutionResult) {
	if sess.svc.Traces == nil || len(results) == 0 {
		return
	}
	if err := sess.svc.Traces.Save(sess.state.ID, results); err != nil {
		sess.svc.Logger.Warn("trace persistence failed", "error", err)
	}
}

// toolResultContent frames an execution result for the model. The
// outcome is always stated explicitly so the model never has to guess
// whether empty output means success.
func toolResultContent(res domain.ExecutionResult) string {
	switch res.Outcome {
	case domain.OutcomeTimedOut:
		return fmt.Sprintf("Command timed out after %dms and was killed.", res.DurationMS)
	case domain.OutcomeSpawnFailed:
		return "Command could not be started: " + res.Stderr
	case domain.OutcomeNonZeroExit:
		return fmt.Sprintf("Command exited with code %d.\n%s", res.ExitCode, res.CombinedOutput())
	default:
		out := res.CombinedOutput()
		if out == "" {
			return "Command succeeded with no output."
		}
		return out
	}
}

func applyPolicyOverrides(policy *domain.Policy, opts SessionOptions) {
	policy.Allow = append(policy.Allow, opts.ExtraAllow...)
	policy.Deny = append(policy.Deny, opts.ExtraDeny...)
	if opts.ForceConfirm {
		policy.RequireConfirmation = true
	}
	if opts.TimeoutSeconds > 0 {
		policy.TimeoutSeconds = opts.TimeoutSeconds
	}
	if opts.MaxCommands > 0 {
		policy.MaxCommands = opts.MaxCommands
	}
}

func pickModel(cfg domain.Config, override string) (domain.ModelDefinition, error) {
	if override == "" {
		return cfg.GetDefaultModel()
	}
	if model, ok := cfg.FindModelByName(override); ok {
		return model, nil
	}
	return domain.ModelDefinition{}, &domain.ConfigurationError{
		Field: "models",
		Msg:   fmt.Sprintf("model %q not configured", override),
		Hint:  "add it under models: in the config file",
	}
}
