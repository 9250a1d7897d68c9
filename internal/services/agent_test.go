package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/doeshing/cmdagent/internal/domain"
	"github.com/doeshing/cmdagent/internal/pkg/logger"
	"github.com/doeshing/cmdagent/internal/ports"
)

type fakeConfigProvider struct {
	cfg domain.Config
}

func (f *fakeConfigProvider) Load(context.Context) (domain.Config, error) {
	return f.cfg, nil
}

type fakeContextBuilder struct {
	calls int
	block string
	trace []domain.ExecutionResult
}

func (f *fakeContextBuilder) BuildContext(context.Context, []domain.ContextCommand, domain.VariableContext, *domain.Policy) (string, []domain.ExecutionResult, error) {
	f.calls++
	return f.block, f.trace, nil
}

// scriptedProvider replays a fixed sequence of completions and records
// the message list it saw on each call.
type scriptedProvider struct {
	script []domain.Completion
	err    error
	calls  int
	seen   [][]domain.Message
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(_ context.Context, messages []domain.Message, _ domain.ToolSchema) (domain.Completion, error) {
	snapshot := make([]domain.Message, len(messages))
	copy(snapshot, messages)
	p.seen = append(p.seen, snapshot)
	p.calls++
	if p.err != nil {
		return domain.Completion{}, p.err
	}
	if len(p.script) == 0 {
		return domain.Completion{Text: "out of script"}, nil
	}
	next := p.script[0]
	p.script = p.script[1:]
	return next, nil
}

type fakeFactory struct {
	provider ports.CompletionProvider
}

func (f *fakeFactory) ForModel(domain.ModelDefinition) (ports.CompletionProvider, error) {
	return f.provider, nil
}

type fakeValidator struct {
	denied map[string]bool
}

func (f *fakeValidator) IsAllowed(command string, _ *domain.Policy) bool {
	return !f.denied[command]
}

func (f *fakeValidator) Explain(command string, _ *domain.Policy) string {
	return "blocked: " + command
}

type recordingExecutor struct {
	commands []string
	outcome  domain.Outcome
}

func (e *recordingExecutor) Execute(_ context.Context, command string, _ *domain.Policy) domain.ExecutionResult {
	e.commands = append(e.commands, command)
	outcome := e.outcome
	if outcome == "" {
		outcome = domain.OutcomeSuccess
	}
	return domain.ExecutionResult{
		Command: command,
		Outcome: outcome,
		Stdout:  "output of " + command,
	}
}

type fakeConfirmer struct {
	approve bool
	asked   []string
}

func (f *fakeConfirmer) Confirm(command, _ string) (bool, error) {
	f.asked = append(f.asked, command)
	return f.approve, nil
}

func (f *fakeConfirmer) Enabled() bool { return true }

type recordingTraces struct {
	saves map[string][]domain.ExecutionResult
}

func (r *recordingTraces) Save(sessionID string, results []domain.ExecutionResult) error {
	if r.saves == nil {
		r.saves = make(map[string][]domain.ExecutionResult)
	}
	r.saves[sessionID] = append(r.saves[sessionID], results...)
	return nil
}

func (r *recordingTraces) Records(int, string) ([]domain.TraceRecord, error) { return nil, nil }
func (r *recordingTraces) Close() error                                      { return nil }

func toolCall(id, command string) domain.Completion {
	return domain.Completion{ToolCall: &domain.ToolCall{CallID: id, Command: command, Reason: "test"}}
}

func answer(text string) domain.Completion {
	return domain.Completion{Text: text}
}

func baseConfig() domain.Config {
	return domain.Config{
		Models: []domain.ModelDefinition{{Name: "default", Endpoint: "http://example", ModelID: "m"}},
		Commands: domain.CommandSettings{
			Enabled:     true,
			MaxCommands: 10,
		},
	}
}

func newAgent(provider ports.CompletionProvider, cfg domain.Config) (*AgentService, *recordingExecutor, *fakeContextBuilder) {
	exec := &recordingExecutor{}
	builder := &fakeContextBuilder{}
	svc := &AgentService{
		ConfigProvider:  &fakeConfigProvider{cfg: cfg},
		ContextBuilder:  builder,
		ProviderFactory: &fakeFactory{provider: provider},
		Validator:       &fakeValidator{},
		Executor:        exec,
		Logger:          logger.Discard(),
	}
	return svc, exec, builder
}

func TestAnswerWithoutCommands(t *testing.T) {
	provider := &scriptedProvider{script: []domain.Completion{answer("plain answer")}}
	svc, exec, _ := newAgent(provider, baseConfig())

	sess, err := svc.StartSession(context.Background(), SessionOptions{})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	res, err := sess.Ask(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if res.Answer != "plain answer" || res.Stopped != domain.StopAnswered {
		t.Errorf("result = %+v", res)
	}
	if len(exec.commands) != 0 {
		t.Errorf("executed %v, want none", exec.commands)
	}
}

func TestIterationBound(t *testing.T) {
	// The provider never answers; the budget has to stop the loop.
	provider := &scriptedProvider{script: []domain.Completion{
		toolCall("c1", "ls"),
		toolCall("c2", "pwd"),
		toolCall("c3", "whoami"),
		toolCall("c4", "date"),
	}}
	cfg := baseConfig()
	cfg.Commands.MaxCommands = 2
	svc, exec, _ := newAgent(provider, cfg)

	sess, err := svc.StartSession(context.Background(), SessionOptions{})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	res, err := sess.Ask(context.Background(), "loop forever")
	if !errors.Is(err, domain.ErrIterationBound) {
		t.Fatalf("err = %v, want ErrIterationBound", err)
	}
	if res.Stopped != domain.StopIterationBound {
		t.Errorf("Stopped = %q", res.Stopped)
	}
	if len(exec.commands) != 2 {
		t.Errorf("executed %d commands, want exactly 2: %v", len(exec.commands), exec.commands)
	}
	if res.Iterations != 2 {
		t.Errorf("Iterations = %d, want 2", res.Iterations)
	}
}

func TestSequentialExecutionFeedsResultsBack(t *testing.T) {
	provider := &scriptedProvider{script: []domain.Completion{
		toolCall("c1", "ls"),
		toolCall("c2", "pwd"),
		answer("done"),
	}}
	svc, exec, _ := newAgent(provider, baseConfig())

	sess, err := svc.StartSession(context.Background(), SessionOptions{})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	res, err := sess.Ask(context.Background(), "inspect")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if res.Answer != "done" {
		t.Errorf("Answer = %q", res.Answer)
	}
	if got := exec.commands; len(got) != 2 || got[0] != "ls" || got[1] != "pwd" {
		t.Errorf("commands = %v, want [ls pwd]", got)
	}

	// Every model call after an execution must already see that
	// command's tool result; nothing runs ahead of the conversation.
	for i, msgs := range provider.seen {
		toolResults := 0
		for _, m := range msgs {
			if m.Role == domain.RoleTool {
				toolResults++
			}
		}
		if toolResults != i {
			t.Errorf("model call %d saw %d tool results, want %d", i+1, toolResults, i)
		}
	}

	last := provider.seen[len(provider.seen)-1]
	if !strings.Contains(last[len(last)-1].Content, "output of pwd") {
		t.Errorf("final model call missing last tool result: %q", last[len(last)-1].Content)
	}
}

func TestDenialContinuesLoop(t *testing.T) {
	provider := &scriptedProvider{script: []domain.Completion{
		toolCall("c1", "rm -rf /"),
		toolCall("c2", "ls"),
		answer("recovered"),
	}}
	svc, exec, _ := newAgent(provider, baseConfig())
	svc.Validator = &fakeValidator{denied: map[string]bool{"rm -rf /": true}}

	sess, err := svc.StartSession(context.Background(), SessionOptions{})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	res, err := sess.Ask(context.Background(), "clean up")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if res.Answer != "recovered" {
		t.Errorf("Answer = %q", res.Answer)
	}
	if len(exec.commands) != 1 || exec.commands[0] != "ls" {
		t.Errorf("executed %v, want only ls", exec.commands)
	}

	var outcomes []domain.Outcome
	for _, r := range res.Trace {
		outcomes = append(outcomes, r.Outcome)
	}
	if len(outcomes) != 2 || outcomes[0] != domain.OutcomeDenied || outcomes[1] != domain.OutcomeSuccess {
		t.Errorf("trace outcomes = %v, want [denied success]", outcomes)
	}

	// The denial reaches the model as a tool result on the second call.
	second := provider.seen[1]
	lastMsg := second[len(second)-1]
	if lastMsg.Role != domain.RoleTool || !strings.Contains(lastMsg.Content, "not executed") {
		t.Errorf("denial not fed back: %+v", lastMsg)
	}
}

func TestContextBuiltOncePerSession(t *testing.T) {
	provider := &scriptedProvider{script: []domain.Completion{
		answer("first"),
		answer("second"),
	}}
	cfg := baseConfig()
	cfg.Context.Commands = []domain.ContextCommand{{Name: "git", Command: "git status"}}
	svc, _, builder := newAgent(provider, cfg)
	builder.block = "--- git ---\nclean"

	sess, err := svc.StartSession(context.Background(), SessionOptions{})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := sess.Ask(context.Background(), "one"); err != nil {
		t.Fatalf("first Ask: %v", err)
	}
	if _, err := sess.Ask(context.Background(), "two"); err != nil {
		t.Fatalf("second Ask: %v", err)
	}

	if builder.calls != 1 {
		t.Errorf("context built %d times, want once", builder.calls)
	}

	systemCount := 0
	for _, msgs := range provider.seen {
		count := 0
		for _, m := range msgs {
			if m.Role == domain.RoleSystem {
				count++
			}
		}
		systemCount = count
	}
	if systemCount != 1 {
		t.Errorf("final message list has %d system messages, want 1", systemCount)
	}
}

func TestProviderErrorTerminates(t *testing.T) {
	provider := &scriptedProvider{err: fmt.Errorf("upstream unavailable")}
	svc, _, _ := newAgent(provider, baseConfig())

	sess, err := svc.StartSession(context.Background(), SessionOptions{})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	res, err := sess.Ask(context.Background(), "hello")
	if err == nil {
		t.Fatal("want error from provider failure")
	}
	if res.Stopped != domain.StopProviderError {
		t.Errorf("Stopped = %q, want %q", res.Stopped, domain.StopProviderError)
	}
}

func TestConfirmationDeclinedBecomesDenial(t *testing.T) {
	provider := &scriptedProvider{script: []domain.Completion{
		toolCall("c1", "ls"),
		answer("fine without it"),
	}}
	cfg := baseConfig()
	cfg.Commands.RequireConfirmation = true
	svc, exec, _ := newAgent(provider, cfg)
	confirmer := &fakeConfirmer{approve: false}
	svc.Confirmer = confirmer

	sess, err := svc.StartSession(context.Background(), SessionOptions{})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	res, err := sess.Ask(context.Background(), "list files")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(exec.commands) != 0 {
		t.Errorf("executed %v despite declined confirmation", exec.commands)
	}
	if len(confirmer.asked) != 1 || confirmer.asked[0] != "ls" {
		t.Errorf("confirmer asked = %v", confirmer.asked)
	}
	if len(res.Trace) != 1 || res.Trace[0].Outcome != domain.OutcomeDenied {
		t.Errorf("trace = %+v, want one denied entry", res.Trace)
	}
}

func TestConfirmationApprovedExecutes(t *testing.T) {
	provider := &scriptedProvider{script: []domain.Completion{
		toolCall("c1", "ls"),
		answer("listed"),
	}}
	cfg := baseConfig()
	cfg.Commands.RequireConfirmation = true
	svc, exec, _ := newAgent(provider, cfg)
	svc.Confirmer = &fakeConfirmer{approve: true}

	sess, err := svc.StartSession(context.Background(), SessionOptions{})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := sess.Ask(context.Background(), "list files"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(exec.commands) != 1 {
		t.Errorf("executed %v, want exactly ls", exec.commands)
	}
}

func TestDisabledExecutionIsConfigurationError(t *testing.T) {
	cfg := baseConfig()
	cfg.Commands.Enabled = false
	svc, _, _ := newAgent(&scriptedProvider{}, cfg)

	_, err := svc.StartSession(context.Background(), SessionOptions{})
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}

	// The --exec flag opts in even when the config keeps it off.
	if _, err := svc.StartSession(context.Background(), SessionOptions{EnableExec: true}); err != nil {
		t.Errorf("EnableExec override: %v", err)
	}
}

func TestTracePersistedPerAsk(t *testing.T) {
	provider := &scriptedProvider{script: []domain.Completion{
		toolCall("c1", "ls"),
		answer("done"),
	}}
	svc, _, _ := newAgent(provider, baseConfig())
	traces := &recordingTraces{}
	svc.Traces = traces

	sess, err := svc.StartSession(context.Background(), SessionOptions{})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := sess.Ask(context.Background(), "list"); err != nil {
		t.Fatalf("Ask: %v", err)
	}

	saved := traces.saves[sess.ID()]
	if len(saved) != 1 || saved[0].Command != "ls" {
		t.Errorf("persisted trace = %+v, want one ls entry", saved)
	}
}

func TestCancelledExecutionStopsSession(t *testing.T) {
	provider := &scriptedProvider{script: []domain.Completion{
		toolCall("c1", "sleep 5"),
		answer("never reached"),
	}}
	svc, exec, _ := newAgent(provider, baseConfig())
	exec.outcome = domain.OutcomeCancelled

	sess, err := svc.StartSession(context.Background(), SessionOptions{})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	res, _ := sess.Ask(context.Background(), "do something slow")

	if res.Stopped != domain.StopCancelled {
		t.Fatalf("stopped = %q, want %q", res.Stopped, domain.StopCancelled)
	}
	if provider.calls != 1 {
		t.Fatalf("provider calls = %d, want 1 (no turn after cancellation)", provider.calls)
	}
	last := res.Trace[len(res.Trace)-1]
	if last.Outcome != domain.OutcomeCancelled {
		t.Fatalf("last trace outcome = %q, want cancelled", last.Outcome)
	}
}
