// Package contextinject runs the configured context-gathering
// commands once per session and folds their labeled output into a
// single system-context block.
package contextinject

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/cmdagent/internal/domain"
	"github.com/doeshing/cmdagent/internal/ports"
)

// Injector renders, validates, and executes a batch of context
// commands. Execution is concurrent; output assembly is deterministic
// in declaration order.
type Injector struct {
	renderer    ports.Renderer
	validator   ports.Validator
	executor    ports.Executor
	maxParallel int
	requireAny  bool
	log         ports.Logger
}

// New creates an Injector. maxParallel <= 0 means unbounded (up to one
// goroutine per command definition).
func New(renderer ports.Renderer, validator ports.Validator, executor ports.Executor, maxParallel int, requireAny bool, log ports.Logger) *Injector {
	return &Injector{
		renderer:    renderer,
		validator:   validator,
		executor:    executor,
		maxParallel: maxParallel,
		requireAny:  requireAny,
		log:         log,
	}
}

// BuildContext runs the batch once and returns the assembled context
// block plus the trace of every attempt. Individual commands fail
// soft: a denied or unrenderable command yields a labeled error block
// in its place. The whole batch fails only when requireAny is set and
// not a single command could run.
func (inj *Injector) BuildContext(ctx context.Context, defs []domain.ContextCommand, vars domain.VariableContext, policy *domain.Policy) (string, []domain.ExecutionResult, error) {
	if len(defs) == 0 {
		return "", nil, nil
	}

	blocks := make([]domain.ContextBlock, len(defs))
	results := make([]*domain.ExecutionResult, len(defs))

	var g errgroup.Group
	if inj.maxParallel > 0 {
		g.SetLimit(inj.maxParallel)
	}

	for i, def := range defs {
		i, def := i, def
		g.Go(func() error {
			block, res := inj.runOne(ctx, def, vars, policy)
			blocks[i] = block
			results[i] = res
			return nil
		})
	}
	// Workers never return errors; fail-soft is per command.
	_ = g.Wait()

	var trace []domain.ExecutionResult
	ran := 0
	for _, res := range results {
		if res == nil {
			continue
		}
		trace = append(trace, *res)
		if res.Outcome != domain.OutcomeDenied {
			ran++
		}
	}

	if inj.requireAny && ran == 0 {
		return "", trace, fmt.Errorf("context injection: none of %d configured commands could run", len(defs))
	}

	return assemble(blocks), trace, nil
}

func (inj *Injector) runOne(ctx context.Context, def domain.ContextCommand, vars domain.VariableContext, policy *domain.Policy) (domain.ContextBlock, *domain.ExecutionResult) {
	rendered, err := inj.renderer.Render(def.Command, vars)
	if err != nil {
		inj.log.Warn("context command failed to render", "name", def.Name, "error", err)
		return domain.ContextBlock{Name: def.Name, Err: err.Error()}, &domain.ExecutionResult{
			Command: def.Command,
			Reason:  "context:" + def.Name,
			Outcome: domain.OutcomeDenied,
			Stderr:  err.Error(),
		}
	}

	if !inj.validator.IsAllowed(rendered, policy) {
		reason := inj.validator.Explain(rendered, policy)
		inj.log.Warn("context command denied by policy", "name", def.Name, "command", rendered)
		return domain.ContextBlock{Name: def.Name, Err: reason}, &domain.ExecutionResult{
			Command: rendered,
			Reason:  "context:" + def.Name,
			Outcome: domain.OutcomeDenied,
			Stderr:  reason,
		}
	}

	res := inj.executor.Execute(ctx, rendered, policy)
	res.Reason = "context:" + def.Name

	block := domain.ContextBlock{Name: def.Name, Output: res.CombinedOutput()}
	if res.Outcome == domain.OutcomeTimedOut {
		block.Err = fmt.Sprintf("timed out after %ds", policy.TimeoutSeconds)
	} else if res.Outcome == domain.OutcomeSpawnFailed {
		block.Err = res.Stderr
	}
	return block, &res
}

// assemble concatenates blocks in declaration order with stable
// delimiters, so the context block is byte-identical for identical
// command outputs.
func assemble(blocks []domain.ContextBlock) string {
	var b strings.Builder
	for _, block := range blocks {
		b.WriteString("--- ")
		b.WriteString(block.Name)
		if block.Err != "" {
			b.WriteString(" (unavailable)")
		}
		b.WriteString(" ---\n")
		if block.Err != "" {
			b.WriteString(block.Err)
		} else {
			b.WriteString(strings.TrimRight(block.Output, "\n"))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

var _ ports.ContextBuilder = (*Injector)(nil)
