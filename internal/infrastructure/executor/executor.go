// Package executor runs validated, rendered commands as subprocesses
// and classifies the outcome. It performs no policy validation of its
// own; callers are expected to have checked the command already.
package executor

import (
	"context"
	"time"

	"github.com/doeshing/cmdagent/internal/domain"
	"github.com/doeshing/cmdagent/internal/ports"
)

// Executor classifies raw spawn results into ExecutionResults. The
// actual process spawn sits behind ports.CommandRunner so tests can
// substitute a fake with canned results.
type Executor struct {
	runner ports.CommandRunner
	log    ports.Logger
}

// New creates an Executor on top of the given runner.
func New(runner ports.CommandRunner, log ports.Logger) *Executor {
	return &Executor{runner: runner, log: log}
}

// Execute runs command with the working directory and timeout from
// policy. Command failure is a reported outcome, never an error:
// non-zero exits, timeouts, and spawn failures all come back as
// classified ExecutionResults.
func (e *Executor) Execute(ctx context.Context, command string, policy *domain.Policy) domain.ExecutionResult {
	timeout := time.Duration(policy.TimeoutSeconds) * time.Second

	e.log.Debug("executing command", "command", command, "work_dir", policy.WorkDir, "timeout", timeout)

	raw := e.runner.Run(ctx, ports.SpawnSpec{
		Command: command,
		WorkDir: policy.WorkDir,
		Timeout: timeout,
	})

	result := domain.ExecutionResult{
		Command:    command,
		Stdout:     raw.Stdout,
		Stderr:     raw.Stderr,
		ExitCode:   raw.ExitCode,
		DurationMS: raw.Duration.Milliseconds(),
	}

	switch {
	case raw.SpawnErr != nil:
		result.Outcome = domain.OutcomeSpawnFailed
		result.Stderr = raw.SpawnErr.Error()
		result.ExitCode = -1
	case raw.TimedOut:
		result.Outcome = domain.OutcomeTimedOut
		result.ExitCode = -1
	case raw.Canceled:
		result.Outcome = domain.OutcomeCancelled
		result.ExitCode = -1
	case raw.ExitCode != 0:
		result.Outcome = domain.OutcomeNonZeroExit
	default:
		result.Outcome = domain.OutcomeSuccess
	}

	e.log.Debug("command finished", "command", command, "outcome", result.Outcome, "duration_ms", result.DurationMS)
	return result
}

var _ ports.Executor = (*Executor)(nil)
