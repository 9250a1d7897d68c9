package executor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/google/shlex"

	"github.com/doeshing/cmdagent/internal/ports"
)

// ShellNone disables shell interpretation: commands are split into
// argv words and exec'd directly.
const ShellNone = "none"

// LocalRunner spawns commands on the host. With a shell configured it
// runs `<shell> -c <command>`; with ShellNone it shlex-splits the
// command and execs the first word directly.
type LocalRunner struct {
	shell string
}

// NewLocalRunner builds a runner. An empty shell falls back to $SHELL,
// then /bin/sh.
func NewLocalRunner(shell string) *LocalRunner {
	if shell == "" || shell == "auto" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	return &LocalRunner{shell: shell}
}

// Run implements ports.CommandRunner. On timeout the whole process
// group is killed so the command cannot linger unobserved.
func (r *LocalRunner) Run(ctx context.Context, spec ports.SpawnSpec) ports.RawResult {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd, err := r.buildCmd(ctx, spec.Command)
	if err != nil {
		return ports.RawResult{SpawnErr: err}
	}
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setProcessGroup(cmd)

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	result := ports.RawResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	// A run killed by the context is neither a real exit code nor a
	// spawn failure; tell deadline kills and caller cancellation apart.
	if runErr != nil && ctx.Err() != nil {
		result.ExitCode = -1
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.TimedOut = true
		} else {
			result.Canceled = true
		}
		return result
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		result.ExitCode = 0
	case errors.As(runErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		// Binary not found, permission denied, bad working directory.
		result.SpawnErr = runErr
	}
	return result
}

func (r *LocalRunner) buildCmd(ctx context.Context, command string) (*exec.Cmd, error) {
	if r.shell != ShellNone {
		return exec.CommandContext(ctx, r.shell, "-c", command), nil
	}
	words, err := shlex.Split(command)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, errors.New("empty command")
	}
	return exec.CommandContext(ctx, words[0], words[1:]...), nil
}

var _ ports.CommandRunner = (*LocalRunner)(nil)
