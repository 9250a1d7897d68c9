package domain

// Outcome classifies how a command attempt ended.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeNonZeroExit Outcome = "non_zero_exit"
	OutcomeTimedOut    Outcome = "timed_out"
	OutcomeSpawnFailed Outcome = "spawn_failed"
	OutcomeDenied      Outcome = "denied"
	OutcomeCancelled   Outcome = "cancelled"
)

// ExecutionResult records one attempted command. It is created once
// per attempt, never mutated afterwards, and appended to the session
// trace in attempt order.
type ExecutionResult struct {
	Command    string  `json:"command"`
	Reason     string  `json:"reason,omitempty"`
	Outcome    Outcome `json:"outcome"`
	ExitCode   int     `json:"exit_code"`
	Stdout     string  `json:"stdout"`
	Stderr     string  `json:"stderr"`
	DurationMS int64   `json:"duration_ms"`
}

// Failed reports whether the attempt produced anything other than a
// clean exit.
func (r ExecutionResult) Failed() bool {
	return r.Outcome != OutcomeSuccess
}

// CombinedOutput joins stdout and stderr with delimiters when both are
// present, so a model (or a human reading the trace) can tell the
// streams apart.
func (r ExecutionResult) CombinedOutput() string {
	switch {
	case r.Stdout != "" && r.Stderr != "":
		return "[stdout]\n" + r.Stdout + "\n[stderr]\n" + r.Stderr
	case r.Stderr != "":
		return r.Stderr
	default:
		return r.Stdout
	}
}
