package domain

import "time"

// TraceRecord is one persisted execution-trace row, sufficient to
// reconstruct "what ran, when, and how it ended" for an audit log.
type TraceRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	SessionID  string    `json:"session_id"`
	Command    string    `json:"command"`
	Reason     string    `json:"reason,omitempty"`
	Outcome    Outcome   `json:"outcome"`
	ExitCode   int       `json:"exit_code"`
	DurationMS int64     `json:"duration_ms"`
}
