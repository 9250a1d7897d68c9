package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/doeshing/cmdagent/internal/domain"
)

// RenderResult prints the final answer and, when verbose, the command
// trace of the session.
func RenderResult(out io.Writer, result domain.AgentResult, verbose bool) {
	if result.Answer != "" {
		fmt.Fprintln(out, result.Answer)
	}

	if !verbose || len(result.Trace) == 0 {
		return
	}

	fmt.Fprintf(out, "\n%d command(s) attempted:\n", len(result.Trace))
	for _, res := range result.Trace {
		fmt.Fprintf(out, "  [%s] %s (%dms)\n", res.Outcome, res.Command, res.DurationMS)
	}
}

// RenderTraceRecords prints persisted trace rows, newest first.
func RenderTraceRecords(out io.Writer, records []domain.TraceRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No trace recorded yet.")
		return
	}
	for _, rec := range records {
		fmt.Fprintf(out, "%-14s [%s] %s\n",
			humanize.Time(rec.Timestamp),
			rec.Outcome,
			rec.Command)
		if rec.Reason != "" {
			fmt.Fprintf(out, "               reason: %s\n", rec.Reason)
		}
		if rec.Outcome == domain.OutcomeNonZeroExit {
			fmt.Fprintf(out, "               exit code %d after %s\n",
				rec.ExitCode, (time.Duration(rec.DurationMS) * time.Millisecond).String())
		}
	}
}

// RenderHealthReport prints the doctor checks.
func RenderHealthReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%s] %s - %s\n",
			strings.ToUpper(string(check.Status)),
			check.Name,
			check.Details)
	}
	if report.Healthy() {
		fmt.Fprintln(out, "\nAll checks passed.")
	}
}
