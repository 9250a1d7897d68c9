package trace

import (
	"path/filepath"
	"testing"

	"github.com/doeshing/cmdagent/internal/domain"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "trace.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndRecords(t *testing.T) {
	store := openStore(t)

	err := store.Save("sess-1", []domain.ExecutionResult{
		{Command: "git status", Outcome: domain.OutcomeSuccess, DurationMS: 12},
		{Command: "rm -rf /", Outcome: domain.OutcomeDenied, ExitCode: -1},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	records, err := store.Records(0, "")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	// Newest first.
	if records[0].Command != "rm -rf /" || records[0].Outcome != domain.OutcomeDenied {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[1].SessionID != "sess-1" || records[1].Timestamp.IsZero() {
		t.Errorf("records[1] = %+v", records[1])
	}
}

func TestRecordsSearchAndLimit(t *testing.T) {
	store := openStore(t)

	if err := store.Save("sess-1", []domain.ExecutionResult{
		{Command: "git status", Outcome: domain.OutcomeSuccess},
		{Command: "git log", Outcome: domain.OutcomeSuccess},
		{Command: "ls -la", Outcome: domain.OutcomeSuccess},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	records, err := store.Records(0, "git")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("search git: got %d records, want 2", len(records))
	}

	records, err = store.Records(1, "")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 || records[0].Command != "ls -la" {
		t.Errorf("limit 1: %+v", records)
	}
}
