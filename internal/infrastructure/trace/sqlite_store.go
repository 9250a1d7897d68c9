// Package trace persists execution traces in a SQLite database under
// ~/.cmdagent/trace.db, one row per attempted command.
package trace

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/cmdagent/internal/domain"
	"github.com/doeshing/cmdagent/internal/ports"
)

// SQLiteStore implements ports.TraceRepository on modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the trace database at path. An
// empty path defaults to ~/.cmdagent/trace.db.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = filepath.Join(userHome(), ".cmdagent", "trace.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS trace (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		session_id TEXT NOT NULL,
		command TEXT NOT NULL,
		reason TEXT,
		outcome TEXT NOT NULL,
		exit_code INTEGER,
		duration_ms INTEGER
	);`)
	return err
}

// Save implements ports.TraceRepository.
func (s *SQLiteStore) Save(sessionID string, results []domain.ExecutionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, res := range results {
		_, err := tx.Exec(`INSERT INTO trace
			(timestamp, session_id, command, reason, outcome, exit_code, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			now, sessionID, res.Command, res.Reason, string(res.Outcome), res.ExitCode, res.DurationMS)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Records returns persisted trace rows, newest first. A non-empty
// search filters on command substring.
func (s *SQLiteStore) Records(limit int, search string) ([]domain.TraceRecord, error) {
	var builder strings.Builder
	builder.WriteString("SELECT timestamp, session_id, command, reason, outcome, exit_code, duration_ms FROM trace")
	var args []any
	if search != "" {
		builder.WriteString(" WHERE command LIKE ?")
		args = append(args, "%"+search+"%")
	}
	builder.WriteString(" ORDER BY id DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.TraceRecord
	for rows.Next() {
		var rec domain.TraceRecord
		var ts, outcome string
		if err := rows.Scan(&ts, &rec.SessionID, &rec.Command, &rec.Reason, &outcome, &rec.ExitCode, &rec.DurationMS); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.Timestamp = t
		}
		rec.Outcome = domain.Outcome(outcome)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func userHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

var _ ports.TraceRepository = (*SQLiteStore)(nil)
