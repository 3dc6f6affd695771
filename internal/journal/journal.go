// Package journal persists the history of sync attempts in SQLite.
//
// The journal is purely observational: the engine never reads it back for
// control decisions. It exists so `codeup history` can answer "what did
// the tool do to my repository and when".
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// attemptTimeLayout is fixed-width (always nine fractional digits, always
// UTC) so the lexicographic ORDER BY on the stored text matches
// chronological order. RFC3339Nano would drop trailing zeros and break
// ordering within a second.
const attemptTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Attempt is one recorded synchronization attempt.
type Attempt struct {
	ID           string
	Branch       string
	Target       string
	StartedAt    time.Time
	FinishedAt   time.Time
	Success      bool
	HadConflicts bool
	BackupRef    string
	ErrorMessage string
	Code         string
}

// Store provides durable storage for the attempt journal.
type Store struct {
	db *sql.DB
}

// Open creates or opens the journal database at path. WAL mode keeps reads
// (the history command) from blocking a write in progress; the single-
// connection pool avoids SQLITE_BUSY on the writer.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts one attempt. An empty ID is assigned a fresh UUID; the
// assigned ID is returned.
func (s *Store) Record(ctx context.Context, a Attempt) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts (id, branch, target, started_at, finished_at,
			success, had_conflicts, backup_ref, error_message, code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Branch, a.Target,
		a.StartedAt.UTC().Format(attemptTimeLayout),
		a.FinishedAt.UTC().Format(attemptTimeLayout),
		boolToInt(a.Success), boolToInt(a.HadConflicts),
		a.BackupRef, a.ErrorMessage, a.Code,
	)
	if err != nil {
		return "", fmt.Errorf("record attempt: %w", err)
	}
	return a.ID, nil
}

// Recent returns up to limit attempts, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, branch, target, started_at, finished_at,
			success, had_conflicts, backup_ref, error_message, code
		FROM attempts
		ORDER BY started_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var started, finished string
		var success, hadConflicts int
		if err := rows.Scan(&a.ID, &a.Branch, &a.Target, &started, &finished,
			&success, &hadConflicts, &a.BackupRef, &a.ErrorMessage, &a.Code); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		a.FinishedAt, err = time.Parse(time.RFC3339Nano, finished)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		a.Success = success != 0
		a.HadConflicts = hadConflicts != 0
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
