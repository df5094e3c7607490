// Package history keeps a local sqlite journal of every mutating action
// taken from the terminal UI.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Outcome values.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Entry is one recorded action.
type Entry struct {
	ID      string
	At      time.Time
	Screen  string
	Action  string
	Target  string
	Outcome string
	Detail  string
}

// Journal is the sqlite-backed action log.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal at path and migrates it.
func Open(ctx context.Context, path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL; PRAGMA busy_timeout=2000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite pragmas: %w", err)
	}
	j := &Journal{db: db}
	if err := j.AutoMigrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) AutoMigrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			at_unix INTEGER NOT NULL,
			screen TEXT NOT NULL,
			action TEXT NOT NULL,
			target TEXT,
			outcome TEXT NOT NULL,
			detail TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_at ON actions(at_unix DESC);`,
	}
	for _, q := range queries {
		if _, err := j.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate journal: %w", err)
		}
	}
	return nil
}

// Record stores e, filling ID and At when empty.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if j == nil {
		return e, nil
	}
	if e.ID == "" {
		e.ID = "act_" + uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	e.Screen = strings.TrimSpace(e.Screen)
	e.Action = strings.TrimSpace(e.Action)
	if e.Screen == "" || e.Action == "" {
		return Entry{}, fmt.Errorf("missing required journal fields")
	}
	if e.Outcome == "" {
		e.Outcome = OutcomeOK
	}

	if _, err := j.db.ExecContext(ctx,
		`INSERT INTO actions (id, at_unix, screen, action, target, outcome, detail) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.At.UnixNano(), e.Screen, e.Action, nullIfEmpty(e.Target), e.Outcome, nullIfEmpty(e.Detail),
	); err != nil {
		return Entry{}, fmt.Errorf("insert journal entry: %w", err)
	}
	return e, nil
}

// Recent returns the newest n entries, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	if j == nil {
		return nil, nil
	}
	if n < 1 {
		n = 10
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, at_unix, screen, action, COALESCE(target, ''), outcome, COALESCE(detail, '')
		 FROM actions ORDER BY at_unix DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at int64
		if err := rows.Scan(&e.ID, &at, &e.Screen, &e.Action, &e.Target, &e.Outcome, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.At = time.Unix(0, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.db.Close()
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
