// Package journal persists trading decisions to a local sqlite database so
// every entry, exit, and rejection can be audited after the fact.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"hype_trader/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	ts     INTEGER NOT NULL,
	cycle  INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	action TEXT NOT NULL,
	rule   TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_decisions_symbol ON decisions(symbol, ts);
CREATE INDEX IF NOT EXISTS idx_decisions_cycle ON decisions(cycle);
`

// SQLite is a core.IJournal backed by a local sqlite file
type SQLite struct {
	db *sql.DB
}

// Open opens (and if needed creates) the journal database at path
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Record inserts one decision
func (j *SQLite) Record(ctx context.Context, entry core.JournalEntry) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO decisions (ts, cycle, symbol, action, rule, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Time.Unix(), entry.Cycle, entry.Symbol, entry.Action, entry.Rule, entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (j *SQLite) Close() error {
	return j.db.Close()
}

// Recent returns the latest n decisions, newest first
func (j *SQLite) Recent(ctx context.Context, n int) ([]core.JournalEntry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT ts, cycle, symbol, action, rule, detail FROM decisions ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []core.JournalEntry
	for rows.Next() {
		var e core.JournalEntry
		var ts int64
		if err := rows.Scan(&ts, &e.Cycle, &e.Symbol, &e.Action, &e.Rule, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		e.Time = time.Unix(ts, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Noop discards every entry, used when journaling is disabled
type Noop struct{}

func (Noop) Record(ctx context.Context, entry core.JournalEntry) error { return nil }
func (Noop) Close() error                                              { return nil }
