// Package history keeps a log of executed commands in a SQLite database.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS history (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	command       TEXT NOT NULL,
	status        TEXT,
	level         TEXT,
	database_name TEXT,
	table_name    TEXT,
	executed_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
	duration_ms   INTEGER,
	is_error      BOOLEAN DEFAULT FALSE,
	snapshot_id   TEXT
)`

// Entry is one executed command.
type Entry struct {
	ID         int64
	Command    string
	Status     string
	Level      string
	Database   string
	Table      string
	ExecutedAt time.Time
	DurationMS int64
	IsError    bool
	// SnapshotID is the checkpoint taken before the command, "" if none.
	SnapshotID string
}

// History is a SQLite-backed command log.
type History struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and ensures the
// schema exists.
func Open(path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("history: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create table: %w", err)
	}
	return &History{db: db}, nil
}

// Record inserts e. A zero ExecutedAt is stamped with the current time.
func (h *History) Record(e Entry) error {
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = time.Now().UTC()
	}
	_, err := h.db.Exec(
		`INSERT INTO history (command, status, level, database_name, table_name, executed_at, duration_ms, is_error, snapshot_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Command,
		e.Status,
		e.Level,
		e.Database,
		e.Table,
		e.ExecutedAt,
		e.DurationMS,
		e.IsError,
		e.SnapshotID,
	)
	if err != nil {
		return fmt.Errorf("history record: %w", err)
	}
	return nil
}

// Recent returns the newest entries first, at most limit of them.
func (h *History) Recent(limit int) ([]Entry, error) {
	rows, err := h.db.Query(
		`SELECT id, command, status, level, database_name, table_name, executed_at, duration_ms, is_error, snapshot_id
		 FROM history
		 ORDER BY executed_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history recent: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Commands returns distinct command texts, newest first. The REPL seeds its
// completion list from it.
func (h *History) Commands(limit int) ([]string, error) {
	rows, err := h.db.Query(
		`SELECT command FROM history
		 GROUP BY command
		 ORDER BY MAX(id) DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history commands: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return out, nil
}

// Clear deletes all entries.
func (h *History) Clear() error {
	if _, err := h.db.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("history clear: %w", err)
	}
	return nil
}

func (h *History) Close() error {
	return h.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var status, level, dbName, table, snap sql.NullString
		if err := rows.Scan(
			&e.ID,
			&e.Command,
			&status,
			&level,
			&dbName,
			&table,
			&e.ExecutedAt,
			&e.DurationMS,
			&e.IsError,
			&snap,
		); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		e.Status, e.Level, e.Database, e.Table, e.SnapshotID = status.String, level.String, dbName.String, table.String, snap.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return entries, nil
}
