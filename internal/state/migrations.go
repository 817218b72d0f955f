package state

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

// migrations are applied in order, each in its own transaction. Never edit
// a released migration; append a new one.
var migrations = []migration{
	{1, "sessions", `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			request TEXT NOT NULL,
			params TEXT NOT NULL DEFAULT '{}',
			root_id TEXT,
			status TEXT NOT NULL DEFAULT 'running',
			payload TEXT,
			failure_kind TEXT,
			failure_message TEXT,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
		CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);`},

	{2, "assignments", `
		CREATE TABLE IF NOT EXISTS assignments (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			parent_id TEXT,
			idx INTEGER NOT NULL DEFAULT 0,
			goal TEXT NOT NULL,
			origin TEXT,
			assignee TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			iterations INTEGER NOT NULL DEFAULT 0,
			success INTEGER,
			payload TEXT,
			failure_kind TEXT,
			failure_role TEXT,
			failure_message TEXT,
			created_at DATETIME NOT NULL,
			completed_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_assignments_session_id ON assignments(session_id);
		CREATE INDEX IF NOT EXISTS idx_assignments_parent_id ON assignments(parent_id);`},

	{3, "iterations", `
		CREATE TABLE IF NOT EXISTS iterations (
			operation_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			iteration INTEGER NOT NULL,
			session_id TEXT REFERENCES sessions(id) ON DELETE SET NULL,
			success INTEGER NOT NULL,
			kind TEXT,
			message TEXT,
			payload TEXT,
			roles_used TEXT,
			duration_ns INTEGER NOT NULL DEFAULT 0,
			score INTEGER NOT NULL DEFAULT 0,
			rationale TEXT,
			model TEXT,
			checkpoint_file TEXT,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (operation_id, iteration)
		);`},
}

// Migrate brings the schema up to the latest version.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	current, err := schemaVersion(db.conn.QueryRow)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := inTx(db.conn, func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.sql); err != nil {
				return err
			}
			_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration v%d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

// SchemaVersion returns the highest applied migration, 0 for a fresh file.
func (db *DB) SchemaVersion() (int, error) {
	return schemaVersion(db.QueryRow)
}

func schemaVersion(queryRow func(string, ...any) *sql.Row) (int, error) {
	var v int
	if err := queryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("get schema version: %w", err)
	}
	return v, nil
}
