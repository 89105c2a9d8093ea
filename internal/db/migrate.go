package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id          TEXT PRIMARY KEY,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL,
		state               TEXT NOT NULL DEFAULT 'created',
		interface           TEXT NOT NULL,
		model_used          TEXT NOT NULL DEFAULT '',
		user_id             TEXT,
		scenario            TEXT,
		choices             TEXT,
		user_answer         TEXT,
		feedback            TEXT,
		time_to_choice      REAL,
		time_to_explanation REAL,
		total_session_time  REAL,
		error_message       TEXT,
		error_count         INTEGER DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS session_events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
		timestamp  TEXT NOT NULL,
		event_type TEXT NOT NULL
		           CHECK(event_type IN ('state_change','error','user_action')),
		event_data TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_state ON sessions(state)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_session_events_session_id ON session_events(session_id)`,

	// Optimistic concurrency counter, added after the first schema.
	`ALTER TABLE sessions ADD COLUMN version INTEGER NOT NULL DEFAULT 0`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at)`,
}
