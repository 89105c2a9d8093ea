package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMigrate_UpgradePath_UnversionedSessions simulates a database created
// before sessions carried a version column. Existing rows must survive and
// pick up version 0.
func TestMigrate_UpgradePath_UnversionedSessions(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE sessions (
		session_id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		state TEXT NOT NULL DEFAULT 'created',
		interface TEXT NOT NULL,
		model_used TEXT NOT NULL DEFAULT 'haiku',
		user_id TEXT,
		scenario TEXT,
		choices TEXT,
		user_answer TEXT,
		feedback TEXT,
		time_to_choice REAL,
		time_to_explanation REAL,
		total_session_time REAL,
		error_message TEXT,
		error_count INTEGER DEFAULT 0
	)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO sessions (session_id, created_at, updated_at, state, interface)
		VALUES ('legacy-1', '2025-01-01T10:00:00Z', '2025-01-01T10:05:00Z', 'completed', 'web')`)
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var state string
	var version int
	err = db.QueryRow(`SELECT state, version FROM sessions WHERE session_id = 'legacy-1'`).Scan(&state, &version)
	require.NoError(t, err)
	assert.Equal(t, "completed", state)
	assert.Equal(t, 0, version)
}
