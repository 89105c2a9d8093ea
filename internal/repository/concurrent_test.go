package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/pistemind/internal/db"
	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newConcurrentTestDB creates a file-backed SQLite database in a temp directory.
// Unlike :memory:, a file-backed DB shares state across all connections in the
// pool, which is required to test real concurrent access with WAL mode.
func newConcurrentTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "concurrent_test.db")
	database, err := db.OpenDB(dbPath)
	require.NoError(t, err, "failed to create concurrent test database")
	t.Cleanup(func() { database.Close() })
	return database
}

func isBusy(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked"))
}

// TestConcurrentUpdates_SameSession_OneWinnerPerVersion races writers that
// all read version 0. Exactly one update may land; the rest must conflict.
func TestConcurrentUpdates_SameSession_OneWinnerPerVersion(t *testing.T) {
	database := newConcurrentTestDB(t)
	repo := NewSQLiteSessionRepo(database)
	ctx := context.Background()

	sess := testutil.NewTestTrainingSession()
	require.NoError(t, repo.Create(ctx, sess))

	const writers = 16
	copies := make([]*domain.TrainingSession, writers)
	for i := range copies {
		var err error
		copies[i], err = repo.GetByID(ctx, sess.ID)
		require.NoError(t, err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for _, local := range copies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local.State = domain.StateAbandoned
			local.UpdatedAt = local.UpdatedAt.Add(time.Second)

			var err error
			for attempt := 0; attempt < 8; attempt++ {
				err = repo.Update(ctx, local)
				if !isBusy(err) {
					break
				}
				time.Sleep(time.Millisecond * time.Duration(1<<attempt))
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, writers-1, conflicts)

	fetched, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fetched.Version)
}

// TestConcurrentUpdates_DistinctSessions_Independent verifies sessions with
// different ids never interfere.
func TestConcurrentUpdates_DistinctSessions_Independent(t *testing.T) {
	database := newConcurrentTestDB(t)
	uow := db.NewSQLiteUnitOfWork(database)
	repo := NewSQLiteSessionRepo(database)
	ctx := context.Background()

	const n = 12
	sessions := make([]*domain.TrainingSession, n)
	for i := range sessions {
		sessions[i] = testutil.NewTestTrainingSession()
		require.NoError(t, repo.Create(ctx, sessions[i]))
	}

	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for _, s := range sessions {
		wg.Add(1)
		go func(s *domain.TrainingSession) {
			defer wg.Done()
			var err error
			for attempt := 0; attempt < 8; attempt++ {
				// Re-read each attempt: a rolled-back tx may have bumped the
				// in-memory version.
				var local *domain.TrainingSession
				local, err = repo.GetByID(ctx, s.ID)
				if err == nil {
					err = uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
						local.State = domain.StateScenarioGenerated
						if err := NewSQLiteSessionRepo(tx).Update(ctx, local); err != nil {
							return err
						}
						return NewSQLiteEventRepo(tx).Append(ctx, &domain.SessionEvent{
							SessionID: local.ID,
							Timestamp: local.UpdatedAt,
							Type:      domain.EventStateChange,
							Data:      map[string]any{"to": string(local.State)},
						})
					})
				}
				if !isBusy(err) {
					break
				}
				time.Sleep(time.Millisecond * time.Duration(1<<attempt))
			}
			if err != nil {
				errCh <- err
			}
		}(s)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	events := NewSQLiteEventRepo(database)
	for _, s := range sessions {
		got, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateScenarioGenerated, got.State)
		assert.Equal(t, 1, got.Version)

		evs, err := events.ListBySession(ctx, s.ID)
		require.NoError(t, err)
		assert.Len(t, evs, 1)
	}
}
