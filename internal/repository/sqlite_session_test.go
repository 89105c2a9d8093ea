package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionRepo(t *testing.T) *SQLiteSessionRepo {
	t.Helper()
	return NewSQLiteSessionRepo(testutil.NewTestDB(t))
}

func TestSessionRepo_CreateAndGetByID_RoundTrip(t *testing.T) {
	repo := newSessionRepo(t)
	ctx := context.Background()

	sess := testutil.NewTestTrainingSession(
		testutil.WithUser("fencer-1"),
		testutil.WithCompleted(domain.ChoiceC, 12500*time.Millisecond, 40*time.Second),
	)
	sess.ErrorMessage = "transient"
	sess.ErrorCount = 1
	require.NoError(t, repo.Create(ctx, sess))

	fetched, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(sess, fetched); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionRepo_RoundTripKeepsNanoseconds(t *testing.T) {
	repo := newSessionRepo(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 14, 10, 0, 0, 123456789, time.UTC)
	sess := testutil.NewTestTrainingSession(
		testutil.WithTimes(created, created.Add(31*time.Second+987654321)),
		testutil.WithCompleted(domain.ChoiceA, 3*time.Second+141592653, 27*time.Second+182818284),
	)
	require.NoError(t, repo.Create(ctx, sess))

	fetched, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(sess, fetched); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDurationColumn_RoundTripsEveryNanosecondOffset(t *testing.T) {
	for ns := time.Duration(0); ns < 20000; ns += 7 {
		for _, base := range []time.Duration{0, 3 * time.Second, 47 * time.Minute, 5 * time.Hour} {
			d := base + ns*100003
			v := nullableDurationToValue(&d).(float64)
			got := parseNullableDuration(sql.NullFloat64{Float64: v, Valid: true})
			require.NotNil(t, got)
			if *got != d {
				t.Fatalf("duration %d stored as %v read back as %d", d, v, *got)
			}
		}
	}
}

func TestSessionRepo_AbsentSubObjectsStayNil(t *testing.T) {
	repo := newSessionRepo(t)
	ctx := context.Background()

	sess := testutil.NewTestTrainingSession()
	require.NoError(t, repo.Create(ctx, sess))

	fetched, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.UserID)
	assert.Nil(t, fetched.Scenario)
	assert.Nil(t, fetched.Choices)
	assert.Nil(t, fetched.Answer)
	assert.Nil(t, fetched.Feedback)
	assert.Nil(t, fetched.TimeToChoice)
	assert.Equal(t, domain.StateCreated, fetched.State)
}

func TestSessionRepo_GetByID_NotFound(t *testing.T) {
	repo := newSessionRepo(t)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepo_AnswerStoredAsLetter(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteSessionRepo(database)
	ctx := context.Background()

	sess := testutil.NewTestTrainingSession(testutil.WithChallenge(), testutil.WithAnswer(domain.ChoiceD))
	require.NoError(t, repo.Create(ctx, sess))

	var raw string
	require.NoError(t, database.QueryRow(`SELECT json_extract(user_answer, '$.choice') FROM sessions WHERE session_id = ?`, sess.ID).Scan(&raw))
	assert.Equal(t, "D", raw)
}

func TestSessionRepo_Update_BumpsVersion(t *testing.T) {
	repo := newSessionRepo(t)
	ctx := context.Background()

	sess := testutil.NewTestTrainingSession()
	require.NoError(t, repo.Create(ctx, sess))

	sess.State = domain.StateScenarioGenerated
	testutil.WithChallenge()(sess)
	sess.UpdatedAt = sess.UpdatedAt.Add(time.Second)
	require.NoError(t, repo.Update(ctx, sess))
	assert.Equal(t, 1, sess.Version)

	fetched, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fetched.Version)
	assert.Equal(t, domain.StateScenarioGenerated, fetched.State)
	require.NotNil(t, fetched.Choices)
	assert.Equal(t, 0, fetched.Choices.Recommend)
}

func TestSessionRepo_Update_StaleVersionConflicts(t *testing.T) {
	repo := newSessionRepo(t)
	ctx := context.Background()

	sess := testutil.NewTestTrainingSession()
	require.NoError(t, repo.Create(ctx, sess))

	first, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)

	first.State = domain.StateAbandoned
	require.NoError(t, repo.Update(ctx, first))

	second.State = domain.StateScenarioGenerated
	err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, ErrConflict)

	fetched, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAbandoned, fetched.State)
}

func TestSessionRepo_Update_Missing(t *testing.T) {
	repo := newSessionRepo(t)
	err := repo.Update(context.Background(), testutil.NewTestTrainingSession())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepo_List_FiltersAndOrder(t *testing.T) {
	repo := newSessionRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	old := testutil.NewTestTrainingSession(testutil.WithUser("u1"), testutil.WithTimes(base, base))
	mid := testutil.NewTestTrainingSession(testutil.WithUser("u2"), testutil.WithTimes(base.Add(time.Hour), base.Add(time.Hour)),
		testutil.WithCompleted(domain.ChoiceB, time.Second, time.Second))
	recent := testutil.NewTestTrainingSession(testutil.WithUser("u1"), testutil.WithTimes(base.Add(2*time.Hour), base.Add(2*time.Hour)),
		testutil.WithCompleted(domain.ChoiceA, time.Second, time.Second))
	for _, s := range []*domain.TrainingSession{old, mid, recent} {
		require.NoError(t, repo.Create(ctx, s))
	}

	all, err := repo.List(ctx, domain.SessionFilter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{recent.ID, mid.ID, old.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	u1 := "u1"
	byUser, err := repo.List(ctx, domain.SessionFilter{UserID: &u1}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	completed := domain.StateCompleted
	byState, err := repo.List(ctx, domain.SessionFilter{UserID: &u1, State: &completed}, 10, 0)
	require.NoError(t, err)
	require.Len(t, byState, 1)
	assert.Equal(t, recent.ID, byState[0].ID)
	require.NotNil(t, byState[0].ChoiceCorrect)
	assert.True(t, *byState[0].ChoiceCorrect)

	page, err := repo.List(ctx, domain.SessionFilter{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, mid.ID, page[0].ID)
	require.NotNil(t, page[0].ChoiceCorrect)
	assert.False(t, *page[0].ChoiceCorrect)
	assert.Equal(t, domain.ChoiceB, *page[0].UserChoice)
	assert.Equal(t, domain.ChoiceA, *page[0].RecommendedChoice)
}

func TestSessionRepo_UserPerformance(t *testing.T) {
	repo := newSessionRepo(t)
	ctx := context.Background()

	sessions := []*domain.TrainingSession{
		testutil.NewTestTrainingSession(testutil.WithUser("u1"), testutil.WithCompleted(domain.ChoiceA, 10*time.Second, 20*time.Second)),
		testutil.NewTestTrainingSession(testutil.WithUser("u1"), testutil.WithCompleted(domain.ChoiceB, 30*time.Second, 30*time.Second)),
		testutil.NewTestTrainingSession(testutil.WithUser("u1"), testutil.WithState(domain.StateAbandoned)),
		testutil.NewTestTrainingSession(testutil.WithUser("u1"), testutil.WithState(domain.StateOptionSelected), testutil.WithChallenge(), testutil.WithAnswer(domain.ChoiceA)),
		testutil.NewTestTrainingSession(testutil.WithUser("u2"), testutil.WithCompleted(domain.ChoiceA, time.Second, time.Second)),
	}
	for _, s := range sessions {
		require.NoError(t, repo.Create(ctx, s))
	}

	perf, err := repo.UserPerformance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, perf.Total)
	assert.Equal(t, 2, perf.Completed)
	assert.Equal(t, 1, perf.Abandoned)
	assert.Equal(t, 45*time.Second, perf.AverageDuration)
	assert.InDelta(t, 0.5, perf.ChoiceAccuracy, 1e-9)

	_, err = repo.UserPerformance(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepo_SystemAnalytics(t *testing.T) {
	repo := newSessionRepo(t)
	ctx := context.Background()

	empty, err := repo.SystemAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)
	assert.Zero(t, empty.CompletionRate)

	sessions := []*domain.TrainingSession{
		testutil.NewTestTrainingSession(testutil.WithCompleted(domain.ChoiceA, 10*time.Second, 10*time.Second)),
		testutil.NewTestTrainingSession(testutil.WithCompleted(domain.ChoiceA, 20*time.Second, 20*time.Second)),
		testutil.NewTestTrainingSession(testutil.WithState(domain.StateCreated)),
		testutil.NewTestTrainingSession(testutil.WithState(domain.StateScenarioGenerated), testutil.WithChallenge()),
		testutil.NewTestTrainingSession(testutil.WithState(domain.StateAbandoned), testutil.WithChallenge(), testutil.WithAnswer(domain.ChoiceC)),
		testutil.NewTestTrainingSession(testutil.WithState(domain.StateError)),
	}
	for _, s := range sessions {
		require.NoError(t, repo.Create(ctx, s))
	}

	got, err := repo.SystemAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Total)
	assert.InDelta(t, 2.0/6.0, got.CompletionRate, 1e-9)
	assert.Equal(t, 30*time.Second, got.AverageDuration)
	assert.Equal(t, map[domain.SessionState]int{
		domain.StateCreated:           1,
		domain.StateScenarioGenerated: 1,
		domain.StateAbandoned:         1,
	}, got.AbandonmentByState)
	assert.Equal(t, map[string]int{"A": 2, "C": 1}, got.PopularChoices)
}

func TestSessionRepo_MarkStaleAbandoned(t *testing.T) {
	repo := newSessionRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	stale := now.Add(-25 * time.Hour)
	fresh := now.Add(-time.Hour)

	staleOpen := testutil.NewTestTrainingSession(testutil.WithState(domain.StateOptionSelected), testutil.WithTimes(stale, stale))
	staleDone := testutil.NewTestTrainingSession(testutil.WithState(domain.StateCompleted), testutil.WithTimes(stale, stale))
	staleErr := testutil.NewTestTrainingSession(testutil.WithState(domain.StateError), testutil.WithTimes(stale, stale))
	freshOpen := testutil.NewTestTrainingSession(testutil.WithState(domain.StateCreated), testutil.WithTimes(fresh, fresh))
	for _, s := range []*domain.TrainingSession{staleOpen, staleDone, staleErr, freshOpen} {
		require.NoError(t, repo.Create(ctx, s))
	}

	n, err := repo.MarkStaleAbandoned(ctx, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.GetByID(ctx, staleOpen.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAbandoned, got.State)
	assert.Equal(t, "Session timed out", got.ErrorMessage)
	assert.Equal(t, now, got.UpdatedAt)
	assert.Equal(t, 1, got.Version)

	again, err := repo.MarkStaleAbandoned(ctx, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestParseTime_LegacyFormats(t *testing.T) {
	want := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, s := range []string{
		"2025-01-02T03:04:05.000000Z",
		"2025-01-02T03:04:05Z",
		"2025-01-02T03:04:05",
		"2025-01-02 03:04:05",
	} {
		got, err := parseTime(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}
	_, err := parseTime("yesterday")
	assert.Error(t, err)
}
