package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/pistemind/internal/db"
	"github.com/alexanderramin/pistemind/internal/domain"
)

// SQLiteSessionRepo implements SessionRepo using a SQLite database.
type SQLiteSessionRepo struct {
	db db.DBTX
}

// NewSQLiteSessionRepo creates a new SQLiteSessionRepo.
func NewSQLiteSessionRepo(conn db.DBTX) *SQLiteSessionRepo {
	return &SQLiteSessionRepo{db: conn}
}

const sessionColumns = `session_id, created_at, updated_at, state, interface, model_used, user_id,
	scenario, choices, user_answer, feedback,
	time_to_choice, time_to_explanation, total_session_time,
	error_message, error_count, version`

// answerRecord is the stored answer shape; the choice is kept as a letter.
type answerRecord struct {
	Choice      string `json:"choice"`
	Explanation string `json:"explanation"`
}

func toAnswerRecord(a *domain.Answer) *answerRecord {
	if a == nil {
		return nil
	}
	return &answerRecord{Choice: a.Choice.Letter(), Explanation: a.Explanation}
}

func (r *answerRecord) toDomain() (*domain.Answer, error) {
	if r == nil {
		return nil, nil
	}
	c, err := domain.ParseChoice(r.Choice)
	if err != nil {
		return nil, err
	}
	return &domain.Answer{Choice: c, Explanation: r.Explanation}, nil
}

type sessionColumnsOut struct {
	scenario, choices, answer, feedback any
}

func encodeSubObjects(s *domain.TrainingSession) (sessionColumnsOut, error) {
	var out sessionColumnsOut
	var err error
	if out.scenario, err = nullableJSON(s.Scenario); err != nil {
		return out, fmt.Errorf("encoding scenario: %w", err)
	}
	if out.choices, err = nullableJSON(s.Choices); err != nil {
		return out, fmt.Errorf("encoding choices: %w", err)
	}
	if out.answer, err = nullableJSON(toAnswerRecord(s.Answer)); err != nil {
		return out, fmt.Errorf("encoding answer: %w", err)
	}
	if out.feedback, err = nullableJSON(s.Feedback); err != nil {
		return out, fmt.Errorf("encoding feedback: %w", err)
	}
	return out, nil
}

func (r *SQLiteSessionRepo) Create(ctx context.Context, s *domain.TrainingSession) error {
	cols, err := encodeSubObjects(s)
	if err != nil {
		return err
	}
	query := `INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		s.ID,
		formatTime(s.CreatedAt),
		formatTime(s.UpdatedAt),
		string(s.State),
		s.Interface,
		s.ModelUsed,
		nullableStringToValue(s.UserID),
		cols.scenario,
		cols.choices,
		cols.answer,
		cols.feedback,
		nullableDurationToValue(s.TimeToChoice),
		nullableDurationToValue(s.TimeToExplanation),
		nullableDurationToValue(s.TotalSessionTime),
		s.ErrorMessage,
		s.ErrorCount,
		s.Version,
	)
	if err != nil {
		return fmt.Errorf("inserting training session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepo) GetByID(ctx context.Context, id string) (*domain.TrainingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE session_id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return r.scanSession(row)
}

func (r *SQLiteSessionRepo) Update(ctx context.Context, s *domain.TrainingSession) error {
	cols, err := encodeSubObjects(s)
	if err != nil {
		return err
	}
	query := `UPDATE sessions SET
		updated_at = ?, state = ?, model_used = ?, scenario = ?, choices = ?,
		user_answer = ?, feedback = ?, time_to_choice = ?,
		time_to_explanation = ?, total_session_time = ?,
		error_message = ?, error_count = ?, version = version + 1
		WHERE session_id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, query,
		formatTime(s.UpdatedAt),
		string(s.State),
		s.ModelUsed,
		cols.scenario,
		cols.choices,
		cols.answer,
		cols.feedback,
		nullableDurationToValue(s.TimeToChoice),
		nullableDurationToValue(s.TimeToExplanation),
		nullableDurationToValue(s.TotalSessionTime),
		s.ErrorMessage,
		s.ErrorCount,
		s.ID,
		s.Version,
	)
	if err != nil {
		return fmt.Errorf("updating training session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating training session: %w", err)
	}
	if n == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE session_id = ?`, s.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking training session: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("training session %s: %w", s.ID, ErrNotFound)
		}
		return fmt.Errorf("training session %s at version %d: %w", s.ID, s.Version, ErrConflict)
	}
	s.Version++
	return nil
}

func (r *SQLiteSessionRepo) List(ctx context.Context, filter domain.SessionFilter, limit, offset int) ([]domain.SessionSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE 1=1`
	var args []any
	if filter.UserID != nil {
		query += ` AND user_id = ?`
		args = append(args, *filter.UserID)
	}
	if filter.State != nil {
		query += ` AND state = ?`
		args = append(args, string(*filter.State))
	}
	query += ` ORDER BY created_at DESC, session_id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing training sessions: %w", err)
	}
	defer rows.Close()

	sessions, err := r.scanSessions(rows)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, summarize(s))
	}
	return summaries, nil
}

func summarize(s *domain.TrainingSession) domain.SessionSummary {
	sum := domain.SessionSummary{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		State:     s.State,
		Interface: s.Interface,
		TotalTime: s.TotalSessionTime,
	}
	if s.Answer != nil {
		c := s.Answer.Choice
		sum.UserChoice = &c
	}
	if s.Choices != nil {
		rec := s.Choices.Recommended()
		sum.RecommendedChoice = &rec
		if correct, known := s.ChoiceCorrect(); known {
			sum.ChoiceCorrect = &correct
		}
	}
	return sum
}

func (r *SQLiteSessionRepo) UserPerformance(ctx context.Context, userID string) (*domain.UserPerformance, error) {
	var (
		total, completed, abandoned int
		avg                         sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COUNT(CASE WHEN state = 'completed' THEN 1 END),
			COUNT(CASE WHEN state = 'abandoned' THEN 1 END),
			AVG(CASE WHEN state = 'completed' THEN total_session_time END)
		FROM sessions WHERE user_id = ?`, userID).Scan(&total, &completed, &abandoned, &avg)
	if err != nil {
		return nil, fmt.Errorf("user performance counts: %w", err)
	}
	if total == 0 {
		return nil, fmt.Errorf("user performance for %s: %w", userID, ErrNotFound)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT user_answer, choices FROM sessions
		WHERE user_id = ? AND state = 'completed'
		  AND user_answer IS NOT NULL AND choices IS NOT NULL`, userID)
	if err != nil {
		return nil, fmt.Errorf("user performance answers: %w", err)
	}
	defer rows.Close()

	var correct, answered int
	for rows.Next() {
		var answerStr, choicesStr sql.NullString
		if err := rows.Scan(&answerStr, &choicesStr); err != nil {
			return nil, fmt.Errorf("scanning answer row: %w", err)
		}
		rec, err := parseNullableJSON[answerRecord](answerStr)
		if err != nil {
			return nil, fmt.Errorf("decoding answer: %w", err)
		}
		answer, err := rec.toDomain()
		if err != nil {
			return nil, fmt.Errorf("decoding answer: %w", err)
		}
		choices, err := parseNullableJSON[domain.Choices](choicesStr)
		if err != nil {
			return nil, fmt.Errorf("decoding choices: %w", err)
		}
		if answer == nil || choices == nil {
			continue
		}
		answered++
		if int(answer.Choice) == choices.Recommend {
			correct++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating answers: %w", err)
	}

	perf := &domain.UserPerformance{
		UserID:    userID,
		Total:     total,
		Completed: completed,
		Abandoned: abandoned,
	}
	if avg.Valid {
		perf.AverageDuration = time.Duration(avg.Float64 * float64(time.Second))
	}
	if answered > 0 {
		perf.ChoiceAccuracy = float64(correct) / float64(answered)
	}
	return perf, nil
}

func (r *SQLiteSessionRepo) SystemAnalytics(ctx context.Context) (*domain.SystemAnalytics, error) {
	var (
		total, completed int
		avg              sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COUNT(CASE WHEN state = 'completed' THEN 1 END),
			AVG(CASE WHEN state = 'completed' THEN total_session_time END)
		FROM sessions`).Scan(&total, &completed, &avg)
	if err != nil {
		return nil, fmt.Errorf("system analytics counts: %w", err)
	}

	out := &domain.SystemAnalytics{
		Total:              total,
		AbandonmentByState: map[domain.SessionState]int{},
		PopularChoices:     map[string]int{},
	}
	if total > 0 {
		out.CompletionRate = float64(completed) / float64(total)
	}
	if avg.Valid {
		out.AverageDuration = time.Duration(avg.Float64 * float64(time.Second))
	}

	rows, err := r.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM sessions
		WHERE state IN ('created', 'scenario_generated', 'option_selected', 'abandoned')
		GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("abandonment points: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("scanning abandonment row: %w", err)
		}
		out.AbandonmentByState[domain.SessionState(state)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating abandonment rows: %w", err)
	}

	choiceRows, err := r.db.QueryContext(ctx, `SELECT json_extract(user_answer, '$.choice'), COUNT(*)
		FROM sessions WHERE user_answer IS NOT NULL GROUP BY 1`)
	if err != nil {
		return nil, fmt.Errorf("popular choices: %w", err)
	}
	defer choiceRows.Close()
	for choiceRows.Next() {
		var letter sql.NullString
		var n int
		if err := choiceRows.Scan(&letter, &n); err != nil {
			return nil, fmt.Errorf("scanning choice row: %w", err)
		}
		if letter.Valid && letter.String != "" {
			out.PopularChoices[letter.String] += n
		}
	}
	if err := choiceRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating choice rows: %w", err)
	}
	return out, nil
}

func (r *SQLiteSessionRepo) MarkStaleAbandoned(ctx context.Context, cutoff, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions
		SET state = 'abandoned', error_message = 'Session timed out',
		    updated_at = ?, version = version + 1
		WHERE state NOT IN ('completed', 'abandoned', 'error')
		  AND updated_at < ?`,
		formatTime(now), formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("abandoning stale sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("abandoning stale sessions: %w", err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSession scans a single session from a *sql.Row.
func (r *SQLiteSessionRepo) scanSession(row *sql.Row) (*domain.TrainingSession, error) {
	s, err := r.scanInto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("training session: %w", ErrNotFound)
		}
		return nil, err
	}
	return s, nil
}

// scanSessions scans multiple sessions from *sql.Rows.
func (r *SQLiteSessionRepo) scanSessions(rows *sql.Rows) ([]*domain.TrainingSession, error) {
	var sessions []*domain.TrainingSession
	for rows.Next() {
		s, err := r.scanInto(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating training sessions: %w", err)
	}
	return sessions, nil
}

func (r *SQLiteSessionRepo) scanInto(row rowScanner) (*domain.TrainingSession, error) {
	var (
		s                                   domain.TrainingSession
		createdAtStr, updatedAtStr, state   string
		userID, errMsg                      sql.NullString
		scenario, choices, answer, feedback sql.NullString
		ttc, tte, total                     sql.NullFloat64
		errCount                            sql.NullInt64
	)
	err := row.Scan(
		&s.ID, &createdAtStr, &updatedAtStr, &state, &s.Interface, &s.ModelUsed, &userID,
		&scenario, &choices, &answer, &feedback,
		&ttc, &tte, &total,
		&errMsg, &errCount, &s.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning training session: %w", err)
	}
	s.State = domain.SessionState(state)
	s.UserID = parseNullableString(userID)
	s.ErrorMessage = errMsg.String
	s.ErrorCount = int(errCount.Int64)
	s.TimeToChoice = parseNullableDuration(ttc)
	s.TimeToExplanation = parseNullableDuration(tte)
	s.TotalSessionTime = parseNullableDuration(total)

	return r.populateSession(&s, createdAtStr, updatedAtStr, scenario, choices, answer, feedback)
}

// populateSession fills in parsed fields after scanning raw strings.
func (r *SQLiteSessionRepo) populateSession(s *domain.TrainingSession, createdAtStr, updatedAtStr string, scenario, choices, answer, feedback sql.NullString) (*domain.TrainingSession, error) {
	var err error
	if s.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if s.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if s.Scenario, err = parseNullableJSON[domain.Scenario](scenario); err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}
	if s.Choices, err = parseNullableJSON[domain.Choices](choices); err != nil {
		return nil, fmt.Errorf("decoding choices: %w", err)
	}
	rec, err := parseNullableJSON[answerRecord](answer)
	if err != nil {
		return nil, fmt.Errorf("decoding answer: %w", err)
	}
	if s.Answer, err = rec.toDomain(); err != nil {
		return nil, fmt.Errorf("decoding answer: %w", err)
	}
	if s.Feedback, err = parseNullableJSON[domain.Feedback](feedback); err != nil {
		return nil, fmt.Errorf("decoding feedback: %w", err)
	}
	return s, nil
}
