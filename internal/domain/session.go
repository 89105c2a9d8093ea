package domain

import "time"

// TrainingSession is the aggregate root for one trainee interaction.
type TrainingSession struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	State     SessionState
	Interface string
	ModelUsed string
	UserID    *string

	Scenario *Scenario
	Choices  *Choices
	Answer   *Answer
	Feedback *Feedback

	TimeToChoice      *time.Duration
	TimeToExplanation *time.Duration
	TotalSessionTime  *time.Duration

	ErrorMessage string
	ErrorCount   int

	// Version increments on every persisted update.
	Version int
}

// ChoiceCorrect reports whether the recorded answer matches the
// recommendation. The second result is false when either is missing.
func (s *TrainingSession) ChoiceCorrect() (correct bool, known bool) {
	if s.Answer == nil || s.Choices == nil {
		return false, false
	}
	return int(s.Answer.Choice) == s.Choices.Recommend, true
}

// SessionFilter narrows session listings. Nil fields match everything.
type SessionFilter struct {
	UserID *string
	State  *SessionState
}

// SessionSummary is the lightweight listing row for a session.
type SessionSummary struct {
	ID                string
	CreatedAt         time.Time
	State             SessionState
	Interface         string
	UserChoice        *Choice
	RecommendedChoice *Choice
	ChoiceCorrect     *bool
	TotalTime         *time.Duration
}

// UserPerformance aggregates one user's sessions.
type UserPerformance struct {
	UserID          string
	Total           int
	Completed       int
	Abandoned       int
	AverageDuration time.Duration
	// ChoiceAccuracy is the fraction of completed sessions whose answer
	// matched the recommendation, in [0,1].
	ChoiceAccuracy float64
}

// SystemAnalytics aggregates every stored session.
type SystemAnalytics struct {
	Total              int
	CompletionRate     float64
	AverageDuration    time.Duration
	AbandonmentByState map[SessionState]int
	PopularChoices     map[string]int
}

// SessionEvent is one row of a session's audit log.
type SessionEvent struct {
	ID        string
	SessionID string
	Timestamp time.Time
	Type      EventType
	Data      map[string]any
}
