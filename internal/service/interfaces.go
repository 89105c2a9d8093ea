package service

import (
	"context"
	"time"

	"github.com/alexanderramin/pistemind/internal/domain"
)

// DefaultStaleAfter is the inactivity threshold for CleanupStale.
const DefaultStaleAfter = 24 * time.Hour

// CreateSessionRequest describes a new training session.
type CreateSessionRequest struct {
	Interface string
	// Model overrides the gateway's model name in the session record.
	Model  string
	UserID *string
}

// SessionService drives training sessions through their lifecycle.
// Every operation on an unknown id fails with ErrSessionNotFound, and
// every precondition failure is a *SessionStateError that leaves the
// session untouched.
type SessionService interface {
	Create(ctx context.Context, req CreateSessionRequest) (*domain.TrainingSession, error)
	GetOrCreate(ctx context.Context, id string, req CreateSessionRequest) (*domain.TrainingSession, error)
	Get(ctx context.Context, id string) (*domain.TrainingSession, error)

	GenerateScenario(ctx context.Context, id string) (*domain.TrainingSession, error)
	RecordChoice(ctx context.Context, id string, choice domain.Choice) (*domain.TrainingSession, error)
	RecordExplanation(ctx context.Context, id string, explanation string) (*domain.TrainingSession, error)
	GenerateFeedback(ctx context.Context, id string) (*domain.TrainingSession, error)
	Complete(ctx context.Context, id string) (*domain.TrainingSession, error)
	Abandon(ctx context.Context, id string, reason string) (*domain.TrainingSession, error)

	List(ctx context.Context, filter domain.SessionFilter, limit, offset int) ([]domain.SessionSummary, error)
	UserPerformance(ctx context.Context, userID string) (*domain.UserPerformance, error)
	SystemAnalytics(ctx context.Context) (*domain.SystemAnalytics, error)
	Events(ctx context.Context, id string) ([]domain.SessionEvent, error)

	// CleanupStale abandons non-terminal sessions idle for longer than
	// olderThan (DefaultStaleAfter when zero) and returns the count.
	CleanupStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// Presenter rewrites generated content for display. Stored content is
// never replaced by the edited version.
type Presenter interface {
	Challenge(ctx context.Context, sess *domain.TrainingSession) (domain.Challenge, error)
	Feedback(ctx context.Context, sess *domain.TrainingSession) (domain.Feedback, error)
}
