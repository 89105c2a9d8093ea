package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/pistemind/internal/domain"
)

// DefaultListLimit caps session listings when no limit is given.
const DefaultListLimit = 50

type SessionRepo interface {
	Create(ctx context.Context, s *domain.TrainingSession) error
	GetByID(ctx context.Context, id string) (*domain.TrainingSession, error)
	// Update writes s if the stored version still equals s.Version, then
	// bumps s.Version. A stale version returns ErrConflict.
	Update(ctx context.Context, s *domain.TrainingSession) error
	List(ctx context.Context, filter domain.SessionFilter, limit, offset int) ([]domain.SessionSummary, error)
	UserPerformance(ctx context.Context, userID string) (*domain.UserPerformance, error)
	SystemAnalytics(ctx context.Context) (*domain.SystemAnalytics, error)
	// MarkStaleAbandoned abandons every non-terminal session last updated
	// before cutoff and returns how many changed.
	MarkStaleAbandoned(ctx context.Context, cutoff, now time.Time) (int, error)
}

type EventRepo interface {
	Append(ctx context.Context, e *domain.SessionEvent) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.SessionEvent, error)
}
