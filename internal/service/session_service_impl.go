package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/pistemind/internal/db"
	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/events"
	"github.com/alexanderramin/pistemind/internal/intelligence"
	"github.com/alexanderramin/pistemind/internal/logging"
	"github.com/alexanderramin/pistemind/internal/prompt"
	"github.com/alexanderramin/pistemind/internal/repository"
	"github.com/alexanderramin/pistemind/internal/tactics"
)

// Temperatures are the sampling temperatures passed to the gateway.
type Temperatures struct {
	Scenario float64
	Choices  float64
	Feedback float64
}

// DefaultTemperatures returns the gateway defaults.
func DefaultTemperatures() Temperatures {
	return Temperatures{
		Scenario: intelligence.ScenarioTemperature,
		Choices:  intelligence.ChoicesTemperature,
		Feedback: intelligence.FeedbackTemperature,
	}
}

// errorStateTimeout bounds the write that records a failed generation.
const errorStateTimeout = 5 * time.Second

type sessionService struct {
	sessions  repository.SessionRepo
	eventLog  repository.EventRepo
	uow       db.UnitOfWork
	gateway   intelligence.Gateway
	prompts   *prompt.Loader
	sampler   *tactics.Sampler
	publisher events.Publisher
	observer  UseCaseObserver
	log       *logging.Logger
	now       func() time.Time
	temps     Temperatures
}

// Option configures a SessionService.
type Option func(*sessionService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *sessionService) { s.now = now }
}

func WithSampler(sampler *tactics.Sampler) Option {
	return func(s *sessionService) { s.sampler = sampler }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *sessionService) { s.publisher = p }
}

func WithObservers(observers ...UseCaseObserver) Option {
	return func(s *sessionService) { s.observer = useCaseObserverOrNoop(observers) }
}

func WithLogger(log *logging.Logger) Option {
	return func(s *sessionService) { s.log = log }
}

func WithTemperatures(t Temperatures) Option {
	return func(s *sessionService) { s.temps = t }
}

// NewSessionService builds the session state machine. Writes run inside
// uow with SQLite repositories bound to the transaction.
func NewSessionService(
	sessions repository.SessionRepo,
	eventLog repository.EventRepo,
	uow db.UnitOfWork,
	gateway intelligence.Gateway,
	prompts *prompt.Loader,
	opts ...Option,
) SessionService {
	s := &sessionService{
		sessions:  sessions,
		eventLog:  eventLog,
		uow:       uow,
		gateway:   gateway,
		prompts:   prompts,
		sampler:   tactics.NewSampler(),
		publisher: events.Noop{},
		observer:  NoopUseCaseObserver{},
		log:       logging.Nop(),
		now:       time.Now,
		temps:     DefaultTemperatures(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *sessionService) observe(ctx context.Context, name string, start time.Time, err error, fields map[string]any) {
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		Duration:  time.Since(start),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
		StartedAt: start,
	})
}

// stamp returns the service clock, never earlier than the session's
// last update.
func (s *sessionService) stamp(sess *domain.TrainingSession) time.Time {
	now := s.now().UTC()
	if now.Before(sess.UpdatedAt) {
		return sess.UpdatedAt
	}
	return now
}

func (s *sessionService) load(ctx context.Context, id string) (*domain.TrainingSession, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	return sess, nil
}

// change describes one persisted transition.
type change struct {
	op     string
	from   domain.SessionState
	kind   domain.EventType
	extra  map[string]any
	create bool
}

// commit writes sess and its event atomically, then publishes the
// transition. Publish failures are logged, the write already stands.
func (s *sessionService) commit(ctx context.Context, sess *domain.TrainingSession, c change) error {
	data := map[string]any{
		"op":   c.op,
		"from": string(c.from),
		"to":   string(sess.State),
	}
	for k, v := range c.extra {
		data[k] = v
	}

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sessions := repository.NewSQLiteSessionRepo(tx)
		if c.create {
			if err := sessions.Create(ctx, sess); err != nil {
				return err
			}
		} else if err := sessions.Update(ctx, sess); err != nil {
			return err
		}
		return repository.NewSQLiteEventRepo(tx).Append(ctx, &domain.SessionEvent{
			SessionID: sess.ID,
			Timestamp: sess.UpdatedAt,
			Type:      c.kind,
			Data:      data,
		})
	})
	if err != nil {
		return fmt.Errorf("saving session %s: %w", sess.ID, err)
	}

	t := events.Transition{
		SessionID: sess.ID,
		From:      c.from,
		To:        sess.State,
		Op:        c.op,
		Version:   sess.Version,
		At:        sess.UpdatedAt,
		Error:     sess.ErrorMessage,
	}
	if err := s.publisher.Publish(ctx, t); err != nil {
		s.log.Warn("publishing transition failed", "session_id", sess.ID, "op", c.op, "error", err)
	}
	return nil
}

// fail moves sess to ERROR after a generation failure and returns the
// error for the caller. A canceled caller leaves the session as it was.
func (s *sessionService) fail(ctx context.Context, sess *domain.TrainingSession, op, what string, cause error) error {
	wrapped := fmt.Errorf("failed to generate %s: %w", what, cause)
	if ctx.Err() != nil {
		return wrapped
	}

	from := sess.State
	sess.UpdatedAt = s.stamp(sess)
	sess.State = domain.StateError
	sess.ErrorMessage = cause.Error()
	sess.ErrorCount++

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), errorStateTimeout)
	defer cancel()
	if err := s.commit(writeCtx, sess, change{op: op, from: from, kind: domain.EventError, extra: map[string]any{"error": cause.Error()}}); err != nil {
		return errors.Join(wrapped, fmt.Errorf("recording error state: %w", err))
	}
	return wrapped
}

func (s *sessionService) Create(ctx context.Context, req CreateSessionRequest) (sess *domain.TrainingSession, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "create_session", start, err, nil) }()

	iface := req.Interface
	if iface == "" {
		iface = domain.InterfaceCLI
	}
	model := req.Model
	if model == "" {
		model = s.gateway.Model()
	}
	now := s.now().UTC()
	sess = &domain.TrainingSession{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
		State:     domain.StateCreated,
		Interface: iface,
		ModelUsed: model,
	}
	if req.UserID != nil {
		uid := *req.UserID
		sess.UserID = &uid
	}
	if err := s.commit(ctx, sess, change{op: "create", kind: domain.EventStateChange, create: true}); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *sessionService) GetOrCreate(ctx context.Context, id string, req CreateSessionRequest) (*domain.TrainingSession, error) {
	if id != "" {
		sess, err := s.load(ctx, id)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
	}
	return s.Create(ctx, req)
}

func (s *sessionService) Get(ctx context.Context, id string) (*domain.TrainingSession, error) {
	return s.load(ctx, id)
}

func (s *sessionService) GenerateScenario(ctx context.Context, id string) (sess *domain.TrainingSession, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "generate_scenario", start, err, map[string]any{"session_id": id}) }()

	sess, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireState(sess, "generate scenario", domain.StateCreated); err != nil {
		return nil, err
	}

	scenarioPrompt, err := s.prompts.Render(prompt.Scenario, map[string]any{
		"Context": tactics.Format(s.sampler.Sample()),
	})
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	scenario, err := s.gateway.GenerateScenario(ctx, scenarioPrompt, s.temps.Scenario)
	if err != nil {
		return nil, s.fail(ctx, sess, "generate_scenario", "scenario", err)
	}

	choicesPrompt, err := s.prompts.Render(prompt.Choices, map[string]any{
		"Scenario": scenario.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	choices, err := s.gateway.GenerateChoices(ctx, choicesPrompt, s.temps.Choices)
	if err != nil {
		return nil, s.fail(ctx, sess, "generate_scenario", "choices", err)
	}

	from := sess.State
	sess.UpdatedAt = s.stamp(sess)
	sess.State = domain.StateScenarioGenerated
	sess.Scenario = &scenario
	sess.Choices = &choices
	if err := s.commit(ctx, sess, change{op: "generate_scenario", from: from, kind: domain.EventStateChange}); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *sessionService) RecordChoice(ctx context.Context, id string, choice domain.Choice) (sess *domain.TrainingSession, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "record_choice", start, err, map[string]any{"session_id": id}) }()

	sess, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireState(sess, "record choice", domain.StateScenarioGenerated); err != nil {
		return nil, err
	}
	if err := (domain.Answer{Choice: choice}).ValidateChoice(); err != nil {
		return nil, err
	}

	from := sess.State
	now := s.stamp(sess)
	ttc := now.Sub(sess.UpdatedAt)
	if sess.Answer == nil {
		sess.Answer = &domain.Answer{}
	}
	sess.Answer.Choice = choice
	sess.TimeToChoice = &ttc
	sess.UpdatedAt = now
	sess.State = domain.StateOptionSelected
	if err := s.commit(ctx, sess, change{
		op: "record_choice", from: from, kind: domain.EventStateChange,
		extra: map[string]any{"choice": choice.Letter()},
	}); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *sessionService) RecordExplanation(ctx context.Context, id string, explanation string) (sess *domain.TrainingSession, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "record_explanation", start, err, map[string]any{"session_id": id}) }()

	sess, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireState(sess, "record explanation", domain.StateOptionSelected); err != nil {
		return nil, err
	}
	if sess.Answer == nil {
		return nil, missing(id, "answer")
	}
	if err := domain.ValidateExplanation(explanation); err != nil {
		return nil, err
	}

	from := sess.State
	now := s.stamp(sess)
	tte := now.Sub(sess.UpdatedAt)
	sess.Answer.Explanation = explanation
	sess.TimeToExplanation = &tte
	sess.UpdatedAt = now
	sess.State = domain.StateExplanationProvided
	if err := s.commit(ctx, sess, change{op: "record_explanation", from: from, kind: domain.EventStateChange}); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *sessionService) GenerateFeedback(ctx context.Context, id string) (sess *domain.TrainingSession, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "generate_feedback", start, err, map[string]any{"session_id": id}) }()

	sess, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireState(sess, "generate feedback", domain.StateExplanationProvided); err != nil {
		return nil, err
	}
	switch {
	case sess.Scenario == nil:
		return nil, missing(id, "scenario")
	case sess.Choices == nil:
		return nil, missing(id, "choices")
	case sess.Answer == nil:
		return nil, missing(id, "answer")
	}

	feedbackPrompt, err := s.prompts.Render(prompt.Feedback, map[string]any{
		"Scenario":  sess.Scenario.Text,
		"Options":   sess.Choices.Options,
		"Recommend": sess.Choices.Recommend,
		"Answer":    *sess.Answer,
	})
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	feedback, err := s.gateway.GenerateFeedback(ctx, feedbackPrompt, s.temps.Feedback)
	if err != nil {
		return nil, s.fail(ctx, sess, "generate_feedback", "feedback", err)
	}

	from := sess.State
	var total time.Duration
	if sess.TimeToChoice != nil {
		total += *sess.TimeToChoice
	}
	if sess.TimeToExplanation != nil {
		total += *sess.TimeToExplanation
	}
	sess.UpdatedAt = s.stamp(sess)
	sess.State = domain.StateFeedbackGenerated
	sess.Feedback = &feedback
	sess.TotalSessionTime = &total
	if err := s.commit(ctx, sess, change{
		op: "generate_feedback", from: from, kind: domain.EventStateChange,
		extra: map[string]any{"total_score": feedback.Total()},
	}); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *sessionService) Complete(ctx context.Context, id string) (sess *domain.TrainingSession, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "complete_session", start, err, map[string]any{"session_id": id}) }()

	sess, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireState(sess, "complete", nonTerminal...); err != nil {
		return nil, err
	}
	from := sess.State
	if from != domain.StateFeedbackGenerated {
		s.log.Warn("completing session before feedback", "session_id", id, "state", from)
	}
	sess.UpdatedAt = s.stamp(sess)
	sess.State = domain.StateCompleted
	if err := s.commit(ctx, sess, change{op: "complete", from: from, kind: domain.EventStateChange}); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *sessionService) Abandon(ctx context.Context, id string, reason string) (sess *domain.TrainingSession, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "abandon_session", start, err, map[string]any{"session_id": id}) }()

	sess, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireState(sess, "abandon", nonTerminal...); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "User abandoned"
	}
	from := sess.State
	sess.UpdatedAt = s.stamp(sess)
	sess.State = domain.StateAbandoned
	sess.ErrorMessage = reason
	if err := s.commit(ctx, sess, change{
		op: "abandon", from: from, kind: domain.EventStateChange,
		extra: map[string]any{"reason": reason},
	}); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *sessionService) List(ctx context.Context, filter domain.SessionFilter, limit, offset int) ([]domain.SessionSummary, error) {
	if offset < 0 {
		return nil, &domain.ValidationError{Field: "offset", Msg: "must not be negative"}
	}
	if filter.State != nil && !filter.State.Valid() {
		return nil, &domain.ValidationError{Field: "state", Msg: fmt.Sprintf("unknown state %q", *filter.State)}
	}
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}
	return s.sessions.List(ctx, filter, limit, offset)
}

func (s *sessionService) UserPerformance(ctx context.Context, userID string) (*domain.UserPerformance, error) {
	if userID == "" {
		return nil, &domain.ValidationError{Field: "user_id", Msg: "must not be empty"}
	}
	return s.sessions.UserPerformance(ctx, userID)
}

func (s *sessionService) SystemAnalytics(ctx context.Context) (*domain.SystemAnalytics, error) {
	return s.sessions.SystemAnalytics(ctx)
}

func (s *sessionService) Events(ctx context.Context, id string) ([]domain.SessionEvent, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	return s.eventLog.ListBySession(ctx, id)
}

func (s *sessionService) CleanupStale(ctx context.Context, olderThan time.Duration) (n int, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "cleanup_stale", start, err, map[string]any{"abandoned": n}) }()

	if olderThan <= 0 {
		olderThan = DefaultStaleAfter
	}
	now := s.now().UTC()
	return s.sessions.MarkStaleAbandoned(ctx, now.Add(-olderThan), now)
}
