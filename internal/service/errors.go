package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/pistemind/internal/domain"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrMissingSessionData = errors.New("session is missing required data")
)

// SessionStateError reports an operation attempted from the wrong state.
type SessionStateError struct {
	SessionID string
	Op        string
	Current   domain.SessionState
	Required  []domain.SessionState
}

func (e *SessionStateError) Error() string {
	req := make([]string, len(e.Required))
	for i, s := range e.Required {
		req[i] = string(s)
	}
	return fmt.Sprintf("session %s: cannot %s in state %s (requires %s)",
		e.SessionID, e.Op, e.Current, strings.Join(req, " or "))
}

func requireState(sess *domain.TrainingSession, op string, allowed ...domain.SessionState) error {
	for _, s := range allowed {
		if sess.State == s {
			return nil
		}
	}
	return &SessionStateError{SessionID: sess.ID, Op: op, Current: sess.State, Required: allowed}
}

// nonTerminal lists every state from which abandon and complete apply.
var nonTerminal = []domain.SessionState{
	domain.StateCreated,
	domain.StateScenarioGenerated,
	domain.StateOptionSelected,
	domain.StateExplanationProvided,
	domain.StateFeedbackGenerated,
}

func missing(id, what string) error {
	return fmt.Errorf("session %s: %w: %s", id, ErrMissingSessionData, what)
}
