// Package events publishes session state transitions to interested
// listeners outside the process.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/alexanderramin/pistemind/internal/domain"
)

// Transition is the message published after a session change commits.
type Transition struct {
	SessionID string              `json:"session_id"`
	From      domain.SessionState `json:"from"`
	To        domain.SessionState `json:"to"`
	Op        string              `json:"op"`
	Version   int                 `json:"version"`
	At        time.Time           `json:"at"`
	Error     string              `json:"error,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, t Transition) error
	Close() error
}

// Subscriber receives published transitions until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, onMsg func(Transition)) error
}

// Noop drops every transition.
type Noop struct{}

func (Noop) Publish(context.Context, Transition) error { return nil }
func (Noop) Close() error                              { return nil }

// Recorder keeps transitions in memory, in publish order.
type Recorder struct {
	mu   sync.Mutex
	msgs []Transition
	// Err, when set, is returned from every Publish.
	Err error
}

func (r *Recorder) Publish(_ context.Context, t Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.msgs = append(r.msgs, t)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Transitions returns a copy of everything published so far.
func (r *Recorder) Transitions() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Transition(nil), r.msgs...)
}
