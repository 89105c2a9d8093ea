package service

import (
	"context"
	"time"

	"github.com/alexanderramin/pistemind/internal/logging"
)

// Sweeper periodically abandons sessions that have been idle too long.
type Sweeper struct {
	sessions  SessionService
	interval  time.Duration
	olderThan time.Duration
	log       *logging.Logger
}

func NewSweeper(sessions SessionService, interval, olderThan time.Duration, log *logging.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Sweeper{sessions: sessions, interval: interval, olderThan: olderThan, log: log.With("component", "sweeper")}
}

// Run sweeps once immediately, then on every tick until ctx is done.
// Sweep failures are logged and do not stop the loop.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.sweep(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.sessions.CleanupStale(ctx, s.olderThan)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error("stale sweep failed", "error", err)
		}
		return
	}
	if n > 0 {
		s.log.Info("abandoned stale sessions", "count", n)
	}
}
