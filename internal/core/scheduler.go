package core

// scheduler.go provides background maintenance for the session store.
//
// The janitor runs periodically to evict sessions that have been idle for
// longer than the configured TTL. It is long-running and context-aware for
// graceful shutdown, and logs each sweep without failing the application.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often the janitor runs when unset.
const DefaultSweepInterval = 5 * time.Minute

// StartSessionJanitor evicts idle sessions every interval until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (s *Service) StartSessionJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("session janitor started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			s.runSweep()
		}
	}
}

// runSweep performs one eviction pass.
func (s *Service) runSweep() {
	start := time.Now()
	removed := s.sessions.Sweep()
	live := s.sessions.Len()
	s.recorder.SessionsActive(live)

	if removed > 0 {
		slog.Info("evicted idle sessions",
			"evicted", removed,
			"active", live,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	} else {
		slog.Debug("session sweep completed", "active", live)
	}
}
