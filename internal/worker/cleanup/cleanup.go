// Package cleanup sweeps expired login sessions out of the database.
//
// Sessions already stop working the moment they expire (the repositories
// never return an expired row); the sweeper only keeps the tables from
// growing without bound. It runs on a ticker inside the serve process
// and each sweep is idempotent.
package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// SessionStore deletes expired session rows and reports how many went.
type SessionStore interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically deletes expired staff and resident sessions.
type Sweeper struct {
	staffSessions    SessionStore
	residentSessions SessionStore
	logger           *slog.Logger
	interval         time.Duration
}

// NewSweeper creates a Sweeper that runs every interval.
func NewSweeper(staffSessions, residentSessions SessionStore, logger *slog.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		staffSessions:    staffSessions,
		residentSessions: residentSessions,
		logger:           logger,
		interval:         interval,
	}
}

// Run performs one sweep. A failure on one table does not stop the
// sweep of the other; the first error is returned after both ran.
func (s *Sweeper) Run(ctx context.Context) error {
	start := time.Now()

	staffDeleted, staffErr := s.staffSessions.DeleteExpired(ctx)
	if staffErr != nil {
		s.logger.Error("failed to sweep expired staff sessions",
			slog.String("error", staffErr.Error()),
		)
	}

	residentDeleted, residentErr := s.residentSessions.DeleteExpired(ctx)
	if residentErr != nil {
		s.logger.Error("failed to sweep expired resident sessions",
			slog.String("error", residentErr.Error()),
		)
	}

	if staffErr != nil {
		return staffErr
	}
	if residentErr != nil {
		return residentErr
	}

	s.logger.Info("session sweep completed",
		slog.Int64("staff_sessions_deleted", staffDeleted),
		slog.Int64("resident_sessions_deleted", residentDeleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start runs sweeps on the ticker until ctx is cancelled. Errors are
// logged by Run and otherwise ignored; the next tick tries again.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Run(ctx)
		}
	}
}
