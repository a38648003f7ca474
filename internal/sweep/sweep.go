// Package sweep expires stale unresolved items on a fixed schedule.
package sweep

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/erazemk/najdeno/internal/store"
)

// RetentionPeriod is how long an unresolved item stays open before the
// sweeper expires it.
const RetentionPeriod = 90 * 24 * time.Hour

// DefaultInterval is how often the sweeper runs.
const DefaultInterval = 24 * time.Hour

// Sweeper transitions unresolved items older than the retention period to
// the expired state.
type Sweeper struct {
	DB        *sql.DB
	Retention time.Duration
}

// New creates a sweeper with the default retention period.
func New(db *sql.DB) *Sweeper {
	return &Sweeper{DB: db, Retention: RetentionPeriod}
}

// Run performs one sweep: all unresolved items created before now minus the
// retention period are expired in one atomic batch. Returns the number of
// expired items.
func (s *Sweeper) Run(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.Retention)
	n, err := store.ExpireItemsBefore(ctx, s.DB, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("expired stale items", "count", n, "cutoff", cutoff.Format(time.RFC3339))
	}
	return n, nil
}

// Start runs the sweeper once immediately and then on every tick of the
// interval until the context is cancelled. Failures are logged and the loop
// keeps going; the next tick retries naturally.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	if _, err := s.Run(ctx); err != nil {
		slog.Error("retention sweep failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil {
				slog.Error("retention sweep failed", "error", err)
			}
		}
	}
}
