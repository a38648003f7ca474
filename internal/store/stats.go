package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/erazemk/najdeno/internal/model"
)

// CountStats returns aggregate item counts plus the caller's own item count.
// The success rate is resolved / (lost + found) * 100, rounded to one
// decimal, or 0 when no items exist.
func CountStats(ctx context.Context, db *sql.DB, userID int64) (*model.Stats, error) {
	stats := &model.Stats{}

	counts := []struct {
		query string
		args  []any
		dest  *int
	}{
		{`SELECT COUNT(*) FROM items WHERE type = ?`, []any{model.TypeLost}, &stats.LostItems},
		{`SELECT COUNT(*) FROM items WHERE type = ?`, []any{model.TypeFound}, &stats.FoundItems},
		{`SELECT COUNT(*) FROM items WHERE is_resolved = 1`, nil, &stats.ResolvedItems},
		{`SELECT COUNT(*) FROM items WHERE owner_id = ?`, []any{userID}, &stats.UserItems},
	}
	for _, c := range counts {
		if err := db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("counting items: %w", err)
		}
	}

	stats.TotalItems = stats.LostItems + stats.FoundItems
	if stats.TotalItems > 0 {
		rate := float64(stats.ResolvedItems) / float64(stats.TotalItems) * 100
		stats.SuccessRate = math.Round(rate*10) / 10
	}
	return stats, nil
}
