package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/najdeno/internal/model"
)

// UpsertMatch records a discovered candidate pairing. The record's identity
// is the unordered pair of item IDs, so creation triggers that redeliver (or
// the same pair discovered from either side) never produce duplicates.
// Returns whether a new record was created.
func UpsertMatch(ctx context.Context, db *sql.DB, sourceItemID, candidateItemID int64, notified bool) (bool, error) {
	lo, hi := sourceItemID, candidateItemID
	if lo > hi {
		lo, hi = hi, lo
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO matches (item_lo, item_hi, source_item_id, candidate_item_id, notified)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (item_lo, item_hi) DO NOTHING`,
		lo, hi, sourceItemID, candidateItemID, notified,
	)
	if err != nil {
		return false, fmt.Errorf("recording match: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("recording match: %w", err)
	}
	return n > 0, nil
}

// ListMatchesForItem returns all match records involving an item, in
// creation order.
func ListMatchesForItem(ctx context.Context, db *sql.DB, itemID int64) ([]model.MatchRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, source_item_id, candidate_item_id, notified, created_at
		 FROM matches WHERE item_lo = ? OR item_hi = ?
		 ORDER BY created_at, id`,
		itemID, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	defer rows.Close()

	var records []model.MatchRecord
	for rows.Next() {
		var m model.MatchRecord
		if err := rows.Scan(&m.ID, &m.SourceItemID, &m.CandidateItemID, &m.Notified, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		records = append(records, m)
	}
	return records, rows.Err()
}

// ListResolutionsForItem returns resolution records involving an item.
func ListResolutionsForItem(ctx context.Context, db *sql.DB, itemID int64) ([]model.ResolutionRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, matched_item_id, resolution_type, resolved_by, created_at
		 FROM resolutions WHERE item_id = ? OR matched_item_id = ?
		 ORDER BY created_at, id`,
		itemID, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing resolutions: %w", err)
	}
	defer rows.Close()

	var records []model.ResolutionRecord
	for rows.Next() {
		var r model.ResolutionRecord
		if err := rows.Scan(&r.ID, &r.ItemID, &r.MatchedItemID, &r.ResolutionType, &r.ResolvedBy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning resolution: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
