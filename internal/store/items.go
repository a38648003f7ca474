package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

const itemColumns = `id, owner_id, type, category, title, description, latitude, longitude,
	photo_mime, is_resolved, resolution_type, linked_item_id, created_at, updated_at, resolved_at`

// sqliteTime is the layout CURRENT_TIMESTAMP uses, so Go-side cutoffs compare
// correctly against store-assigned timestamps.
const sqliteTime = "2006-01-02 15:04:05"

type itemScanner interface {
	Scan(dest ...any) error
}

func scanItem(s itemScanner) (*model.Item, error) {
	item := &model.Item{}
	var description, photoMime sql.NullString
	err := s.Scan(&item.ID, &item.OwnerID, &item.Type, &item.Category, &item.Title,
		&description, &item.Latitude, &item.Longitude, &photoMime,
		&item.IsResolved, &item.ResolutionType, &item.LinkedItemID,
		&item.CreatedAt, &item.UpdatedAt, &item.ResolvedAt)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.PhotoMime = photoMime.String
	return item, nil
}

// CreateItem creates a new lost or found item report.
func CreateItem(ctx context.Context, db *sql.DB, ownerID int64, itemType, category, title, description string, lat, lon float64) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (owner_id, type, category, title, description, latitude, longitude)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ownerID, itemType, category, title, description, lat, lon,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items, optionally filtered by type, category, or owner.
// Zero values for the filters mean no filtering.
func ListItems(ctx context.Context, db *sql.DB, itemType, category string, ownerID int64) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []any
	if itemType != "" {
		query += ` AND type = ?`
		args = append(args, itemType)
	}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if ownerID != 0 {
		query += ` AND owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// ListOpenCandidates returns all unresolved items of the given type and
// category in creation order. This is the matcher's candidate query; distance
// and ownership filtering happen in the caller.
func ListOpenCandidates(ctx context.Context, db *sql.DB, itemType, category string) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE type = ? AND is_resolved = 0 AND category = ?
		 ORDER BY created_at`,
		itemType, category,
	)
	if err != nil {
		return nil, fmt.Errorf("listing open candidates: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ResolveItem transitions an item to resolved in a single transaction.
//
// The caller must own the item and the item must still be open; the update
// is guarded with a compare-and-swap on is_resolved so concurrent resolve
// calls cannot both succeed. If matchID references an existing item, that
// counterpart is also transitioned (guarded, tolerated if already resolved)
// and one resolution record is written. A missing counterpart is silently
// skipped. The resolved counterpart is returned so the caller can notify its
// owner after commit; it is nil when no counterpart was involved.
func ResolveItem(ctx context.Context, db *sql.DB, callerID, itemID int64, matchID *int64, resolutionType string) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning resolve transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, itemID,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	if item.OwnerID != callerID {
		return nil, ErrNotOwner
	}
	if item.IsResolved {
		return nil, ErrAlreadyResolved
	}

	var linked any
	if matchID != nil {
		linked = *matchID
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE items SET is_resolved = 1, resolution_type = ?, linked_item_id = ?,
		        resolved_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND is_resolved = 0`,
		resolutionType, linked, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("resolving item: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("resolving item: %w", err)
	} else if n == 0 {
		// Lost the race against a concurrent resolve.
		return nil, ErrAlreadyResolved
	}

	var counterpart *model.Item
	if matchID != nil {
		row := tx.QueryRowContext(ctx,
			`SELECT `+itemColumns+` FROM items WHERE id = ?`, *matchID,
		)
		counterpart, err = scanItem(row)
		if err == sql.ErrNoRows {
			// Referenced counterpart no longer exists; resolve the
			// primary item alone.
			counterpart = nil
		} else if err != nil {
			return nil, fmt.Errorf("getting counterpart item: %w", err)
		}
	}

	if counterpart != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE items SET is_resolved = 1, resolution_type = ?, linked_item_id = ?,
			        resolved_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND is_resolved = 0`,
			model.ResolutionMatched, itemID, counterpart.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("resolving counterpart item: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO resolutions (item_id, matched_item_id, resolution_type, resolved_by)
			 VALUES (?, ?, ?, ?)`,
			itemID, counterpart.ID, resolutionType, callerID,
		)
		if err != nil {
			return nil, fmt.Errorf("creating resolution record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing resolve transaction: %w", err)
	}
	return counterpart, nil
}

// ExpireItemsBefore marks all unresolved items created before the cutoff as
// expired, in one atomic statement. Returns the number of expired items.
func ExpireItemsBefore(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET is_resolved = 1, resolution_type = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE is_resolved = 0 AND created_at < ?`,
		model.ResolutionExpired, cutoff.UTC().Format(sqliteTime),
	)
	if err != nil {
		return 0, fmt.Errorf("expiring items: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expiring items: %w", err)
	}
	return n, nil
}

// SetItemPhoto sets an item's photo data.
func SetItemPhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item photo: %w", err)
	}
	return nil
}

// GetItemPhoto returns an item's photo data and MIME type.
func GetItemPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM items WHERE id = ?`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return photo, mime.String, nil
}
