package store

import (
	"context"
	"database/sql"
	"fmt"
)

// RegisterDeviceToken adds a push-notification token to a user's token set.
// Registering the same token again is a no-op (set semantics).
func RegisterDeviceToken(ctx context.Context, db *sql.DB, userID int64, token string) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO device_tokens (user_id, token) VALUES (?, ?)`,
		userID, token,
	)
	if err != nil {
		return fmt.Errorf("registering device token: %w", err)
	}
	return nil
}

// GetDeviceTokens returns all push-notification tokens registered by a user.
func GetDeviceTokens(ctx context.Context, db *sql.DB, userID int64) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT token FROM device_tokens WHERE user_id = ? ORDER BY created_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scanning device token: %w", err)
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}
