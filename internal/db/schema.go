package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS device_tokens (
    user_id    INTEGER NOT NULL REFERENCES users(id),
    token      TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, token)
);

CREATE TABLE IF NOT EXISTS items (
    id              INTEGER PRIMARY KEY,
    owner_id        INTEGER NOT NULL REFERENCES users(id),
    type            TEXT NOT NULL CHECK (type IN ('lost', 'found')),
    category        TEXT NOT NULL,
    title           TEXT NOT NULL,
    description     TEXT,
    latitude        REAL NOT NULL,
    longitude       REAL NOT NULL,
    photo           BLOB,
    photo_mime      TEXT,
    is_resolved     INTEGER NOT NULL DEFAULT 0,
    resolution_type TEXT NOT NULL DEFAULT 'none'
                    CHECK (resolution_type IN ('none', 'matched', 'expired', 'other')),
    linked_item_id  INTEGER REFERENCES items(id),
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    resolved_at     DATETIME
);

CREATE INDEX IF NOT EXISTS idx_items_open_candidates
    ON items(type, category) WHERE is_resolved = 0;

CREATE TABLE IF NOT EXISTS matches (
    id                INTEGER PRIMARY KEY,
    item_lo           INTEGER NOT NULL REFERENCES items(id),
    item_hi           INTEGER NOT NULL REFERENCES items(id),
    source_item_id    INTEGER NOT NULL REFERENCES items(id),
    candidate_item_id INTEGER NOT NULL REFERENCES items(id),
    notified          INTEGER NOT NULL DEFAULT 0,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (item_lo, item_hi)
);

CREATE TABLE IF NOT EXISTS resolutions (
    id              INTEGER PRIMARY KEY,
    item_id         INTEGER NOT NULL REFERENCES items(id),
    matched_item_id INTEGER NOT NULL REFERENCES items(id),
    resolution_type TEXT NOT NULL,
    resolved_by     INTEGER NOT NULL REFERENCES users(id),
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
