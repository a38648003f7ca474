package model

import "time"

// User represents an account that can report items and receive notifications.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// DeviceToken is a push-notification destination registered by one of a
// user's devices. A user holds a set of tokens; registering the same token
// twice is a no-op.
type DeviceToken struct {
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
