package model

import "time"

// Item represents a reported lost or found object.
type Item struct {
	ID             int64      `json:"id"`
	OwnerID        int64      `json:"owner_id"`
	Type           string     `json:"type"`
	Category       string     `json:"category"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	PhotoMime      string     `json:"photo_mime,omitempty"`
	IsResolved     bool       `json:"is_resolved"`
	ResolutionType string     `json:"resolution_type"`
	LinkedItemID   *int64     `json:"linked_item_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// Item types.
const (
	TypeLost  = "lost"
	TypeFound = "found"
)

// Resolution types.
const (
	ResolutionNone    = "none"
	ResolutionMatched = "matched"
	ResolutionExpired = "expired"
	ResolutionOther   = "other"
)

// ValidType checks if t is a known item type.
func ValidType(t string) bool {
	return t == TypeLost || t == TypeFound
}

// OppositeType returns the counterpart type for matching: lost items are
// matched against found items and vice versa.
func OppositeType(t string) string {
	if t == TypeLost {
		return TypeFound
	}
	return TypeLost
}

// ValidResolution checks if rt is a resolution type a caller may set.
// ResolutionNone is the initial state, not a valid transition target.
func ValidResolution(rt string) bool {
	return rt == ResolutionMatched || rt == ResolutionExpired || rt == ResolutionOther
}
