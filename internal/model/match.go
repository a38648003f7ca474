package model

import "time"

// MatchRecord represents a discovered candidate pairing between a lost and a
// found item. It is an audit record and does not imply resolution.
//
// Identity is the unordered pair of item IDs, so re-running the matcher for
// either side of a pair never produces a duplicate record.
type MatchRecord struct {
	ID              int64     `json:"id"`
	SourceItemID    int64     `json:"source_item_id"`
	CandidateItemID int64     `json:"candidate_item_id"`
	Notified        bool      `json:"notified"`
	CreatedAt       time.Time `json:"created_at"`
}

// ResolutionRecord represents a confirmed pairing between a lost and a found
// item, created when an owner resolves their item against a counterpart.
type ResolutionRecord struct {
	ID             int64     `json:"id"`
	ItemID         int64     `json:"item_id"`
	MatchedItemID  int64     `json:"matched_item_id"`
	ResolutionType string    `json:"resolution_type"`
	ResolvedBy     int64     `json:"resolved_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// Stats holds aggregate item counts for the dashboard.
type Stats struct {
	TotalItems    int     `json:"total_items"`
	LostItems     int     `json:"lost_items"`
	FoundItems    int     `json:"found_items"`
	ResolvedItems int     `json:"resolved_items"`
	UserItems     int     `json:"user_items"`
	SuccessRate   float64 `json:"success_rate"`
}
