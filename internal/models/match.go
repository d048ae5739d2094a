package models

import "time"

// Match kinds for wre_permit_matches. The address-containment fallback is
// low confidence and always flagged for manual review.
const (
	MatchExact   = "exact"
	MatchAddress = "address"
)

// WrePermitMatch links a WRE approval to a building permit. One row per
// (approval, permit, kind); re-running the matcher never duplicates rows.
type WrePermitMatch struct {
	ID       int64
	WreID    int64
	PermitID int64

	MatchType string
	RuleOK    bool
	Notes     string

	CreatedAt time.Time
}
