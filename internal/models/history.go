package models

import "time"

// QuickRecommendation is an optional single-suggestion shortcut: move budget
// from one platform to another for an expected ROAS gain. It has its own
// fetch and lifecycle, independent of the full health analysis.
type QuickRecommendation struct {
	FromPlatform     string  `json:"from_platform"`
	ToPlatform       string  `json:"to_platform"`
	Amount           float64 `json:"amount"`
	ExpectedROASGain float64 `json:"expected_roas_gain"`
	Message          string  `json:"message"`
}

// History entry statuses reported by the backend.
const (
	HistoryStatusApplied    = "applied"
	HistoryStatusPending    = "pending"
	HistoryStatusFailed     = "failed"
	HistoryStatusRolledBack = "rolled_back"
)

// HistoryEntry records a past reallocation action. Read-only; refreshed when
// the history tab activates or after a successful apply.
type HistoryEntry struct {
	ID           string    `json:"id"`
	FromPlatform string    `json:"from_platform"`
	ToPlatform   string    `json:"to_platform"`
	Amount       float64   `json:"amount"`
	Reason       string    `json:"reason"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
