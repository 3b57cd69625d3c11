package domain

import "time"

// FreshnessWindow wraps the network-issued reference every operation must carry.
// Operations built with a window are rejected once the ledger height passes
// ExpiryHeight.
type FreshnessWindow struct {
	Reference    string    `json:"reference"`
	ExpiryHeight uint64    `json:"expiry_height"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// IsValid reports whether the window is still accepted at currentHeight.
func (w FreshnessWindow) IsValid(currentHeight uint64) bool {
	return currentHeight <= w.ExpiryHeight
}

// Age returns how long ago the window was fetched.
func (w FreshnessWindow) Age(now time.Time) time.Duration {
	return now.Sub(w.FetchedAt)
}

// IsZero reports whether no window has been fetched.
func (w FreshnessWindow) IsZero() bool {
	return w.Reference == ""
}
