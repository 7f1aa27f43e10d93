package model

import "time"

// Slot is a single persisted value owned by one client session.
type Slot struct {
	ID        int64
	SessionID string
	Key       string
	Value     []byte
	ExpiresAt time.Time
	CreatedAt time.Time
}
