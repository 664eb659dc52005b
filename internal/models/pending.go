package models

import (
	"time"
)

// PendingAction bridges a clock button press and the location reply (or
// decline) that completes it. It lives in process memory only and is lost
// on restart.
type PendingAction struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Action    Action    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (p *PendingAction) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
