package models

import "time"

type PasswordResetToken struct {
	ID        int        `json:"id"`
	UserID    int        `json:"user_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	User *User `json:"-"`
}

// Redeemable reports whether the token is unused and not yet expired at now.
func (t *PasswordResetToken) Redeemable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
