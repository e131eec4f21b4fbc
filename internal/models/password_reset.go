package models

import "time"

// ResetGrant: состояние активного токена сброса пароля для SetResetToken.
// nil означает "токена нет".
type ResetGrant struct {
	Digest    string
	ExpiresAt time.Time
}

// Expired: нулевой ExpiresAt считается бессрочным.
func (g *ResetGrant) Expired(now time.Time) bool {
	return !g.ExpiresAt.IsZero() && !now.Before(g.ExpiresAt)
}
