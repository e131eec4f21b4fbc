package models

import "time"

// UserRecord: запись хранилища учётных данных.
// Reset хранит только SHA-256 от выданного токена сброса, сам токен не сохраняется.
type UserRecord struct {
	Identity     Identity
	PasswordHash []byte
	Reset        *ResetGrant
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
