package repository

import (
	"context"
	"errors"

	"sessionauth/internal/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// CredentialStore: граница с хранилищем пользователей. Каждый вызов атомарен.
// Промахи возвращаются как ErrNotFound/ErrAlreadyExists, всё остальное считается
// сбой хранилища, который выше не маскируется.
type CredentialStore interface {
	FindByIdentity(ctx context.Context, identity models.Identity) (*models.UserRecord, error)
	Create(ctx context.Context, identity models.Identity, passwordHash []byte) (*models.UserRecord, error)
	UpdateHash(ctx context.Context, identity models.Identity, passwordHash []byte) error
	// SetResetToken заменяет активный токен сброса; nil очищает его.
	SetResetToken(ctx context.Context, identity models.Identity, grant *models.ResetGrant) error
	FindByResetToken(ctx context.Context, digest string) (*models.UserRecord, error)
	// ConsumeResetToken атомарно снимает токен с этим digest и возвращает запись
	// в состоянии до снятия (с Reset). Из нескольких конкурентных вызовов с одним
	// digest запись получает только один, остальные видят ErrNotFound.
	ConsumeResetToken(ctx context.Context, digest string) (*models.UserRecord, error)
}
