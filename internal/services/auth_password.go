package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sessionauth/internal/logger"
	"sessionauth/internal/models"
	"sessionauth/internal/repository"
	"sessionauth/internal/utils"

	"go.uber.org/zap"
)

type PasswordHasher interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed []byte, plaintext string) bool
}

// ResetTokenManager выдаёт и гасит одноразовые токены сброса пароля.
// Своего состояния не держит: замена и погашение токена атомарны в хранилище,
// поэтому несколько экземпляров над одной базой ведут себя как один.
type ResetTokenManager struct {
	store    repository.CredentialStore
	hasher   PasswordHasher
	tokenTTL time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

// NewResetTokenManager: при tokenTTL == 0 токен живёт до использования или замены.
func NewResetTokenManager(store repository.CredentialStore, hasher PasswordHasher, tokenTTL time.Duration) *ResetTokenManager {
	return &ResetTokenManager{
		store:    store,
		hasher:   hasher,
		tokenTTL: tokenTTL,
		now:      time.Now,
		newToken: utils.NewToken,
	}
}

// Issue генерирует токен и заменяет им предыдущий, если он был.
// В базе хранится только SHA-256 токена.
func (m *ResetTokenManager) Issue(ctx context.Context, identity models.Identity) (string, error) {
	token, err := m.newToken()
	if err != nil {
		logger.WithCtx(ctx).Error("Ошибка генерации токена для сброса", zap.Error(err))
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	grant := &models.ResetGrant{Digest: utils.TokenDigest(token)}
	if m.tokenTTL > 0 {
		grant.ExpiresAt = m.now().Add(m.tokenTTL).UTC()
	}

	err = m.store.SetResetToken(ctx, identity, grant)

	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		logger.WithCtx(ctx).Error("Ошибка сохранения токена сброса пароля", zap.Error(err))
		return "", err
	}
	return token, nil
}

// Consume проверяет токен и устанавливает новый пароль. Токен гасится
// атомарно в хранилище сразу при предъявлении, до хеширования и записи пароля:
// повторно его не использовать, даже если дальнейшие шаги упали. Пароль меняет
// только тот вызов, которому хранилище отдало запись.
func (m *ResetTokenManager) Consume(ctx context.Context, token, newPlaintext string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, ErrInvalidToken
	}
	log := logger.WithCtx(ctx)

	rec, err := m.store.ConsumeResetToken(ctx, utils.TokenDigest(token))
	if errors.Is(err, repository.ErrNotFound) {
		return models.Identity{}, ErrInvalidToken
	}
	if err != nil {
		log.Error("Не удалось погасить токен сброса", zap.Error(err))
		return models.Identity{}, err
	}

	if rec.Reset != nil && rec.Reset.Expired(m.now()) {
		log.Warn("Предъявлен просроченный токен сброса",
			zap.String("identity", logger.MaskEmail(rec.Identity.String())))
		return models.Identity{}, ErrInvalidToken
	}

	hash, err := m.hasher.Hash(newPlaintext)
	if err != nil {
		log.Error("Ошибка генерации хеша пароля", zap.Error(err))
		return models.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	if err := m.store.UpdateHash(ctx, rec.Identity, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Identity{}, ErrInvalidToken
		}
		log.Error("Ошибка обновления пароля пользователя", zap.Error(err))
		return models.Identity{}, err
	}

	return rec.Identity, nil
}
