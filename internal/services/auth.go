package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"sessionauth/internal/logger"
	"sessionauth/internal/metrics"
	"sessionauth/internal/models"
	"sessionauth/internal/repository"

	"go.uber.org/zap"
)

// SessionRegistry выпускает, проверяет и отзывает токены сессий (session.Registry).
type SessionRegistry interface {
	CreateSession(ctx context.Context, identity models.Identity) (string, error)
	Resolve(ctx context.Context, token string) (models.Identity, bool, error)
	Destroy(ctx context.Context, token string) (bool, error)
}

// AuthService: операции, которые вызывает HTTP-граница.
// Строки identity разбираются здесь, дальше ходит только models.Identity.
type AuthService struct {
	store    repository.CredentialStore
	hasher   PasswordHasher
	sessions SessionRegistry
	resets   *ResetTokenManager
	metrics  *metrics.Metrics

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(
	store repository.CredentialStore,
	hasher PasswordHasher,
	sessions SessionRegistry,
	resets *ResetTokenManager,
	m *metrics.Metrics,
) *AuthService {
	return &AuthService{
		store:    store,
		hasher:   hasher,
		sessions: sessions,
		resets:   resets,
		metrics:  m,
	}
}

func (s *AuthService) Register(ctx context.Context, rawIdentity, plaintext string) (*models.UserRecord, error) {
	log := logger.WithCtx(ctx)

	identity, err := models.ParseIdentity(rawIdentity)
	if err != nil {
		s.metrics.Registration(metrics.ResultRejected)
		return nil, err
	}
	log.Info("Регистрация пользователя (service)", zap.String("identity", logger.MaskEmail(identity.String())))

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		log.Error("Ошибка хеширования пароля", zap.Error(err))
		s.metrics.Registration(metrics.ResultError)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.Create(ctx, identity, hash)
	if errors.Is(err, repository.ErrAlreadyExists) {
		log.Warn("Identity уже зарегистрирована (service)", zap.String("identity", logger.MaskEmail(identity.String())))
		s.metrics.Registration(metrics.ResultRejected)
		return nil, ErrAlreadyExists
	}
	if err != nil {
		log.Error("Ошибка создания пользователя", zap.Error(err))
		s.metrics.Registration(metrics.ResultError)
		return nil, err
	}

	log.Info("Пользователь зарегистрирован (service)", zap.String("identity", logger.MaskEmail(identity.String())))
	s.metrics.Registration(metrics.ResultOK)
	return user, nil
}

// Login не различает "нет такого пользователя" и "неверный пароль":
// для неизвестной identity всё равно выполняется проверка хеша.
func (s *AuthService) Login(ctx context.Context, rawIdentity, plaintext string) (string, error) {
	log := logger.WithCtx(ctx)

	identity, err := models.ParseIdentity(rawIdentity)
	if err != nil {
		s.burnVerify(plaintext)
		s.metrics.Login(metrics.ResultRejected)
		return "", ErrInvalidCredentials
	}
	masked := logger.MaskEmail(identity.String())
	log.Info("Попытка входа (service)", zap.String("identity", masked))

	user, err := s.store.FindByIdentity(ctx, identity)
	if errors.Is(err, repository.ErrNotFound) {
		s.burnVerify(plaintext)
		log.Warn("Неверные учётные данные (service)", zap.String("identity", masked))
		s.metrics.Login(metrics.ResultRejected)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		log.Error("Ошибка получения пользователя", zap.Error(err))
		s.metrics.Login(metrics.ResultError)
		return "", err
	}

	if !s.hasher.Verify(user.PasswordHash, plaintext) {
		log.Warn("Неверные учётные данные (service)", zap.String("identity", masked))
		s.metrics.Login(metrics.ResultRejected)
		return "", ErrInvalidCredentials
	}

	token, err := s.sessions.CreateSession(ctx, user.Identity)
	if err != nil {
		log.Error("Ошибка создания сессии", zap.Error(err))
		s.metrics.Login(metrics.ResultError)
		return "", err
	}

	log.Info("Вход выполнен (service)", zap.String("identity", masked))
	s.metrics.Login(metrics.ResultOK)
	return token, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	log := logger.WithCtx(ctx)

	identity, ok, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		log.Error("Ошибка чтения сессии", zap.Error(err))
		s.metrics.Logout(metrics.ResultError)
		return err
	}
	if !ok {
		s.metrics.Logout(metrics.ResultRejected)
		return ErrNoActiveSession
	}

	destroyed, err := s.sessions.Destroy(ctx, token)
	if err != nil {
		log.Error("Ошибка удаления сессии", zap.Error(err))
		s.metrics.Logout(metrics.ResultError)
		return err
	}
	if !destroyed {
		// параллельный logout успел раньше
		s.metrics.Logout(metrics.ResultRejected)
		return ErrNoActiveSession
	}

	log.Info("Выход пользователя (service)", zap.String("identity", logger.MaskEmail(identity.String())))
	s.metrics.Logout(metrics.ResultOK)
	return nil
}

func (s *AuthService) ResolveUser(ctx context.Context, token string) (models.Identity, error) {
	identity, ok, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		logger.WithCtx(ctx).Error("Ошибка чтения сессии", zap.Error(err))
		return models.Identity{}, err
	}
	if !ok {
		return models.Identity{}, ErrUnauthenticated
	}
	return identity, nil
}

func (s *AuthService) RequestReset(ctx context.Context, rawIdentity string) (string, error) {
	log := logger.WithCtx(ctx)

	identity, err := models.ParseIdentity(rawIdentity)
	if err != nil {
		s.metrics.ResetIssued(metrics.ResultRejected)
		return "", ErrUserNotFound
	}
	masked := logger.MaskEmail(identity.String())
	log.Info("Запрос на сброс пароля", zap.String("identity", masked))

	token, err := s.resets.Issue(ctx, identity)
	switch {
	case errors.Is(err, ErrUserNotFound):
		log.Warn("Не удалось найти пользователя при запросе сброса", zap.String("identity", masked))
		s.metrics.ResetIssued(metrics.ResultRejected)
		return "", err
	case err != nil:
		s.metrics.ResetIssued(metrics.ResultError)
		return "", err
	}

	log.Info("Токен сброса пароля выдан", zap.String("identity", masked))
	s.metrics.ResetIssued(metrics.ResultOK)
	return token, nil
}

func (s *AuthService) ApplyReset(ctx context.Context, token, newPlaintext string) error {
	log := logger.WithCtx(ctx)

	identity, err := s.resets.Consume(ctx, token, newPlaintext)
	switch {
	case errors.Is(err, ErrInvalidToken):
		log.Warn("Неверный или просроченный токен при сбросе пароля")
		s.metrics.ResetConsumed(metrics.ResultRejected)
		return err
	case err != nil:
		s.metrics.ResetConsumed(metrics.ResultError)
		return err
	}

	log.Info("Пароль успешно сброшен", zap.String("identity", logger.MaskEmail(identity.String())))
	s.metrics.ResetConsumed(metrics.ResultOK)
	return nil
}

// burnVerify тратит на неизвестную identity столько же времени, сколько на известную.
func (s *AuthService) burnVerify(plaintext string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("not-a-real-password")
	})
	_ = s.hasher.Verify(s.dummyHash, plaintext)
}
