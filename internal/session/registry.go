package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sessionauth/internal/models"
	"sessionauth/internal/utils"
)

// maxCreateAttempts: сколько раз перегенерировать токен при коллизии.
// При 256 битах энтропии больше одной попытки не бывает.
const maxCreateAttempts = 3

var ErrTokenCollision = errors.New("session token collision")

type Registry struct {
	store    Store
	ttl      time.Duration
	newToken func() (string, error)
}

// NewRegistry: при ttl == 0 сессии живут до Destroy.
func NewRegistry(store Store, ttl time.Duration) *Registry {
	return &Registry{
		store:    store,
		ttl:      ttl,
		newToken: utils.NewToken,
	}
}

// CreateSession выпускает новый токен для identity. Нулевая identity
// отклоняется: пустой токен и models.ErrInvalidIdentity.
func (r *Registry) CreateSession(ctx context.Context, identity models.Identity) (string, error) {
	if identity.IsZero() {
		return "", models.ErrInvalidIdentity
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		token, err := r.newToken()
		if err != nil {
			return "", fmt.Errorf("generate session token: %w", err)
		}
		ok, err := r.store.PutIfAbsent(ctx, token, identity.String(), r.ttl)
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
	}
	return "", ErrTokenCollision
}

// Resolve: для пустого или неизвестного токена ok == false без ошибки.
func (r *Registry) Resolve(ctx context.Context, token string) (models.Identity, bool, error) {
	if token == "" {
		return models.Identity{}, false, nil
	}
	raw, ok, err := r.store.Get(ctx, token)
	if err != nil || !ok {
		return models.Identity{}, false, err
	}
	identity, err := models.ParseIdentity(raw)
	if err != nil {
		return models.Identity{}, false, fmt.Errorf("stored session identity: %w", err)
	}
	return identity, true, nil
}

// Destroy: no-op с false для пустого, неизвестного или уже удалённого токена.
func (r *Registry) Destroy(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return r.store.Delete(ctx, token)
}
