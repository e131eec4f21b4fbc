// Package session хранит активные сессии: непрозрачный токен -> identity.
//
// Registry владеет экземпляром Store, переданным при создании; глобального
// состояния у пакета нет. Промахи поиска не являются ошибками: ошибку
// возвращает только недоступное хранилище (например, Redis).
package session

import (
	"context"
	"time"
)

// Store: карта token -> identity. Реализации потокобезопасны.
type Store interface {
	// PutIfAbsent сохраняет связку, только если токен ещё не занят.
	// ttl == 0 значит без истечения.
	PutIfAbsent(ctx context.Context, token, identity string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, token string) (string, bool, error)
	Delete(ctx context.Context, token string) (bool, error)
}
