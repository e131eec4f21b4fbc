package session

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	identity  string
	expiresAt time.Time // нулевое значит бессрочно
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore держит сессии в памяти процесса под RWMutex.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]entry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]entry),
		now:      time.Now,
	}
}

func (s *MemoryStore) PutIfAbsent(_ context.Context, token, identity string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.sessions[token]; ok && !e.expired(now) {
		return false, nil
	}

	e := entry{identity: identity}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	s.sessions[token] = e
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[token]
	if !ok || e.expired(s.now()) {
		return "", false, nil
	}
	return e.identity, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[token]
	if !ok {
		return false, nil
	}
	delete(s.sessions, token)
	return !e.expired(s.now()), nil
}

// Sweep удаляет истёкшие сессии и возвращает их количество.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for token, e := range s.sessions {
		if e.expired(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Len: число записей, включая ещё не вычищенные истёкшие.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
