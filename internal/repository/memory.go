package repository

import (
	"context"
	"sync"
	"time"

	"sessionauth/internal/models"
)

// MemoryStore: CredentialStore в памяти процесса. Для тестов и локального запуска.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*models.UserRecord
	byReset map[string]string // digest -> identity
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*models.UserRecord),
		byReset: make(map[string]string),
		now:     time.Now,
	}
}

func (s *MemoryStore) FindByIdentity(_ context.Context, identity models.Identity) (*models.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[identity.String()]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(u), nil
}

func (s *MemoryStore) Create(_ context.Context, identity models.Identity, passwordHash []byte) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identity.String()
	if _, ok := s.users[key]; ok {
		return nil, ErrAlreadyExists
	}

	now := s.now().UTC()
	u := &models.UserRecord{
		Identity:     identity,
		PasswordHash: append([]byte(nil), passwordHash...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[key] = u
	return cloneRecord(u), nil
}

func (s *MemoryStore) UpdateHash(_ context.Context, identity models.Identity, passwordHash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[identity.String()]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = append([]byte(nil), passwordHash...)
	u.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) SetResetToken(_ context.Context, identity models.Identity, grant *models.ResetGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identity.String()
	u, ok := s.users[key]
	if !ok {
		return ErrNotFound
	}

	if u.Reset != nil {
		delete(s.byReset, u.Reset.Digest)
	}
	if grant == nil {
		u.Reset = nil
	} else {
		g := *grant
		u.Reset = &g
		s.byReset[g.Digest] = key
	}
	u.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) FindByResetToken(_ context.Context, digest string) (*models.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.byReset[digest]
	if !ok || digest == "" {
		return nil, ErrNotFound
	}
	return cloneRecord(s.users[key]), nil
}

func (s *MemoryStore) ConsumeResetToken(_ context.Context, digest string) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.byReset[digest]
	if !ok || digest == "" {
		return nil, ErrNotFound
	}
	u := s.users[key]
	consumed := cloneRecord(u)

	delete(s.byReset, digest)
	u.Reset = nil
	u.UpdatedAt = s.now().UTC()
	return consumed, nil
}

func cloneRecord(u *models.UserRecord) *models.UserRecord {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	if u.Reset != nil {
		g := *u.Reset
		c.Reset = &g
	}
	return &c
}
