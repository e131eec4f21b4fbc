package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"sessionauth/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := models.MustParseIdentity("a@x.com")

	_, err := s.FindByIdentity(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)

	u, err := s.Create(ctx, id, []byte("hash"))
	require.NoError(t, err)
	assert.Equal(t, id, u.Identity)
	assert.Nil(t, u.Reset)

	_, err = s.Create(ctx, id, []byte("other"))
	require.ErrorIs(t, err, ErrAlreadyExists)

	got, err := s.FindByIdentity(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("hash"), got.PasswordHash)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := models.MustParseIdentity("a@x.com")

	hash := []byte("hash")
	_, err := s.Create(ctx, id, hash)
	require.NoError(t, err)
	hash[0] = 'X'

	got, err := s.FindByIdentity(ctx, id)
	require.NoError(t, err)
	got.PasswordHash[0] = 'Y'

	again, err := s.FindByIdentity(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("hash"), again.PasswordHash)
}

func TestMemoryStore_UpdateHash(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := models.MustParseIdentity("a@x.com")

	require.ErrorIs(t, s.UpdateHash(ctx, id, []byte("h")), ErrNotFound)

	_, err := s.Create(ctx, id, []byte("old"))
	require.NoError(t, err)
	require.NoError(t, s.UpdateHash(ctx, id, []byte("new")))

	got, err := s.FindByIdentity(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got.PasswordHash)
}

func TestMemoryStore_ResetToken(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := models.MustParseIdentity("a@x.com")

	require.ErrorIs(t, s.SetResetToken(ctx, id, &models.ResetGrant{Digest: "d1"}), ErrNotFound)

	_, err := s.Create(ctx, id, []byte("h"))
	require.NoError(t, err)

	exp := time.Now().Add(time.Hour)
	require.NoError(t, s.SetResetToken(ctx, id, &models.ResetGrant{Digest: "d1", ExpiresAt: exp}))

	u, err := s.FindByResetToken(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, id, u.Identity)
	require.NotNil(t, u.Reset)
	assert.Equal(t, "d1", u.Reset.Digest)
	assert.True(t, exp.Equal(u.Reset.ExpiresAt))

	// новый токен вытесняет старый
	require.NoError(t, s.SetResetToken(ctx, id, &models.ResetGrant{Digest: "d2"}))
	_, err = s.FindByResetToken(ctx, "d1")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindByResetToken(ctx, "d2")
	require.NoError(t, err)

	require.NoError(t, s.SetResetToken(ctx, id, nil))
	_, err = s.FindByResetToken(ctx, "d2")
	require.ErrorIs(t, err, ErrNotFound)

	u, err = s.FindByIdentity(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, u.Reset)

	_, err = s.FindByResetToken(ctx, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := models.MustParseIdentity("a@x.com")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Create(ctx, id, []byte("h")); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestMemoryStore_ConsumeResetToken(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := models.MustParseIdentity("a@x.com")
	_, err := s.Create(ctx, id, []byte("hash"))
	require.NoError(t, err)

	expires := time.Now().Add(time.Hour).UTC()
	require.NoError(t, s.SetResetToken(ctx, id, &models.ResetGrant{Digest: "old", ExpiresAt: expires}))

	got, err := s.ConsumeResetToken(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, id, got.Identity)
	require.NotNil(t, got.Reset, "record is returned as it was before consuming")
	assert.Equal(t, "old", got.Reset.Digest)
	assert.Equal(t, expires, got.Reset.ExpiresAt)

	_, err = s.ConsumeResetToken(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)

	u, err := s.FindByIdentity(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, u.Reset)

	_, err = s.ConsumeResetToken(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ConsumeReplacedToken(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := models.MustParseIdentity("a@x.com")
	_, err := s.Create(ctx, id, []byte("hash"))
	require.NoError(t, err)

	require.NoError(t, s.SetResetToken(ctx, id, &models.ResetGrant{Digest: "old"}))
	require.NoError(t, s.SetResetToken(ctx, id, &models.ResetGrant{Digest: "new"}))

	_, err = s.ConsumeResetToken(ctx, "old")
	require.ErrorIs(t, err, ErrNotFound)

	u, err := s.FindByIdentity(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, u.Reset, "failed consume of a replaced token keeps the new one")
	assert.Equal(t, "new", u.Reset.Digest)
}

func TestMemoryStore_ConsumeResetToken_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := models.MustParseIdentity("a@x.com")
	_, err := s.Create(ctx, id, []byte("hash"))
	require.NoError(t, err)
	require.NoError(t, s.SetResetToken(ctx, id, &models.ResetGrant{Digest: "d"}))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ConsumeResetToken(ctx, "d"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
