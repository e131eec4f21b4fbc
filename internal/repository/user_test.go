package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"sessionauth/internal/models"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"identity", "password_hash", "reset_token", "reset_token_expires_at", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return NewUserRepository(mock), mock
}

func TestUserRepository_FindByIdentity(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	digest := "digest"
	expires := now.Add(30 * time.Minute)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		wantFault bool
		check     func(t *testing.T, u *models.UserRecord)
	}{
		{
			name: "found without reset token",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userColumns).
					AddRow("a@x.com", []byte("hash"), (*string)(nil), (*time.Time)(nil), now, now)
				mock.ExpectQuery(`SELECT identity, password_hash`).WithArgs("a@x.com").WillReturnRows(rows)
			},
			check: func(t *testing.T, u *models.UserRecord) {
				assert.Equal(t, "a@x.com", u.Identity.String())
				assert.Equal(t, []byte("hash"), u.PasswordHash)
				assert.Nil(t, u.Reset)
				assert.Equal(t, now, u.CreatedAt)
			},
		},
		{
			name: "found with reset token",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userColumns).
					AddRow("a@x.com", []byte("hash"), &digest, &expires, now, now)
				mock.ExpectQuery(`SELECT identity, password_hash`).WithArgs("a@x.com").WillReturnRows(rows)
			},
			check: func(t *testing.T, u *models.UserRecord) {
				require.NotNil(t, u.Reset)
				assert.Equal(t, digest, u.Reset.Digest)
				assert.Equal(t, expires, u.Reset.ExpiresAt)
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT identity, password_hash`).WithArgs("a@x.com").WillReturnError(pgx.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT identity, password_hash`).WithArgs("a@x.com").WillReturnError(errors.New("connection refused"))
			},
			wantFault: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tt.setupMock(mock)

			u, err := repo.FindByIdentity(context.Background(), models.MustParseIdentity("a@x.com"))
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantFault:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "connection refused")
				assert.NotErrorIs(t, err, ErrNotFound)
			default:
				require.NoError(t, err)
				tt.check(t, u)
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUserRepository_Create(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("a@x.com", []byte("hash")).
			WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		u, err := repo.Create(context.Background(), models.MustParseIdentity("a@x.com"), []byte("hash"))
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", u.Identity.String())
		assert.Equal(t, now, u.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("a@x.com", []byte("hash")).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		_, err := repo.Create(context.Background(), models.MustParseIdentity("a@x.com"), []byte("hash"))
		require.ErrorIs(t, err, ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other pg error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("a@x.com", []byte("hash")).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.CheckViolation})

		_, err := repo.Create(context.Background(), models.MustParseIdentity("a@x.com"), []byte("hash"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_UpdateHash(t *testing.T) {
	tests := []struct {
		name    string
		result  pgconn.CommandTag
		err     error
		wantErr error
		fault   bool
	}{
		{name: "updated", result: pgxmock.NewResult("UPDATE", 1)},
		{name: "no such user", result: pgxmock.NewResult("UPDATE", 0), wantErr: ErrNotFound},
		{name: "database error", err: errors.New("timeout"), fault: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			exp := mock.ExpectExec(`UPDATE users SET password_hash`).WithArgs([]byte("new"), "a@x.com")
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err := repo.UpdateHash(context.Background(), models.MustParseIdentity("a@x.com"), []byte("new"))
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.fault:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "timeout")
			default:
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_SetResetToken(t *testing.T) {
	id := models.MustParseIdentity("a@x.com")

	t.Run("set", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE users SET reset_token`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "a@x.com").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.SetResetToken(context.Background(), id, &models.ResetGrant{Digest: "d", ExpiresAt: time.Now().Add(time.Minute)})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("clear", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE users SET reset_token`).
			WithArgs((*string)(nil), (*time.Time)(nil), "a@x.com").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.SetResetToken(context.Background(), id, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no such user", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE users SET reset_token`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "a@x.com").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.SetResetToken(context.Background(), id, &models.ResetGrant{Digest: "d"})
		require.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_FindByResetToken(t *testing.T) {
	now := time.Now().UTC()
	digest := "d"

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		rows := pgxmock.NewRows(userColumns).
			AddRow("a@x.com", []byte("hash"), &digest, (*time.Time)(nil), now, now)
		mock.ExpectQuery(`WHERE reset_token`).WithArgs("d").WillReturnRows(rows)

		u, err := repo.FindByResetToken(context.Background(), "d")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", u.Identity.String())
		require.NotNil(t, u.Reset)
		assert.True(t, u.Reset.ExpiresAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`WHERE reset_token`).WithArgs("d").WillReturnError(pgx.ErrNoRows)

		_, err := repo.FindByResetToken(context.Background(), "d")
		require.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty digest skips query", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		_, err := repo.FindByResetToken(context.Background(), "")
		require.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_ConsumeResetToken(t *testing.T) {
	now := time.Now().UTC()
	digest := "d"
	expires := now.Add(time.Hour)

	t.Run("consumed", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		rows := pgxmock.NewRows(userColumns).
			AddRow("a@x.com", []byte("hash"), &digest, &expires, now, now)
		mock.ExpectQuery(`UPDATE users u SET reset_token = NULL`).WithArgs("d").WillReturnRows(rows)

		u, err := repo.ConsumeResetToken(context.Background(), "d")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", u.Identity.String())
		require.NotNil(t, u.Reset)
		assert.Equal(t, "d", u.Reset.Digest)
		assert.Equal(t, expires, u.Reset.ExpiresAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already consumed or replaced", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`UPDATE users u SET reset_token = NULL`).WithArgs("d").WillReturnError(pgx.ErrNoRows)

		_, err := repo.ConsumeResetToken(context.Background(), "d")
		require.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("storage fault", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		boom := errors.New("connection reset")
		mock.ExpectQuery(`UPDATE users u SET reset_token = NULL`).WithArgs("d").WillReturnError(boom)

		_, err := repo.ConsumeResetToken(context.Background(), "d")
		require.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty digest skips query", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		_, err := repo.ConsumeResetToken(context.Background(), "")
		require.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
