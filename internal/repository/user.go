package repository

import (
	"context"
	"errors"
	"time"

	"sessionauth/internal/logger"
	"sessionauth/internal/models"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
	"go.uber.org/zap"
)

// pgxIface: подмножество *pgxpool.Pool, которое нужно репозиторию (и которое умеет pgxmock).
type pgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository: CredentialStore поверх Postgres.
type UserRepository struct {
	db pgxIface
}

func NewUserRepository(db pgxIface) *UserRepository {
	return &UserRepository{db: db}
}

const selectUser = `SELECT identity, password_hash, reset_token, reset_token_expires_at, created_at, updated_at FROM users`

func (r *UserRepository) FindByIdentity(ctx context.Context, identity models.Identity) (*models.UserRecord, error) {
	logger.Log.Debug("Получение пользователя по identity (repo)", zap.String("identity", logger.MaskEmail(identity.String())))
	row := r.db.QueryRow(ctx, selectUser+` WHERE identity = $1`, identity.String())
	u, err := scanUser(row)
	if err != nil {
		return nil, classify(err, "find user by identity")
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, identity models.Identity, passwordHash []byte) (*models.UserRecord, error) {
	logger.Log.Info("Создание пользователя (repo)", zap.String("identity", logger.MaskEmail(identity.String())))
	u := &models.UserRecord{Identity: identity, PasswordHash: passwordHash}
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (identity, password_hash) VALUES ($1, $2) RETURNING created_at, updated_at`,
		identity.String(), passwordHash,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, classify(err, "create user")
	}
	return u, nil
}

func (r *UserRepository) UpdateHash(ctx context.Context, identity models.Identity, passwordHash []byte) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE identity = $2`,
		passwordHash, identity.String(),
	)
	if err != nil {
		logger.Log.Error("Ошибка обновления пароля (repo)", zap.Error(err))
		return oops.With("operation", "update password hash").Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, identity models.Identity, grant *models.ResetGrant) error {
	var (
		digest  *string
		expires *time.Time
	)
	if grant != nil {
		digest = &grant.Digest
		if !grant.ExpiresAt.IsZero() {
			expires = &grant.ExpiresAt
		}
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE users SET reset_token = $1, reset_token_expires_at = $2, updated_at = now() WHERE identity = $3`,
		digest, expires, identity.String(),
	)
	if err != nil {
		logger.Log.Error("Ошибка сохранения токена сброса (repo)", zap.Error(err))
		return oops.With("operation", "set reset token").Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) FindByResetToken(ctx context.Context, digest string) (*models.UserRecord, error) {
	if digest == "" {
		return nil, ErrNotFound
	}
	row := r.db.QueryRow(ctx, selectUser+` WHERE reset_token = $1`, digest)
	u, err := scanUser(row)
	if err != nil {
		return nil, classify(err, "find user by reset token")
	}
	return u, nil
}

// consumeResetToken: FOR UPDATE во вложенном SELECT заставляет конкурента
// дождаться коммита и перепроверить reset_token = $1, так что строку получает один.
const consumeResetToken = `WITH old AS (
	SELECT identity, reset_token, reset_token_expires_at FROM users WHERE reset_token = $1 FOR UPDATE
)
UPDATE users u SET reset_token = NULL, reset_token_expires_at = NULL, updated_at = now()
FROM old
WHERE u.identity = old.identity AND u.reset_token = $1
RETURNING u.identity, u.password_hash, old.reset_token, old.reset_token_expires_at, u.created_at, u.updated_at`

func (r *UserRepository) ConsumeResetToken(ctx context.Context, digest string) (*models.UserRecord, error) {
	if digest == "" {
		return nil, ErrNotFound
	}
	u, err := scanUser(r.db.QueryRow(ctx, consumeResetToken, digest))
	if err != nil {
		return nil, classify(err, "consume reset token")
	}
	logger.Log.Debug("Токен сброса погашен (repo)", zap.String("identity", logger.MaskEmail(u.Identity.String())))
	return u, nil
}

func scanUser(row pgx.Row) (*models.UserRecord, error) {
	var (
		rawIdentity string
		digest      *string
		expires     *time.Time
		u           models.UserRecord
	)
	if err := row.Scan(&rawIdentity, &u.PasswordHash, &digest, &expires, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}

	id, err := models.ParseIdentity(rawIdentity)
	if err != nil {
		return nil, oops.With("identity", rawIdentity).Wrapf(err, "stored identity is invalid")
	}
	u.Identity = id

	if digest != nil {
		u.Reset = &models.ResetGrant{Digest: *digest}
		if expires != nil {
			u.Reset.ExpiresAt = *expires
		}
	}
	return &u, nil
}

func classify(err error, operation string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrAlreadyExists
	}
	logger.Log.Error("Ошибка запроса к users (repo)", zap.String("operation", operation), zap.Error(err))
	return oops.With("operation", operation).Wrap(err)
}
