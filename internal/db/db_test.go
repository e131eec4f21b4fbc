package db

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"sessionauth/internal/config"
	"sessionauth/internal/db/migrations"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	body, err := fs.ReadFile(migrations.FS, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "reset_token")
}

func TestMigrate(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	orig := gooseUp
	defer func() { gooseUp = orig }()

	var called bool
	gooseUp = func(_ context.Context, db *sql.DB) error {
		called = true
		assert.Same(t, sqlDB, db)
		return nil
	}
	require.NoError(t, migrate(context.Background(), sqlDB))
	assert.True(t, called)

	boom := errors.New("boom")
	gooseUp = func(context.Context, *sql.DB) error { return boom }
	assert.ErrorIs(t, migrate(context.Background(), sqlDB), boom)
}

func TestNewPostgresConnection_BadDSNHidesPassword(t *testing.T) {
	cfg := &config.Config{
		DbHost:    "127.0.0.1",
		DbPort:    "1",
		DbUser:    "u",
		DbPass:    "secret",
		DbName:    "d",
		DbSSLMode: "disable",
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPostgresConnection(ctx, cfg)
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "secret"))
}
