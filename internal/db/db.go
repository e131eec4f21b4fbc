package db

import (
	"context"
	"database/sql"
	"fmt"

	"sessionauth/internal/config"
	"sessionauth/internal/db/migrations"
	"sessionauth/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func NewPostgresConnection(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.GetDSNSafe(), err)
	}

	logger.Log.Info("Подключение к БД установлено", zap.String("dsn", cfg.GetDSNSafe()))
	return pool, nil
}

// gooseUp подменяется в тестах.
var gooseUp = func(ctx context.Context, db *sql.DB) error {
	return goose.UpContext(ctx, db, ".")
}

// Migrate накатывает встроенные миграции через пул.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	return migrate(ctx, sqlDB)
}

func migrate(ctx context.Context, sqlDB *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUp(ctx, sqlDB); err != nil {
		logger.Log.Error("Ошибка применения миграций", zap.Error(err))
		return fmt.Errorf("apply migrations: %w", err)
	}
	logger.Log.Info("Миграции применены")
	return nil
}
