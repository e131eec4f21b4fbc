package main

import (
	"errors"

	"sessionauth/internal/config"
	"sessionauth/internal/db"
	"sessionauth/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errNoDatabase = errors.New("migrate requires CREDENTIAL_STORE=postgres")

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Log.Sync()

			if cfg.CredentialStore != config.StorePostgres {
				return errNoDatabase
			}

			pool, err := db.NewPostgresConnection(cmd.Context(), cfg)
			if err != nil {
				logger.Log.Error("Ошибка подключения к БД", zap.Error(err))
				return err
			}
			defer pool.Close()

			return db.Migrate(cmd.Context(), pool)
		},
	}
}
