package main

import (
	"fmt"

	"sessionauth/internal/config"
	"sessionauth/internal/logger"

	"github.com/spf13/cobra"
)

// NewRootCmd: без подкоманды запускает сервер.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "sessionauth",
		Short:        "Session authentication service",
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	})
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// loadConfig читает конфиг, поднимает логгер и выводит предупреждения Validate.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.InitLogger(cfg)

	warnings, err := cfg.Validate()
	if err != nil {
		logger.Log.Error("Некорректная конфигурация")
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	for _, w := range warnings {
		logger.Log.Warn(w)
	}
	return cfg, nil
}
