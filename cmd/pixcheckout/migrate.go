package main

import (
	"errors"

	"github.com/spf13/cobra"

	"pix-checkout/internal/config"
	"pix-checkout/internal/database"
	"pix-checkout/internal/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
			if cfg.Store.Driver != config.StorePostgres {
				return errors.New("migrate requires STORE_DRIVER=postgres")
			}

			db, err := database.New(cmd.Context(), cfg.Store.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}
