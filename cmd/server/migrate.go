package main

import (
	"github.com/spf13/cobra"

	"collabforge/internal/repository"
	"collabforge/internal/server"
	"collabforge/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := repository.Open(cfg.Database, server.GormLogLevel())
		if err != nil {
			return err
		}
		defer closeDB(db)

		if err := repository.AutoMigrate(db); err != nil {
			return err
		}
		logger.Info().Str("driver", cfg.Database.Driver).Msg("schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
