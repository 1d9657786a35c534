package main

import (
	"fmt"

	"github.com/dmitrijs2005/escolario/internal/storage"
	"github.com/spf13/cobra"
)

// migrateCmd applies the embedded migrations without starting the client.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and print the schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		db, err := storage.Open(ctx, cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("migrate %s: %w", cfg.DatabasePath, err)
		}
		defer db.Close()

		version, err := storage.SchemaVersion(ctx, db)
		if err != nil {
			return err
		}

		logger.Info(ctx, "migrations applied", "path", cfg.DatabasePath, "version", version)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", cfg.DatabasePath, version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
