package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"AUTHGATE/internal/config"
	"AUTHGATE/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run store migrations",
		Long: `Apply pending goose migrations on PostgreSQL, or create the unique
email index on MongoDB.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	ctx := cmd.Context()

	cmd.Println("Connecting to store...")
	users, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to store").Wrap(err)
	}
	defer users.Close(ctx)

	cmd.Println("Running migrations...")
	if err := store.Migrate(ctx, users); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
