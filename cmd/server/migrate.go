package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jinwoo-notes/jinwoo/internal/config"
	"github.com/jinwoo-notes/jinwoo/internal/db"
	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

func migrateCmd(flags *config.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the notebook database schema",
	}
	cmd.AddCommand(
		migrateSubCmd(flags, "up", "Apply every pending migration", db.Migrate),
		migrateSubCmd(flags, "down", "Roll back the most recent migration", db.MigrateDown),
		migrateSubCmd(flags, "status", "Show the applied state of each migration", db.MigrationStatus),
	)
	return cmd
}

type migrateFunc = func(ctx context.Context, sqlDB *sql.DB) error

func migrateSubCmd(flags *config.Flags, use, short string, run migrateFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadRuntime(flags)
			if err != nil {
				return err
			}
			defer obs.Close()

			store, err := openStore(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := run(ctx, store.DB()); err != nil {
				return err
			}
			version, err := db.SchemaVersion(ctx, store.DB())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
			return nil
		},
	}
}
