package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/parthgeek/tally/internal/taxonomy"
)

func migrateCmd() *cobra.Command {
	var skipSeed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and seed the built-in taxonomy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			version, err := store.SchemaVersion(ctx)
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}
			slog.Info("database migrated", "schemaVersion", version)

			if skipSeed {
				return nil
			}

			if err := store.SeedCategories(ctx, taxonomy.DefaultCategories()); err != nil {
				return fmt.Errorf("failed to seed categories: %w", err)
			}
			slog.Info("built-in taxonomy seeded")

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "apply migrations without seeding categories")

	return cmd
}
