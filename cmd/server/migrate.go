package main

import (
	"database/sql"
	"errors"

	"github.com/spf13/cobra"

	"idgraph/internal/platform/config"
	"idgraph/internal/platform/postgres"
	"idgraph/migrations"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openForMigrate(cmd, opts.cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrations.Up(cmd.Context(), db); err != nil {
				return err
			}
			opts.logger.InfoContext(cmd.Context(), "migrations applied")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openForMigrate(cmd, opts.cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrations.Down(cmd.Context(), db); err != nil {
				return err
			}
			opts.logger.InfoContext(cmd.Context(), "migration rolled back")
			return nil
		},
	})
	return cmd
}

func openForMigrate(cmd *cobra.Command, cfg config.Config) (*sql.DB, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL is required for migrations")
	}
	return postgres.Open(cmd.Context(), cfg.Database)
}
