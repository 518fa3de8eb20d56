package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"devexchange-service/internal/config"
	pgmigrations "devexchange-service/internal/infra/postgres/migrations"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			db := openBunDB(cfg.Postgres.URL)
			defer db.Close()
			return runMigrations(cmd.Context(), db, newLogger())
		},
	}
}

func openBunDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func runMigrations(ctx context.Context, db *bun.DB, logger *slog.Logger) error {
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		logger.Info("database is up to date")
		return nil
	}
	logger.Info("migrations applied", "group", group.String())
	return nil
}

// runMigrationsWithConfig opens a short-lived connection for the migrate step.
func runMigrationsWithConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	db := openBunDB(cfg.Postgres.URL)
	defer db.Close()
	return runMigrations(ctx, db, logger)
}
