package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_quiz_core.sql
var createQuizCoreSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createQuizCoreSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `
				DROP TABLE IF EXISTS answer_votes;
				DROP TABLE IF EXISTS image_uploads;
				DROP TABLE IF EXISTS options;
				DROP TABLE IF EXISTS questions;
				DROP TABLE IF EXISTS categories;
				DROP SEQUENCE IF EXISTS image_group_seq;
				DROP SEQUENCE IF EXISTS category_config_link_seq;`)
			return err
		},
	)
}
