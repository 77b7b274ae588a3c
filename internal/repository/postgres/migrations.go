package postgres

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"

	"github.com/utafrali/review-admin/pkg/database"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema migrations of the review store.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrate applies pending schema migrations.
func Migrate(ctx context.Context, db database.TxStarter, logger *slog.Logger) error {
	return database.RunMigrations(ctx, db, Migrations(), logger)
}
