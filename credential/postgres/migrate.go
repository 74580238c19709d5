package postgres

import (
	"context"
	"database/sql"

	"github.com/MrEthical07/codeAuth/credential/postgres/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
)

// gooseUpContext is a seam for tests.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded schema to db.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return oops.With("operation", "set goose dialect").Wrap(err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return oops.With("operation", "migrate credentials schema").Wrap(err)
	}
	return nil
}

// MigrateDSN opens dsn with the pgx stdlib driver and applies the schema.
func MigrateDSN(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return oops.With("operation", "open migration connection").Wrap(err)
	}
	defer db.Close()
	return Migrate(ctx, db)
}
