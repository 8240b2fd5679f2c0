package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx" for migrations
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
	"github.com/secmon-lab/briareos/pkg/utils/safe"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies pending schema migrations. It is idempotent.
func Migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return goerr.Wrap(err, "failed to open database for migration")
	}
	defer safe.Close(context.Background(), db, "migration connection")

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return goerr.Wrap(err, "failed to create migration driver")
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return goerr.Wrap(err, "failed to load embedded migrations")
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return goerr.Wrap(err, "failed to create migration instance")
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logging.Default().Warn("failed to close migration source", "error", srcErr)
		}
		if dbErr != nil {
			logging.Default().Warn("failed to close migration database", "error", dbErr)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logging.Default().Info("No migrations to apply (database up-to-date)")
			return nil
		}
		return goerr.Wrap(err, "failed to run migrations")
	}

	version, _, _ := m.Version()
	logging.Default().Info("Applied migrations successfully", "version", version)
	return nil
}
