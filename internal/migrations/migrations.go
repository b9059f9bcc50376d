// Package migrations owns the embedded SQL schema for the signals, insights,
// and alerts tables and applies it through golang-migrate on startup.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var migrationFS embed.FS

// RunMigrations brings the database schema up to the embedded version. With
// autoMigrate false it only reports where the schema stands and applies
// nothing. A dirty version marker left by an interrupted run is cleared
// first: every migration here is transactional DDL, so a dirty flag means a
// stale marker, not a half-applied schema.
func RunMigrations(db *sql.DB, autoMigrate bool) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("read schema version: %w", err)
	}

	if dirty {
		slog.Warn("[Migrations] Clearing dirty version marker from an interrupted run",
			"version", version)
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("clear dirty schema version %d: %w", version, err)
		}
	}

	if !autoMigrate {
		slog.Info("[Migrations] Auto-migration disabled",
			"schema_version", version)
		return nil
	}

	switch err := m.Up(); err {
	case nil:
		applied, _, verr := m.Version()
		if verr != nil {
			return fmt.Errorf("read schema version after migrating: %w", verr)
		}
		slog.Info("[Migrations] Schema migrated",
			"from_version", version,
			"to_version", applied)
		return nil
	case migrate.ErrNoChange:
		slog.Info("[Migrations] Schema already current", "version", version)
		return nil
	default:
		return fmt.Errorf("apply migrations: %w", err)
	}
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFS, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("attach postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("build migrator: %w", err)
	}
	return m, nil
}
