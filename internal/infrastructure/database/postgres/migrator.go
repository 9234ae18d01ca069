package postgres

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // file source driver
)

// ─────────────────────────────────────────────────────────────────────────────
// Migrations
// ─────────────────────────────────────────────────────────────────────────────

// migrationSourceURL accepts either a bare directory path ("migrations") or
// a full source URL ("file://migrations") and returns the source URL form.
func migrationSourceURL(migrationsPath string) string {
	if strings.Contains(migrationsPath, "://") {
		return migrationsPath
	}
	return "file://" + migrationsPath
}

func newMigrator(dbURL, migrationsPath string) (*migrate.Migrate, error) {
	m, err := migrate.New(migrationSourceURL(migrationsPath), dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// RunMigrations applies all pending migrations from migrationsPath. It is
// called on application startup so the schema is current before the first
// query runs. An already up-to-date database is not an error.
func RunMigrations(dbURL, migrationsPath string) error {
	m, err := newMigrator(dbURL, migrationsPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// RollbackMigration rolls the schema back by steps migrations. Intended for
// development and recovery, not for normal operation.
func RollbackMigration(dbURL, migrationsPath string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0, got %d", steps)
	}

	m, err := newMigrator(dbURL, migrationsPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil {
		if stderrors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("no migrations to roll back")
		}
		return fmt.Errorf("failed to roll back %d step(s): %w", steps, err)
	}
	return nil
}

// MigrationStatus returns the applied migration version and whether a
// previous migration failed partway (the dirty flag). A database with no
// applied migrations reports version 0.
func MigrationStatus(dbURL, migrationsPath string) (version uint, dirty bool, err error) {
	m, err := newMigrator(dbURL, migrationsPath)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if err != nil {
		if stderrors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// ResetDatabase drops every object in the schema and re-applies all
// migrations. Destructive; test and development environments only.
func ResetDatabase(dbURL, migrationsPath string) error {
	m, err := newMigrator(dbURL, migrationsPath)
	if err != nil {
		return err
	}

	if err := m.Drop(); err != nil {
		m.Close()
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	m.Close()

	// Drop removes the schema_migrations bookkeeping table as well, so the
	// re-apply needs a fresh instance.
	m, err = newMigrator(dbURL, migrationsPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to re-apply migrations: %w", err)
	}
	return nil
}

// ForceMigrationVersion overwrites the recorded schema version without
// running any migration. Used to recover from a dirty state after a failed
// migration has been fixed by hand.
func ForceMigrationVersion(dbURL, migrationsPath string, version int) error {
	m, err := newMigrator(dbURL, migrationsPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}
