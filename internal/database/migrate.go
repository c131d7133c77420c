package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"jizhang/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded schema migrations.
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator builds a migrator for the configured driver. SQLite gets its own
// connection because the migrate driver closes it on Close.
func NewMigrator(config *Config) (*Migrator, error) {
	src, err := iofs.New(migrationsFS, "migrations/"+config.Driver)
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	var m *migrate.Migrate
	switch config.Driver {
	case DriverPostgres:
		m, err = migrate.NewWithSourceInstance("iofs", src, config.PostgresURL())
	case DriverSQLite:
		var db *sql.DB
		db, err = sql.Open("sqlite3", config.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open migration database: %w", err)
		}
		driver, derr := sqlite3.WithInstance(db, &sqlite3.Config{})
		if derr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create sqlite migrate driver: %w", derr)
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Down rolls back the given number of migrations.
func (mg *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("step count must be positive, got %d", steps)
	}
	if err := mg.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// Version reports the current schema version. A database with no applied
// migrations reports version 0.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the source and database handles.
func (mg *Migrator) Close() {
	srcErr, dbErr := mg.m.Close()
	if srcErr != nil {
		logger.Get().Warnf("migrate source close error: %v", srcErr)
	}
	if dbErr != nil {
		logger.Get().Warnf("migrate database close error: %v", dbErr)
	}
}
