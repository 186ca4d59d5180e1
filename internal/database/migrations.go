package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"

	"github.com/clinic-visit-server/internal/domain"
)

// MigrationRunner applies the clinic schema (patients, doctors, appointments,
// report_settings) from the configured migrations directory. It runs once at
// startup, before the connection pool opens.
type MigrationRunner struct {
	migrate *migrate.Migrate
	log     *logrus.Logger
}

// NewMigrationRunner builds a runner from the database config. The migrations
// path is part of the config so both binaries and deploys can relocate it.
func NewMigrationRunner(config domain.DatabaseConfig, logger *logrus.Logger) (*MigrationRunner, error) {
	m, err := migrate.New("file://"+config.MigrationsPath, URL(config))
	if err != nil {
		return nil, fmt.Errorf("opening migrations at %s: %w", config.MigrationsPath, err)
	}

	return &MigrationRunner{
		migrate: m,
		log:     logger,
	}, nil
}

// Up applies all pending migrations. An already-current schema is a no-op.
func (mr *MigrationRunner) Up() error {
	err := mr.migrate.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		mr.log.Info("Clinic schema already up to date")
		return nil
	case err != nil:
		return fmt.Errorf("applying clinic schema migrations: %w", err)
	}

	version, dirty, verr := mr.migrate.Version()
	if verr != nil {
		mr.log.WithError(verr).Warn("Could not read schema version after migrating")
		return nil
	}

	mr.log.WithFields(logrus.Fields{
		"schema_version": version,
		"dirty":          dirty,
	}).Info("Clinic schema migrated")
	return nil
}

// Close releases the migration source and its database handle. Failures here
// do not affect the already-applied schema, so they are logged, not returned.
func (mr *MigrationRunner) Close() {
	sourceErr, dbErr := mr.migrate.Close()
	if sourceErr != nil || dbErr != nil {
		mr.log.WithFields(logrus.Fields{
			"source_error": sourceErr,
			"db_error":     dbErr,
		}).Warn("Migration runner close reported errors")
	}
}
