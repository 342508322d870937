package database

import (
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// RunMigrations applies pending schema migrations from the given
// directory. Idempotent: an up-to-date schema is not an error. The
// schema carries the engine's row-level security policies, so this
// must complete before any tenant scope is opened.
func RunMigrations(db *sql.DB, migrationsPath string, logger *zap.Logger) error {
	log := logger.Named("migrations")

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			log.Warn("Failed to close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			log.Warn("Failed to close migration database", zap.Error(dbErr))
		}
	}()

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Info("Schema up to date", zap.String("path", migrationsPath))
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	log.Info("Applied schema migrations",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
		zap.String("path", migrationsPath))
	return nil
}
