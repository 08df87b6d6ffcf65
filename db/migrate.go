// Package db embeds the schema migrations and runs them at startup.
package db

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx v5 driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies all pending migrations. golang-migrate tracks applied
// versions in schema_migrations, so running this on every startup is
// idempotent. A dirty version means an earlier run died mid-migration;
// that needs a manual `migrate force` and is never auto-repaired here.
//
// connURL must be a postgres:// or postgresql:// URL.
func Migrate(logger *slog.Logger, connURL string) error {
	if logger == nil {
		logger = slog.Default()
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	dbURL, err := migrateURL(connURL)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return fmt.Errorf("connecting for migrations: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("closing migration source", "error", srcErr)
		}
		if dbErr != nil {
			logger.Warn("closing migration connection", "error", dbErr)
		}
	}()

	if err := checkDirty(m, logger); err != nil {
		return err
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("schema up to date")
			return nil
		}
		// Up can leave the version dirty; surface the recovery hint now
		// rather than on the next startup.
		if dirtyErr := checkDirty(m, logger); dirtyErr != nil {
			return fmt.Errorf("migrations failed: %w (%v)", err, dirtyErr)
		}
		return fmt.Errorf("migrations failed: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("migrations applied", "version", version)
	return nil
}

// checkDirty fails when schema_migrations records a half-applied version.
func checkDirty(m *migrate.Migrate, logger *slog.Logger) error {
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("checking migration version: %w", err)
	}
	if dirty {
		logger.Error("database schema is dirty",
			"version", version,
			"hint", fmt.Sprintf("inspect the schema, then run: migrate force %d", version))
		return fmt.Errorf("database in dirty state (version=%d), manual cleanup required", version)
	}
	return nil
}

// migrateURL swaps the URL scheme to pgx5:// so golang-migrate picks its
// pgx v5 driver. Config always builds postgres:// URLs and parseDatabaseURL
// rejects anything else, so only the two postgres schemes are accepted.
func migrateURL(connURL string) (string, error) {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(connURL, scheme); ok {
			return "pgx5://" + rest, nil
		}
	}
	// The URL carries credentials; report only the scheme.
	scheme, _, _ := strings.Cut(connURL, "://")
	return "", fmt.Errorf("unsupported database URL scheme %q: expected postgres or postgresql", scheme)
}
