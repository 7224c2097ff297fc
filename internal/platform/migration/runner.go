// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

// Package migration runs database schema migrations at application startup
// using golang-migrate with the pgx/v5 driver.
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

/*
RunUp applies all pending up migrations from the given source path.

# Parameters
  - dsn: A postgres:// connection string; converted internally to the
    pgx5:// scheme golang-migrate expects.
  - sourcePath: Filesystem path to the migrations directory.
  - logger: Structured logger; migrate's own log output is bridged to it.

# Returns
  - error: Non-nil if the migration engine could not start, the database
    is in a dirty state, or a migration failed to apply.
*/
func RunUp(dsn, sourcePath string, logger *slog.Logger) error {
	migrator, err := migrate.New("file://"+sourcePath, convertToPgx5DSN(dsn))
	if err != nil {
		return fmt.Errorf("migration: failed to initialize: %w", err)
	}
	defer func() {
		sourceErr, dbErr := migrator.Close()
		if sourceErr != nil {
			logger.Warn("migration source close failed", slog.Any("error", sourceErr))
		}
		if dbErr != nil {
			logger.Warn("migration database close failed", slog.Any("error", dbErr))
		}
	}()

	migrator.Log = &migrateLogger{logger: logger}

	// Refuse to run against a dirty database; a previous migration failed
	// partway and requires manual intervention.
	if version, dirty, err := migrator.Version(); err == nil && dirty {
		return fmt.Errorf("migration: database is dirty at version %d, manual repair required", version)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migrations up to date")
			return nil
		}
		return fmt.Errorf("migration: failed to apply: %w", err)
	}

	version, _, _ := migrator.Version()
	logger.Info("migrations applied", slog.Uint64("version", uint64(version)))

	return nil
}

// convertToPgx5DSN rewrites a postgres:// URL to the pgx5:// scheme so
// golang-migrate selects the pgx/v5 database driver.
func convertToPgx5DSN(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") {
		return "pgx5://" + strings.TrimPrefix(dsn, "postgres://")
	}
	if strings.HasPrefix(dsn, "postgresql://") {
		return "pgx5://" + strings.TrimPrefix(dsn, "postgresql://")
	}
	return dsn
}

// migrateLogger adapts migrate.Logger to slog.
type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, args ...any) {
	l.logger.Info("migrate: " + strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *migrateLogger) Verbose() bool { return false }
