package database

import (
	"database/sql"
	"fmt"
	"strings"

	"pharma-stock/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// gooseLogger sends goose output through zap
type gooseLogger struct {
	*zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// migrationSource returns the goose dialect and embedded directory for a driver
func migrationSource(driver string) (dialect, dir string, err error) {
	switch driver {
	case DriverPostgres:
		return "postgres", migrations.PostgresDir, nil
	case DriverSQLite:
		return "sqlite3", migrations.SQLiteDir, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// setupGoose points goose at the embedded migrations for driver and returns their directory
func setupGoose(driver string, logger *zap.Logger) (string, error) {
	dialect, dir, err := migrationSource(driver)
	if err != nil {
		return "", err
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{logger.Named("goose").Sugar()})
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return dir, nil
}

// RunMigrations executes all pending database migrations
func RunMigrations(db *sql.DB, driver string, logger *zap.Logger) error {
	dir, err := setupGoose(driver, logger)
	if err != nil {
		return err
	}

	logger.Info("Checking for pending migrations...",
		zap.String("driver", driver),
		zap.String("dir", dir),
	)

	if err := goose.Up(db, dir); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Migrations completed successfully")
	return nil
}

// GetMigrationStatus logs the state of every migration and returns the
// current schema version
func GetMigrationStatus(db *sql.DB, driver string, logger *zap.Logger) (int64, error) {
	dir, err := setupGoose(driver, logger)
	if err != nil {
		return 0, err
	}

	if err := goose.Status(db, dir); err != nil {
		return 0, fmt.Errorf("failed to read migration status: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	return version, nil
}
