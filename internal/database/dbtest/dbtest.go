// Package dbtest provides migrated throwaway databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"pharma-stock/internal/config"
	"pharma-stock/internal/database"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// NewSQLite opens a migrated SQLite database in a temporary directory.
// The database is closed when the test finishes.
func NewSQLite(tb testing.TB) *sqlx.DB {
	tb.Helper()

	svc, err := database.New(context.Background(), config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(tb.TempDir(), "pharmacie_test.db"),
	})
	if err != nil {
		tb.Fatalf("Failed to open test database: %v", err)
	}
	tb.Cleanup(func() {
		_ = svc.Close()
	})

	if err := database.RunMigrations(svc.DB().DB, svc.Driver(), zap.NewNop()); err != nil {
		tb.Fatalf("Failed to migrate test database: %v", err)
	}

	return svc.DB()
}
