// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"testing"

	"go-brindes-ws/internal/repository"
	"go-brindes-ws/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewDB returns a migrated, private in-memory SQLite database that is closed
// when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite(database.MemoryDSN("test-"+uuid.NewString()), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
