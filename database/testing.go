package database

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"wellness-entitlements/logger"
)

// OpenTestDB opens a migrated SQLite database in a per-test temp dir.
func OpenTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"), logger.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
