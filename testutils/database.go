package testutils

import (
	"testing"

	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/config"
)

// SetupTestDB opens a fresh migrated in-memory sqlite database per test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := config.InitDB(config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      ":memory:",
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
