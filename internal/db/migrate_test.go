package db

import (
	"testing"
)

// TestMigrateVersion tests that a fresh database lands on the latest version
func TestMigrateVersion(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if dirty {
		t.Error("Fresh database should not be dirty")
	}
	if version == 0 {
		t.Error("Fresh database should have migrations applied")
	}
}

// TestMigrateUp_Idempotent tests that re-running migrations is a no-op
func TestMigrateUp_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}
}

// TestMigrateDown tests rolling back the initial migration
func TestMigrateDown(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	if err := db.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}

	// The sessions table is gone after rollback.
	if _, err := db.Exec("SELECT COUNT(*) FROM sessions"); err == nil {
		t.Error("Expected sessions table to be dropped")
	}
}

// TestEmbeddedMigrations verifies the embedded migrations filesystem holds
// paired up/down files
func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("No embedded migrations found")
	}
	if len(entries)%2 != 0 {
		t.Errorf("Expected paired up/down migrations, got %d files", len(entries))
	}
}
