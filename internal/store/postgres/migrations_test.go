package postgres

import (
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func TestMigrationFS_HasFieldSchema(t *testing.T) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}
	defer src.Close()

	version, err := src.First()
	if err != nil {
		t.Fatalf("expected at least one migration: %v", err)
	}
	if version != 1 {
		t.Errorf("expected first migration version 1, got %d", version)
	}
}
