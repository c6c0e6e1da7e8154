package postgres_test

import (
	"os"
	"testing"

	"livechart/config"
	"livechart/pkg/storage/postgres"
)

// go test -v --run TestCreateDatabase
// Uses the postgres section of config.Default() with credentials from
// LIVECHART_POSTGRES_PASSWORD; skipped unless LIVECHART_POSTGRES_DSN is set.
func TestCreateDatabase(t *testing.T) {
	if os.Getenv("LIVECHART_POSTGRES_DSN") == "" {
		t.Skip("LIVECHART_POSTGRES_DSN not set")
	}

	cfg := config.Default().Postgres
	cfg.Password = os.Getenv("LIVECHART_POSTGRES_PASSWORD")
	cfg.DBName = "livechart_create_test"

	if err := postgres.CreateDatabase(cfg, "dev"); err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	// Second call sees the existing database.
	if err := postgres.CreateDatabase(cfg, "dev"); err != nil {
		t.Fatalf("create is not idempotent: %v", err)
	}
}
