package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"livechart/internal/cache"
	"livechart/pkg/storage/postgres"
)

// go test -v --run ^TestPostgresInvalidDSN$
func TestPostgresInvalidDSN(t *testing.T) {
	invalidDSN := "host=invalid port=5432 user=fail password=fail dbname=fail sslmode=disable connect_timeout=1"

	_, err := postgres.NewClient(invalidDSN)
	if err == nil {
		t.Fatal("expected error for invalid DSN, got nil")
	}
}

func newTestClient(t *testing.T) *postgres.PostgresClient {
	t.Helper()
	dsn := os.Getenv("LIVECHART_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LIVECHART_POSTGRES_DSN not set")
	}

	client, err := postgres.NewClient(dsn)
	if err != nil {
		t.Fatalf("failed to create Postgres client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if err := client.AutoMigrate(); err != nil {
		t.Fatalf("auto migration failed: %v", err)
	}
	return client
}

// go test -v --run ^TestPostgresStore$
func TestPostgresStore(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if !client.IsHealthy(ctx) {
		t.Fatal("expected healthy DB connection")
	}

	key := "raw:TEST" + time.Now().Format("150405.000000")
	defer client.DB.Where("key = ?", key).Delete(&postgres.SeriesRecord{})

	if _, err := client.Get(ctx, key); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	exp := time.Date(2024, 6, 2, 4, 0, 0, 0, time.UTC)
	for i, data := range []string{`{"v":1}`, `{"v":2}`} {
		if err := client.Put(ctx, cache.Record{Key: key, Data: []byte(data), ExpiresAt: exp.AddDate(0, 0, i)}); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}

	rec, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(rec.Data) != `{"v":2}` || !rec.ExpiresAt.Equal(exp.AddDate(0, 0, 1)) {
		t.Errorf("expected last write to win, got %+v", rec)
	}
}
