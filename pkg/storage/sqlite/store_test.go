package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"livechart/internal/cache"
	"livechart/pkg/storage/sqlite"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

// go test -v --run TestStoreRoundTrip
func TestStoreRoundTrip(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "cache.db"))
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Get(ctx, "raw:AAPL"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	exp := time.Date(2024, 6, 2, 4, 0, 0, 0, time.UTC)
	if err := s.Put(ctx, cache.Record{Key: "raw:AAPL", Data: []byte(`{"kind":"raw"}`), ExpiresAt: exp}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, cache.Record{Key: "raw:AAPL", Data: []byte(`{"kind":"raw","v":2}`), ExpiresAt: exp.Add(24 * time.Hour)}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	rec, err := s.Get(ctx, "raw:AAPL")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(rec.Data) != `{"kind":"raw","v":2}` {
		t.Errorf("data = %s", rec.Data)
	}
	if !rec.ExpiresAt.Equal(exp.Add(24 * time.Hour)) {
		t.Errorf("expires = %v", rec.ExpiresAt)
	}
	if n, _ := s.Len(ctx); n != 1 {
		t.Errorf("len = %d", n)
	}
}

// go test -v --run TestStoreSurvivesReopen
func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	ctx := context.Background()

	s := openStore(t, path)
	if err := s.Put(ctx, cache.Record{Key: "derived:AAPL:sma", Data: []byte("x"), ExpiresAt: time.Now()}); err != nil {
		t.Fatalf("put: %v", err)
	}
	s.Close()

	s = openStore(t, path)
	defer s.Close()
	if _, err := s.Get(ctx, "derived:AAPL:sma"); err != nil {
		t.Fatalf("record lost across reopen: %v", err)
	}
}

// go test -v --run TestStoreIsHealthy
func TestStoreIsHealthy(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "cache.db"))
	ctx := context.Background()

	if !s.IsHealthy(ctx) {
		t.Fatal("expected open store to be healthy")
	}
	s.Close()
	if s.IsHealthy(ctx) {
		t.Error("closed store reported healthy")
	}
}
