package redis_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"livechart/internal/cache"
	"livechart/pkg/storage/redis"
)

// go test -v --run TestRedisStore
// Requires LIVECHART_REDIS_ADDR, e.g. localhost:6379.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("LIVECHART_REDIS_ADDR")
	if addr == "" {
		t.Skip("LIVECHART_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := redis.Open(ctx, addr, "", 0, "livechart-test:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	const key = "raw:AAPL"
	defer s.Delete(ctx, key)

	if _, err := s.Get(ctx, key); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	exp := time.Date(2024, 6, 2, 4, 0, 0, 0, time.UTC)
	if err := s.Put(ctx, cache.Record{Key: key, Data: []byte(`{"kind":"raw"}`), ExpiresAt: exp}); err != nil {
		t.Fatalf("put: %v", err)
	}

	rec, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !s.IsHealthy(ctx) {
		t.Error("expected healthy redis")
	}
	if string(rec.Data) != `{"kind":"raw"}` || !rec.ExpiresAt.Equal(exp) {
		t.Errorf("unexpected record: %+v", rec)
	}
}

// go test -v --run TestRedisUnreachable
func TestRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := redis.Open(ctx, "127.0.0.1:1", "", 0, ""); err == nil {
		t.Fatal("expected ping failure")
	}
}
