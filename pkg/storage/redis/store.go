package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"livechart/internal/cache"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "livechart:"

// Store keeps each cache record in a Redis hash with "data" and
// "expires_at" fields. Keys carry no TTL; expired records stay readable.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// Open connects to Redis and pings the server.
func Open(ctx context.Context, addr, password string, db int, prefix string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}, nil
}

func (s *Store) Get(ctx context.Context, key string) (cache.Record, error) {
	fields, err := s.rdb.HGetAll(ctx, s.prefix+key).Result()
	if err != nil {
		return cache.Record{}, fmt.Errorf("hgetall %q: %w", key, err)
	}
	data, ok := fields["data"]
	if !ok {
		return cache.Record{}, cache.ErrNotFound
	}
	ms, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return cache.Record{}, fmt.Errorf("parse expires_at of %q: %w", key, err)
	}
	return cache.Record{Key: key, Data: []byte(data), ExpiresAt: time.UnixMilli(ms)}, nil
}

func (s *Store) Put(ctx context.Context, rec cache.Record) error {
	err := s.rdb.HSet(ctx, s.prefix+rec.Key,
		"data", rec.Data,
		"expires_at", rec.ExpiresAt.UnixMilli(),
	).Err()
	if err != nil {
		return fmt.Errorf("hset %q: %w", rec.Key, err)
	}
	return nil
}

// Delete removes a record. Used by tests to clean up.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}

func (s *Store) IsHealthy(ctx context.Context) bool {
	return s.rdb.Ping(ctx).Err() == nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
