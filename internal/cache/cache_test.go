package cache_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"livechart/internal/cache"
	"livechart/internal/cache/memorystore"
	"livechart/internal/series"

	"go.uber.org/zap"
)

// failingStore fails every operation.
type failingStore struct{ err error }

func (s failingStore) Get(context.Context, string) (cache.Record, error) {
	return cache.Record{}, s.err
}

func (s failingStore) Put(context.Context, cache.Record) error {
	return s.err
}

func (s failingStore) Close() error {
	return nil
}

type fakeTime struct{ t time.Time }

func (f *fakeTime) now() time.Time { return f.t }

func newCache(t *testing.T, store cache.Store, ft *fakeTime) *cache.SeriesCache {
	t.Helper()
	clock, err := cache.LoadClock("America/New_York")
	if err != nil {
		t.Fatalf("clock: %v", err)
	}
	return cache.New(store, clock.WithNow(ft.now), zap.NewNop())
}

func bars(dates ...string) *series.RawSeries {
	s := &series.RawSeries{Bars: []series.Bar{}}
	for i, d := range dates {
		f := float64(i + 1)
		s.Bars = append(s.Bars, series.Bar{Date: d, Open: f, High: f + 1, Low: f - 0.5, Close: f + 0.5, AdjClose: f + 0.5, Volume: 100 * f})
	}
	return s
}

// go test -v --run TestSeriesCacheRoundTrip
func TestSeriesCacheRoundTrip(t *testing.T) {
	ft := &fakeTime{t: time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)}
	c := newCache(t, memorystore.New(), ft)
	ctx := context.Background()

	p := bars("2024-05-31", "2024-06-01")
	if err := c.Put(ctx, series.RawKey("AAPL"), p); err != nil {
		t.Fatalf("put: %v", err)
	}

	entry, ok := c.Get(ctx, series.RawKey("AAPL"))
	if !ok {
		t.Fatal("expected entry")
	}
	if !reflect.DeepEqual(entry.Payload, series.Payload(p)) {
		t.Errorf("payload = %+v, want %+v", entry.Payload, p)
	}
	if !entry.ExpiresAt.After(ft.t) {
		t.Errorf("expiresAt %s not after now %s", entry.ExpiresAt, ft.t)
	}
	want := time.Date(2024, 6, 2, 4, 0, 0, 0, time.UTC)
	if !entry.ExpiresAt.Equal(want) {
		t.Errorf("expiresAt = %s, want %s", entry.ExpiresAt, want)
	}
}

// go test -v --run TestSeriesCacheReturnsStaleEntries
func TestSeriesCacheReturnsStaleEntries(t *testing.T) {
	ft := &fakeTime{t: time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)}
	c := newCache(t, memorystore.New(), ft)
	ctx := context.Background()

	if err := c.Put(ctx, "AAPL", bars("2024-06-01")); err != nil {
		t.Fatalf("put: %v", err)
	}
	ft.t = ft.t.Add(48 * time.Hour)

	entry, ok := c.Get(ctx, "AAPL")
	if !ok {
		t.Fatal("stale entry must still be readable")
	}
	if entry.Live(ft.t) {
		t.Error("entry should be expired")
	}
}

// go test -v --run TestSeriesCacheMissing
func TestSeriesCacheMissing(t *testing.T) {
	c := newCache(t, memorystore.New(), &fakeTime{t: time.Now()})
	if _, ok := c.Get(context.Background(), "MSFT"); ok {
		t.Fatal("expected miss")
	}
}

// go test -v --run TestSeriesCacheCorruptEntryIsAbsent
func TestSeriesCacheCorruptEntryIsAbsent(t *testing.T) {
	store := memorystore.New()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	_ = store.Put(ctx, cache.Record{Key: "AAPL", Data: []byte("{garbage"), ExpiresAt: exp})
	_ = store.Put(ctx, cache.Record{Key: "AAPL:sma", Data: []byte(`{"kind":"derived","data":[1,2]}`), ExpiresAt: exp})

	c := newCache(t, store, &fakeTime{t: time.Now()})
	for _, k := range []series.Key{"AAPL", "AAPL:sma"} {
		if _, ok := c.Get(ctx, k); ok {
			t.Errorf("%s: corrupt entry must read as absent", k)
		}
	}
}

// go test -v --run TestSeriesCacheStoreFailures
func TestSeriesCacheStoreFailures(t *testing.T) {
	boom := errors.New("disk full")
	c := newCache(t, failingStore{err: boom}, &fakeTime{t: time.Now()})
	ctx := context.Background()

	if _, ok := c.Get(ctx, "AAPL"); ok {
		t.Fatal("read failure must read as absent")
	}

	err := c.Put(ctx, "AAPL", bars("2024-06-01"))
	var se *cache.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
}
