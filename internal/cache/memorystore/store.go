package memorystore

import (
	"context"
	"sync"

	"livechart/internal/cache"
)

// MemoryStore keeps cache records in process memory. Records are copied on
// the way in and out so callers never share the stored bytes.
type MemoryStore struct {
	globalMu sync.RWMutex
	data     map[string]*keyRecord
}

type keyRecord struct {
	mu  sync.Mutex
	rec cache.Record
}

func New() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*keyRecord),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (cache.Record, error) {
	s.globalMu.RLock()
	kr, ok := s.data[key]
	s.globalMu.RUnlock()
	if !ok {
		return cache.Record{}, cache.ErrNotFound
	}

	kr.mu.Lock()
	defer kr.mu.Unlock()
	return copyRecord(kr.rec), nil
}

func (s *MemoryStore) Put(_ context.Context, rec cache.Record) error {
	// Fast path: lock the key's slot only
	s.globalMu.RLock()
	kr, ok := s.data[rec.Key]
	s.globalMu.RUnlock()

	if !ok {
		s.globalMu.Lock()
		if kr, ok = s.data[rec.Key]; !ok {
			kr = &keyRecord{}
			s.data[rec.Key] = kr
		}
		s.globalMu.Unlock()
	}

	kr.mu.Lock()
	kr.rec = copyRecord(rec)
	kr.mu.Unlock()
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) Close() error { return nil }

func copyRecord(rec cache.Record) cache.Record {
	cp := rec
	cp.Data = append([]byte(nil), rec.Data...)
	return cp
}
