// Package cache holds the single-slot "last generation" record. Each user
// owns exactly one slot; every successful generation overwrites it and its
// one-hour validity window is enforced only when the record is read back.
package cache

import (
	"context"
	"sync"
	"time"
)

// TTL bounds how long a cached result stays usable.
const TTL = time.Hour

// Record is the persisted shape of the last successful generation.
// Timestamp is epoch milliseconds, matching the wire format the original
// product stored.
type Record struct {
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
}

// NewRecord stamps a record with the given wall-clock time.
func NewRecord(url string, now time.Time) Record {
	return Record{URL: url, Timestamp: now.UnixMilli()}
}

// Expired reports whether the record has aged past the validity window.
func (r Record) Expired(now time.Time) bool {
	return now.UnixMilli()-r.Timestamp >= TTL.Milliseconds()
}

// Store persists one Record per user. Load returns (nil, nil) when no
// usable record exists; implementations discard records they cannot parse.
type Store interface {
	Load(ctx context.Context, userID string) (*Record, error)
	Save(ctx context.Context, userID string, rec Record) error
	Delete(ctx context.Context, userID string) error
}

// MemoryStore is the fallback Store used when no Redis address is
// configured. Records do not survive a restart.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Load(_ context.Context, userID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) Save(_ context.Context, userID string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = rec
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
