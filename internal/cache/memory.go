package cache

import (
	"context"
	"sync"
	"time"

	"github.com/joseph-ayodele/winelabel/internal/entity"
)

type memEntry struct {
	rec      entity.ParsedWineRecord
	storedAt time.Time
}

// MemoryStore keeps records in process. A zero TTL never expires entries.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: map[string]memEntry{}, ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key string) (entity.ParsedWineRecord, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return entity.ParsedWineRecord{}, false, nil
	}
	if m.ttl > 0 && m.now().Sub(e.storedAt) > m.ttl {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return entity.ParsedWineRecord{}, false, nil
	}
	return e.rec.Clone(), true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, rec entity.ParsedWineRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memEntry{rec: rec.Clone(), storedAt: m.now()}
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) Close() error { return nil }
