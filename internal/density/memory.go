package density

import "sync"

// MemoryStore is an in-memory density table guarded by an RWMutex: estimation
// reads take the read lock, the single calibration writer takes the write
// lock, so a reader never observes a partially updated entry.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// NewSeededMemoryStore creates an in-memory store populated from the embedded
// seed table.
func NewSeededMemoryStore() (*MemoryStore, error) {
	seed, err := SeedEntries()
	if err != nil {
		return nil, err
	}
	s := NewMemoryStore()
	for name, entry := range seed {
		s.entries[name] = entry
	}
	return s, nil
}

// Lookup returns the entry for the food, or the default profile when absent.
func (s *MemoryStore) Lookup(foodName string) (Entry, bool) {
	key := NormalizeName(foodName)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.entries[key]; ok {
		return entry, true
	}
	return DefaultEntry(), false
}

// Upsert replaces or inserts an entry.
func (s *MemoryStore) Upsert(foodName string, entry Entry) error {
	key := NormalizeName(foodName)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
