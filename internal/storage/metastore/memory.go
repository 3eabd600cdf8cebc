package metastore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore — потокобезопасное in-memory хранилище.
// Не персистентное: используется для разработки и в тестах.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string][]byte),
	}
}

// Put сохраняет копию значения, чтобы внешние изменения среза не влияли на хранилище.
func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	copied := make([]byte, len(value))
	copy(copied, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = copied
	return nil
}

// Get возвращает копию значения.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

// Keys возвращает ключи в лексикографическом порядке.
func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Scan возвращает снимок всех записей в порядке ключей.
func (s *MemoryStore) Scan(ctx context.Context) ([]Entry, error) {
	keys, _ := s.Keys(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		value, ok := s.values[k]
		if !ok {
			continue
		}
		copied := make([]byte, len(value))
		copy(copied, value)
		entries = append(entries, Entry{Key: k, Value: copied})
	}
	return entries, nil
}

// Count возвращает количество записей.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Ping всегда успешен.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Scanner = (*MemoryStore)(nil)
	_ Pinger  = (*MemoryStore)(nil)
)
