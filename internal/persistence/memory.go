package persistence

import (
	"context"
	"sync"
)

// MemoryKV is a map-backed KVStore for development and tests.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV returns an empty store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return clone(val), nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = clone(value)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *MemoryKV) Apply(_ context.Context, batch Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range batch.Deletes {
		delete(m.data, key)
	}
	for key, val := range batch.Sets {
		m.data[key] = clone(val)
	}
	return nil
}

// Keys returns the stored keys in no particular order.
func (m *MemoryKV) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	return keys
}

func (m *MemoryKV) Ping(context.Context) error { return nil }

func (m *MemoryKV) Close() error { return nil }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
