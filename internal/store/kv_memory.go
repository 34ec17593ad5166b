package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// memoryKeyValue is an in-memory [KeyValue] used for tests and for the
// ":memory:" DSN. Values are copied on the way in and out so callers cannot
// alias the stored slices.
type memoryKeyValue struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryKeyValue() KeyValue {
	return &memoryKeyValue{values: make(map[string][]byte)}
}

func (m *memoryKeyValue) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return append([]byte(nil), value...), nil
}

func (m *memoryKeyValue) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryKeyValue) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

func (m *memoryKeyValue) DeleteAll(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryKeyValue) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
