package store

import "sync"

// Ensure interface compliance
var _ Provider = (*Memory)(nil)

// Memory is an in-memory Provider. Useful for tests and setups that do not
// need durability. Safe for concurrent use by multiple views.
type Memory struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewMemory creates an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]any)}
}

// Get returns the value stored under key, or def when absent.
func (m *Memory) Get(key string, def any) any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if v, ok := m.data[key]; ok {
		return v
	}
	return def
}

// Set stores value under key.
func (m *Memory) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Delete removes key.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// Has reports whether key exists.
func (m *Memory) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}

// Keys returns every key in the provider.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
