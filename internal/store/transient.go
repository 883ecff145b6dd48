package store

import (
	"iter"
	"slices"
)

// Ensure interface compliance
var _ View = (*Transient)(nil)

// Transient is an exclusive in-memory View for ephemeral profiles. Nothing
// is ever persisted; the data lives for the lifetime of the process. Keys
// keep insertion order.
type Transient struct {
	values map[string]any
	order  []string
}

// NewTransient creates an empty transient view.
func NewTransient() *Transient {
	return &Transient{values: make(map[string]any)}
}

// Get returns the value stored under key, or def when absent.
func (t *Transient) Get(key string, def any) any {
	if v, ok := t.values[key]; ok {
		return v
	}
	return def
}

// Set stores value under key. Overwriting keeps the original position.
func (t *Transient) Set(key string, value any) {
	if _, ok := t.values[key]; !ok {
		t.order = append(t.order, key)
	}
	t.values[key] = value
}

// Delete removes key.
func (t *Transient) Delete(key string) {
	if _, ok := t.values[key]; !ok {
		return
	}
	delete(t.values, key)
	if i := slices.Index(t.order, key); i >= 0 {
		t.order = slices.Delete(t.order, i, i+1)
	}
}

// Has reports whether key exists.
func (t *Transient) Has(key string) bool {
	_, ok := t.values[key]
	return ok
}

// Keys returns all keys in insertion order, excluding the reserved
// enabled-flag key.
func (t *Transient) Keys() []string {
	keys := make([]string, 0, len(t.order))
	for _, k := range t.order {
		if k != EnabledSuffix {
			keys = append(keys, k)
		}
	}
	return keys
}

// Len counts the keys Keys returns.
func (t *Transient) Len() int {
	return len(t.Keys())
}

// Entries returns a lazy sequence of key/value pairs in insertion order.
// Each call yields a fresh, restartable sequence.
func (t *Transient) Entries() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, key := range t.Keys() {
			if !yield(key, t.values[key]) {
				return
			}
		}
	}
}

// Clear deletes every key except the reserved enabled-flag key.
func (t *Transient) Clear() {
	for _, key := range t.Keys() {
		t.Delete(key)
	}
}
