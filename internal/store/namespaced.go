package store

import (
	"iter"
	"strconv"
	"strings"
)

// Prefix returns the key prefix a profile's settings are stored under.
func Prefix(id int) string {
	return "p:" + strconv.Itoa(id) + ":"
}

// EnabledKey returns the full backend key for a profile's enabled flag.
// Note the doubled colon produced by Prefix + EnabledSuffix; it is kept as
// is for compatibility with existing stored flags.
func EnabledKey(id int) string {
	return Prefix(id) + EnabledSuffix
}

// Ensure interface compliance
var _ View = (*Namespaced)(nil)

// Namespaced is a profile-scoped View over a shared Provider. Every local
// key maps to prefix+key in the backend; enumeration walks the full backend
// key space and filters by prefix, so Len and Keys cost O(total keys in the
// backend), an accepted inefficiency.
type Namespaced struct {
	provider Provider
	prefix   string
}

// NewNamespaced creates a view over provider scoped to the given profile id.
func NewNamespaced(provider Provider, id int) *Namespaced {
	return &Namespaced{provider: provider, prefix: Prefix(id)}
}

// Get returns the value stored under the namespaced key, or def when absent.
func (n *Namespaced) Get(key string, def any) any {
	return n.provider.Get(n.prefix+key, def)
}

// Set stores value under the namespaced key.
func (n *Namespaced) Set(key string, value any) {
	n.provider.Set(n.prefix+key, value)
}

// Delete removes the namespaced key.
func (n *Namespaced) Delete(key string) {
	n.provider.Delete(n.prefix + key)
}

// Has reports whether the namespaced key exists.
func (n *Namespaced) Has(key string) bool {
	return n.provider.Has(n.prefix + key)
}

// Keys returns the local keys of this view. Order follows backend
// enumeration order and is not guaranteed stable across backends.
func (n *Namespaced) Keys() []string {
	var keys []string
	for _, full := range n.provider.Keys() {
		if local, ok := n.local(full); ok {
			keys = append(keys, local)
		}
	}
	return keys
}

// Len counts the keys Keys returns.
func (n *Namespaced) Len() int {
	count := 0
	for _, full := range n.provider.Keys() {
		if _, ok := n.local(full); ok {
			count++
		}
	}
	return count
}

// Entries returns a lazy sequence of local key/value pairs. The key set is
// snapshotted when iteration starts; values are read as the sequence is
// consumed. Each call yields a fresh, restartable sequence.
func (n *Namespaced) Entries() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, key := range n.Keys() {
			if !yield(key, n.Get(key, nil)) {
				return
			}
		}
	}
}

// Clear deletes every local key, leaving the reserved enabled flag and keys
// of other namespaces untouched. Not atomic: a backend failure mid-way
// leaves the view partially cleared.
func (n *Namespaced) Clear() {
	for _, key := range n.Keys() {
		n.Delete(key)
	}
}

// local strips the namespace prefix, reporting false for keys outside this
// view or equal to the reserved enabled-flag key.
func (n *Namespaced) local(full string) (string, bool) {
	rest, ok := strings.CutPrefix(full, n.prefix)
	if !ok || rest == EnabledSuffix {
		return "", false
	}
	return rest, true
}
