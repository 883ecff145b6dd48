// Package store provides the key-value storage layer that profiles layer
// their settings over.
//
// A Provider is a flat, shared key space with no profile awareness. A View
// is a profile-scoped window onto settings: either a Namespaced view over a
// shared Provider (durable) or a Transient view backed by an exclusive
// in-memory map (ephemeral). The view selected at construction never
// changes for the lifetime of a profile.
package store

import "iter"

// EnabledSuffix is the profile-local key under which a profile's enabled
// flag is stored. Combined with a profile prefix it yields a doubled colon
// ("p:1::enabled"); that exact string is what previously persisted flags
// live under, so it must not be normalized.
const EnabledSuffix = ":enabled"

// Provider is the shared storage backend. The contract is synchronous and
// error-free; durable implementations are expected to buffer writes behind
// an in-memory cache and surface persistence failures out of band.
type Provider interface {
	// Get returns the value stored under key, or def when absent.
	Get(key string, def any) any

	// Set stores value under key.
	Set(key string, value any)

	// Delete removes key. Removing an absent key is a no-op.
	Delete(key string)

	// Has reports whether key exists.
	Has(key string) bool

	// Keys returns every key in the backend, across all namespaces.
	Keys() []string
}

// View is a profile-scoped settings surface. Keys are local names: the
// implementation is responsible for any namespace mapping. The reserved
// enabled-flag key (EnabledSuffix) is addressable through Get/Set/Delete/Has
// but never appears in Keys, Len, Entries, and is never removed by Clear.
//
// Views are not safe for concurrent use; profiles run on a single logical
// thread of control.
type View interface {
	Get(key string, def any) any
	Set(key string, value any)
	Delete(key string)
	Has(key string) bool

	// Keys returns all settings keys local to this view, excluding the
	// reserved enabled-flag key.
	Keys() []string

	// Len counts the keys Keys would return.
	Len() int

	// Entries returns a lazy sequence over the same key set as Keys. Each
	// call produces a fresh sequence; ranging twice re-enumerates.
	Entries() iter.Seq2[string, any]

	// Clear deletes every key Keys would return, leaving the reserved
	// enabled-flag key in place.
	Clear()
}
