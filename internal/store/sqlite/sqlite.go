// Package sqlite provides a durable store.Provider backed by SQLite.
//
// The Provider contract is synchronous and error-free, so the
// implementation keeps a write-through in-memory cache: Open loads every
// row, reads are served from memory, and mutations update the cache first
// and the database second. Write failures do not surface through the
// Provider API; the first one is recorded and reported by Err and Close.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/laminate-dev/laminate/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);`

// Ensure interface compliance
var _ store.Provider = (*Provider)(nil)

// Provider is a SQLite-backed storage backend. Safe for concurrent use by
// multiple profile views.
type Provider struct {
	db  *sql.DB
	log *slog.Logger

	mu    sync.RWMutex
	cache map[string]any
	err   error
}

// Open opens (creating if needed) the settings database at path and loads
// all rows into memory. Use ":memory:" for a throwaway database.
func Open(path string, log *slog.Logger) (*Provider, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening settings database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating settings table: %w", err)
	}

	cache := make(map[string]any)
	rows, err := db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			db.Close()
			return nil, fmt.Errorf("scanning settings row: %w", err)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			log.Warn("skipping undecodable setting", "key", key, "error", err)
			continue
		}
		cache[key] = value
	}
	if err := rows.Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("iterating settings rows: %w", err)
	}

	return &Provider{db: db, log: log, cache: cache}, nil
}

// Get returns the value stored under key, or def when absent.
func (p *Provider) Get(key string, def any) any {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if v, ok := p.cache[key]; ok {
		return v
	}
	return def
}

// Set stores value under key, writing through to the database.
func (p *Provider) Set(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cache[key] = value

	raw, err := json.Marshal(value)
	if err != nil {
		p.fail(fmt.Errorf("encoding setting %q: %w", key, err))
		return
	}
	_, err = p.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, string(raw))
	if err != nil {
		p.fail(fmt.Errorf("writing setting %q: %w", key, err))
	}
}

// Delete removes key from the cache and the database.
func (p *Provider) Delete(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.cache, key)
	if _, err := p.db.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		p.fail(fmt.Errorf("deleting setting %q: %w", key, err))
	}
}

// Has reports whether key exists.
func (p *Provider) Has(key string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.cache[key]
	return ok
}

// Keys returns every key in the backend.
func (p *Provider) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	keys := make([]string, 0, len(p.cache))
	for k := range p.cache {
		keys = append(keys, k)
	}
	return keys
}

// Err returns the first write failure recorded since Open, if any.
func (p *Provider) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

// Close closes the database, returning any recorded write failure.
func (p *Provider) Close() error {
	p.mu.Lock()
	err := p.err
	p.mu.Unlock()
	return errors.Join(err, p.db.Close())
}

// fail records the first write error; callers hold p.mu.
func (p *Provider) fail(err error) {
	p.log.Error("settings write failed", "error", err)
	if p.err == nil {
		p.err = err
	}
}
