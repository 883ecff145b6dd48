package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/laminate-dev/laminate/internal/event"
	"github.com/laminate-dev/laminate/internal/manager"
	"github.com/laminate-dev/laminate/internal/match"
	"github.com/laminate-dev/laminate/internal/profile"
	"github.com/laminate-dev/laminate/internal/remote"
	"github.com/laminate-dev/laminate/internal/store/sqlite"
)

// app bundles the wired-up components a command works with.
type app struct {
	Manager  *manager.Manager
	Provider *sqlite.Provider
}

// Close flushes and closes the settings database.
func (a *app) Close() error {
	return a.Provider.Close()
}

// openApp wires the storage backend, filter registry and manager, then
// loads the profile list.
func openApp() (*app, error) {
	log := slog.Default()

	provider, err := sqlite.Open(filepath.Join(dataDir, "settings.db"), log)
	if err != nil {
		return nil, err
	}

	filters := match.NewRegistry()
	if err := match.RegisterBuiltins(filters); err != nil {
		provider.Close()
		return nil, fmt.Errorf("registering context filters: %w", err)
	}

	mgr := manager.New(manager.Config{
		Path:     filepath.Join(dataDir, "profiles.yaml"),
		Provider: provider,
		Filters:  filters,
		Events:   event.NewBus(),
		Fetcher:  remote.NewClient(nil, log),
		Logger:   log,
	})
	if err := mgr.Load(); err != nil {
		provider.Close()
		return nil, err
	}

	return &app{Manager: mgr, Provider: provider}, nil
}

// requireProfile resolves a profile id or fails with a usable error.
func requireProfile(a *app, id int) (*profile.Profile, error) {
	p := a.Manager.Profile(id)
	if p == nil {
		return nil, fmt.Errorf("%w: %d", manager.ErrNotFound, id)
	}
	return p, nil
}

// parseValue decodes a settings value: JSON when it parses, raw string
// otherwise, so `set k 5`, `set k true` and `set k hello` all do what they
// look like.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
