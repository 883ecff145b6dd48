package manager

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laminate-dev/laminate/internal/match"
	"github.com/laminate-dev/laminate/internal/profile"
	"github.com/laminate-dev/laminate/internal/store"
)

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "profiles.yaml")
	}
	if cfg.Provider == nil {
		cfg.Provider = store.NewMemory()
	}
	m := New(cfg)
	require.NoError(t, m.Load())
	return m
}

func Test_Manager_Load_MissingFile(t *testing.T) {
	m := newTestManager(t, Config{})

	profiles := m.Profiles()
	require.Len(t, profiles, 1)
	assert.Equal(t, profile.DefaultID, profiles[0].ID())
	assert.Equal(t, "Default Profile", profiles[0].Name())
	assert.True(t, profiles[0].ShowToggle())
}

func Test_Manager_Load_DefaultComesFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
profiles:
  - id: 3
    name: Raids
  - id: 0
    name: Default Profile
`), 0o644))

	m := newTestManager(t, Config{Path: path})
	profiles := m.Profiles()
	require.Len(t, profiles, 2)
	assert.Equal(t, 3, profiles[0].ID(), "stored order is preserved when the default is present")
	assert.Equal(t, 0, profiles[1].ID())
	assert.NotNil(t, m.Profile(3))
}

func Test_Manager_Load_SkipsBadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
profiles:
  - id: 1
    name: Keep
  - id: 1
    name: Duplicate
  - id: 2
    name: Ghost
    ephemeral: true
`), 0o644))

	m := newTestManager(t, Config{Path: path})
	require.Len(t, m.Profiles(), 2) // default + Keep
	assert.Equal(t, "Keep", m.Profile(1).Name())
	assert.Nil(t, m.Profile(2))
}

func Test_Manager_Load_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles: [not: {valid"), 0o644))

	m := New(Config{Path: path, Provider: store.NewMemory()})
	assert.Error(t, m.Load())
}

func Test_Manager_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	provider := store.NewMemory()

	m := newTestManager(t, Config{Path: path, Provider: provider})
	created, err := m.CreateProfile(profile.Metadata{
		Name:    "Raids",
		Hotkey:  "ctrl+r",
		Context: map[string]any{"channel": "alpha"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID())

	reloaded := newTestManager(t, Config{Path: path, Provider: provider})
	p := reloaded.Profile(1)
	require.NotNil(t, p)
	assert.Equal(t, "Raids", p.Name())
	assert.Equal(t, "ctrl+r", p.Hotkey())
	assert.Equal(t, map[string]any{"channel": "alpha"}, p.Context())
}

func Test_Manager_CreateProfile_AssignsNextID(t *testing.T) {
	m := newTestManager(t, Config{})

	first, err := m.CreateProfile(profile.Metadata{Name: "One", ID: 42})
	require.NoError(t, err)
	assert.Equal(t, 1, first.ID(), "requested identifiers are ignored")

	second, err := m.CreateProfile(profile.Metadata{Name: "Two"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.ID())

	require.NoError(t, m.DeleteProfile(1))
	third, err := m.CreateProfile(profile.Metadata{Name: "Three"})
	require.NoError(t, err)
	assert.Equal(t, 3, third.ID(), "identifiers are never reused while a higher one exists")
}

func Test_Manager_DeleteProfile(t *testing.T) {
	provider := store.NewMemory()
	m := newTestManager(t, Config{Provider: provider})

	p, err := m.CreateProfile(profile.Metadata{Name: "Doomed"})
	require.NoError(t, err)
	p.Set("theme", "dark")
	p.SetEnabled(false)
	require.True(t, provider.Has(store.EnabledKey(p.ID())))

	require.NoError(t, m.DeleteProfile(p.ID()))
	assert.Nil(t, m.Profile(p.ID()))
	assert.Empty(t, provider.Keys(), "settings and the enabled flag are purged")
}

func Test_Manager_DeleteProfile_Errors(t *testing.T) {
	m := newTestManager(t, Config{})
	assert.ErrorIs(t, m.DeleteProfile(profile.DefaultID), ErrDefaultProfile)
	assert.ErrorIs(t, m.DeleteProfile(99), ErrNotFound)
}

func Test_Manager_EphemeralSurvivesReload(t *testing.T) {
	m := newTestManager(t, Config{})

	eph, err := m.CreateProfile(profile.Metadata{Name: "Session", Ephemeral: true})
	require.NoError(t, err)
	eph.Set("theme", "dark")

	// the list file never mentions the ephemeral profile
	raw, err := os.ReadFile(m.path)
	if err == nil {
		assert.NotContains(t, string(raw), "Session")
	}

	require.NoError(t, m.Load())
	p := m.Profile(eph.ID())
	require.NotNil(t, p)
	assert.Equal(t, "dark", p.Get("theme", nil))
}

func Test_Manager_ActiveProfiles(t *testing.T) {
	registry := match.NewRegistry()
	require.NoError(t, match.RegisterBuiltins(registry))
	m := newTestManager(t, Config{Filters: registry})

	raids, err := m.CreateProfile(profile.Metadata{
		Name:    "Raids",
		Context: map[string]any{"channel": "alpha"},
	})
	require.NoError(t, err)
	muted, err := m.CreateProfile(profile.Metadata{Name: "Muted"})
	require.NoError(t, err)
	muted.SetEnabled(false)

	active := m.ActiveProfiles(match.Context{"channel": "alpha"})
	require.Len(t, active, 2)
	assert.Equal(t, profile.DefaultID, active[0].ID())
	assert.Equal(t, raids.ID(), active[1].ID())

	active = m.ActiveProfiles(match.Context{"channel": "beta"})
	require.Len(t, active, 1, "disabled and non-matching profiles drop out")
	assert.Equal(t, profile.DefaultID, active[0].ID())
}

func Test_Manager_UpdateSoonCoalesces(t *testing.T) {
	var mu sync.Mutex
	var passes int
	m := newTestManager(t, Config{
		UpdateDelay: 10 * time.Millisecond,
		ContextSource: func() match.Context {
			return match.Context{}
		},
		OnUpdate: func([]*profile.Profile) {
			mu.Lock()
			passes++
			mu.Unlock()
		},
	})

	m.UpdateSoon()
	m.UpdateSoon()
	m.UpdateSoon()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return passes == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, passes, "pending requests coalesce into one pass")
}

func Test_Manager_ProfileSettersPersist(t *testing.T) {
	m := newTestManager(t, Config{})
	p, err := m.CreateProfile(profile.Metadata{Name: "Before"})
	require.NoError(t, err)

	p.SetName("After")

	reloaded := newTestManager(t, Config{Path: m.path, Provider: m.provider})
	assert.Equal(t, "After", reloaded.Profile(p.ID()).Name())
}

// stubFetcher returns a canned backup document.
type stubFetcher struct{ doc *profile.Backup }

func (f *stubFetcher) Fetch(context.Context, string) (*profile.Backup, error) {
	return f.doc, nil
}

func Test_Manager_SyncedMetadataPersists(t *testing.T) {
	remote := &profile.Backup{
		Version: 2,
		Type:    "profile",
		Profile: &profile.Metadata{
			ShowToggle: true,
			Context:    map[string]any{"channel": "alpha"},
		},
		Values: map[string]any{"theme": "dark"},
	}
	provider := store.NewMemory()
	m := newTestManager(t, Config{Provider: provider, Fetcher: &stubFetcher{doc: remote}})

	p, err := m.CreateProfile(profile.Metadata{Name: "Raids", URL: "https://example.com/p.json"})
	require.NoError(t, err)
	require.True(t, p.CheckUpdate(context.Background()))

	reloaded := newTestManager(t, Config{Path: m.path, Provider: provider})
	got := reloaded.Profile(p.ID())
	require.NotNil(t, got)
	assert.Equal(t, map[string]any{"channel": "alpha"}, got.Context(), "pulled context survives a restart")
	assert.True(t, got.ShowToggle())
	assert.Equal(t, "Raids", got.Name())
	assert.Equal(t, "dark", got.Get("theme", nil))
}

func Test_Manager_ReloadReleasesMatcherSubscriptions(t *testing.T) {
	registry := match.NewRegistry()
	require.NoError(t, match.RegisterBuiltins(registry))
	m := newTestManager(t, Config{Filters: registry})

	_, err := m.CreateProfile(profile.Metadata{
		Name:    "Raids",
		Context: map[string]any{"channel": "alpha"},
	})
	require.NoError(t, err)

	m.ActiveProfiles(match.Context{"channel": "alpha"})
	base := registry.Subscribers()

	for range 10 {
		require.NoError(t, m.Load())
		m.ActiveProfiles(match.Context{"channel": "alpha"})
	}
	assert.Equal(t, base, registry.Subscribers(), "discarded profiles release their subscriptions")
}

func Test_Manager_DeleteReleasesMatcherSubscription(t *testing.T) {
	registry := match.NewRegistry()
	require.NoError(t, match.RegisterBuiltins(registry))
	m := newTestManager(t, Config{Filters: registry})

	p, err := m.CreateProfile(profile.Metadata{
		Name:    "Doomed",
		Context: map[string]any{"channel": "alpha"},
	})
	require.NoError(t, err)
	m.ActiveProfiles(match.Context{"channel": "alpha"})
	before := registry.Subscribers()

	require.NoError(t, m.DeleteProfile(p.ID()))
	assert.Equal(t, before-1, registry.Subscribers())
}

func Test_Manager_SaveProfile_UnknownIDIsQuiet(t *testing.T) {
	m := newTestManager(t, Config{})
	m.SaveProfile(99) // logs, does not panic or persist garbage
	require.NoError(t, m.Load())
	assert.Len(t, m.Profiles(), 1)
}
