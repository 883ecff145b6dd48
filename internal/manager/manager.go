// Package manager owns the set of profiles: it loads and persists their
// metadata records, constructs Profile instances over the shared storage
// backend, and schedules deferred re-evaluation of which profiles are
// active when contexts or filter definitions change.
package manager

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/laminate-dev/laminate/internal/event"
	"github.com/laminate-dev/laminate/internal/hotkey"
	"github.com/laminate-dev/laminate/internal/match"
	"github.com/laminate-dev/laminate/internal/profile"
	"github.com/laminate-dev/laminate/internal/store"
)

// ErrDefaultProfile is returned when deleting the default profile.
var ErrDefaultProfile = errors.New("the default profile cannot be deleted")

// ErrNotFound is returned for unknown profile identifiers.
var ErrNotFound = errors.New("profile not found")

// defaultUpdateDelay debounces UpdateSoon requests.
const defaultUpdateDelay = 50 * time.Millisecond

// Config carries the manager's collaborators.
type Config struct {
	// Path is the YAML file the profile list is persisted to.
	Path string

	// Provider is the shared storage backend for non-ephemeral profiles.
	Provider store.Provider

	// Filters is the context-filter registry the predicate compiler uses.
	Filters *match.Registry

	Events  *event.Bus
	Binder  hotkey.Binder
	Fetcher profile.Fetcher
	Logger  *slog.Logger

	// ContextSource supplies the current runtime context for Update passes.
	ContextSource func() match.Context

	// OnUpdate receives the active profile set after each Update pass.
	OnUpdate func(active []*profile.Profile)

	// UpdateDelay overrides the UpdateSoon debounce window.
	UpdateDelay time.Duration
}

// profilesFile is the on-disk shape of the profile list.
type profilesFile struct {
	Profiles []profile.Metadata `yaml:"profiles"`
}

// Ensure interface compliance
var _ profile.Owner = (*Manager)(nil)

// Manager orchestrates profile persistence and refresh. Safe for
// concurrent use; individual profiles are only touched under the manager's
// lock.
type Manager struct {
	path     string
	provider store.Provider
	filters  *match.Registry
	compiler *match.Compiler
	events   *event.Bus
	binder   hotkey.Binder
	fetcher  profile.Fetcher
	log      *slog.Logger

	contextSource func() match.Context
	onUpdate      func([]*profile.Profile)
	updateDelay   time.Duration

	mu       sync.RWMutex
	profiles []*profile.Profile
	byID     map[int]*profile.Profile

	timerMu     sync.Mutex
	updateTimer *time.Timer
}

// New creates a manager. Call Load before use.
func New(cfg Config) *Manager {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	filters := cfg.Filters
	if filters == nil {
		filters = match.NewRegistry()
	}
	delay := cfg.UpdateDelay
	if delay <= 0 {
		delay = defaultUpdateDelay
	}

	return &Manager{
		path:          cfg.Path,
		provider:      cfg.Provider,
		filters:       filters,
		compiler:      match.NewCompiler(filters, log),
		events:        cfg.Events,
		binder:        cfg.Binder,
		fetcher:       cfg.Fetcher,
		log:           log,
		contextSource: cfg.ContextSource,
		onUpdate:      cfg.OnUpdate,
		updateDelay:   delay,
	}
}

// Filters returns the context-filter registry.
func (m *Manager) Filters() *match.Registry { return m.filters }

// SetOnUpdate replaces the hook that receives the active set after each
// Update pass. Call before any Update runs; the hook is not guarded.
func (m *Manager) SetOnUpdate(fn func(active []*profile.Profile)) { m.onUpdate = fn }

// Provider returns the shared storage backend.
func (m *Manager) Provider() store.Provider { return m.provider }

// Load reads the profile list from disk, guaranteeing the default profile
// (id 0) exists and comes first. A missing file is not an error. Ephemeral
// profiles already held in memory survive a reload.
func (m *Manager) Load() error {
	var file profilesFile
	raw, err := os.ReadFile(m.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// first run
	case err != nil:
		return fmt.Errorf("reading profiles from %s: %w", m.path, err)
	default:
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return fmt.Errorf("parsing profiles from %s: %w", m.path, err)
		}
	}

	records := file.Profiles
	if !slices.ContainsFunc(records, func(r profile.Metadata) bool { return r.ID == profile.DefaultID }) {
		records = append([]profile.Metadata{defaultRecord()}, records...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var ephemeral []*profile.Profile
	for _, p := range m.profiles {
		if p.Ephemeral() {
			ephemeral = append(ephemeral, p)
		} else {
			p.Release()
		}
	}

	m.profiles = nil
	m.byID = make(map[int]*profile.Profile, len(records)+len(ephemeral))
	for _, rec := range records {
		if rec.Ephemeral {
			m.log.Warn("ignoring persisted ephemeral profile record", "id", rec.ID)
			continue
		}
		if _, dup := m.byID[rec.ID]; dup {
			m.log.Warn("ignoring duplicate profile record", "id", rec.ID)
			continue
		}
		p := m.newProfile(rec)
		m.profiles = append(m.profiles, p)
		m.byID[rec.ID] = p
	}
	for _, p := range ephemeral {
		if _, dup := m.byID[p.ID()]; dup {
			p.Release()
			continue
		}
		m.profiles = append(m.profiles, p)
		m.byID[p.ID()] = p
	}

	m.log.Debug("profiles loaded", "count", len(m.profiles), "path", m.path)
	return nil
}

// Save persists the profile list, atomically replacing the file. Ephemeral
// profiles are never written.
func (m *Manager) Save() error {
	m.mu.RLock()
	records := m.recordsLocked()
	m.mu.RUnlock()
	return m.persist(records)
}

// SaveProfiles persists the list, logging rather than returning failures.
// Profiles call this after metadata mutations, where no error channel
// exists.
func (m *Manager) SaveProfiles() {
	if err := m.Save(); err != nil {
		m.log.Error("saving profiles failed", "error", err)
	}
}

// SaveProfile persists the record for a single profile. The list file is
// the unit of persistence, so this saves the whole list.
func (m *Manager) SaveProfile(id int) {
	m.mu.RLock()
	_, ok := m.byID[id]
	m.mu.RUnlock()
	if !ok {
		m.log.Warn("save requested for unknown profile", "id", id)
		return
	}
	m.SaveProfiles()
}

// UpdateSoon schedules a deferred Update pass. Requests arriving while one
// is pending coalesce into it.
func (m *Manager) UpdateSoon() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.updateTimer != nil {
		return
	}
	m.updateTimer = time.AfterFunc(m.updateDelay, func() {
		m.timerMu.Lock()
		m.updateTimer = nil
		m.timerMu.Unlock()
		m.Update()
	})
}

// Update re-evaluates every profile against the current context and hands
// the active set to the configured hook.
func (m *Manager) Update() {
	var ctx match.Context
	if m.contextSource != nil {
		ctx = m.contextSource()
	}
	active := m.ActiveProfiles(ctx)
	if m.onUpdate != nil {
		m.onUpdate(active)
	}
}

// Profiles returns the profile list in order, default profile first.
func (m *Manager) Profiles() []*profile.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.profiles)
}

// Profile returns the profile with the given id, or nil.
func (m *Manager) Profile(id int) *profile.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byID[id]
}

// ActiveProfiles returns the profiles that are enabled and match ctx.
// Matching may compile predicates, so this takes the write lock.
func (m *Manager) ActiveProfiles(ctx match.Context) []*profile.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()

	var active []*profile.Profile
	for _, p := range m.profiles {
		if p.Enabled() && p.Matches(ctx) {
			active = append(active, p)
		}
	}
	return active
}

// CreateProfile adds a profile with the next free identifier and persists
// the list. The record's ID field is assigned by the manager.
func (m *Manager) CreateProfile(rec profile.Metadata) (*profile.Profile, error) {
	m.mu.Lock()
	rec.ID = m.nextIDLocked()
	p := m.newProfile(rec)
	m.profiles = append(m.profiles, p)
	m.byID[rec.ID] = p
	records := m.recordsLocked()
	m.mu.Unlock()

	if !rec.Ephemeral {
		if err := m.persist(records); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// DeleteProfile removes a profile, purging its settings and enabled flag
// from the backend, and persists the list. The default profile cannot be
// deleted.
func (m *Manager) DeleteProfile(id int) error {
	if id == profile.DefaultID {
		return ErrDefaultProfile
	}

	m.mu.Lock()
	p, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	for _, key := range p.Keys() {
		p.Delete(key)
	}
	if !p.Ephemeral() && m.provider != nil {
		m.provider.Delete(store.EnabledKey(id))
	}
	p.Release()
	delete(m.byID, id)
	m.profiles = slices.DeleteFunc(m.profiles, func(q *profile.Profile) bool { return q.ID() == id })
	records := m.recordsLocked()
	ephemeral := p.Ephemeral()
	m.mu.Unlock()

	if ephemeral {
		return nil
	}
	return m.persist(records)
}

// newProfile wires a profile to the manager's collaborators; callers hold
// the lock or are constructing.
func (m *Manager) newProfile(rec profile.Metadata) *profile.Profile {
	return profile.New(rec, profile.Config{
		Owner:    m,
		Provider: m.provider,
		Compiler: m.compiler,
		Events:   m.events,
		Binder:   m.binder,
		Fetcher:  m.fetcher,
		Logger:   m.log,
	})
}

// recordsLocked snapshots the persistable metadata records.
func (m *Manager) recordsLocked() []profile.Metadata {
	records := make([]profile.Metadata, 0, len(m.profiles))
	for _, p := range m.profiles {
		if p.Ephemeral() {
			continue
		}
		records = append(records, p.Data())
	}
	return records
}

// nextIDLocked returns the lowest identifier above every existing one.
func (m *Manager) nextIDLocked() int {
	next := profile.DefaultID + 1
	for id := range m.byID {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// persist atomically replaces the profiles file.
func (m *Manager) persist(records []profile.Metadata) error {
	raw, err := yaml.Marshal(profilesFile{Profiles: records})
	if err != nil {
		return fmt.Errorf("encoding profiles: %w", err)
	}

	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating profiles directory: %w", err)
		}
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing profiles: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replacing profiles file: %w", err)
	}
	return nil
}

// defaultRecord is the built-in always-present profile.
func defaultRecord() profile.Metadata {
	return profile.Metadata{
		ID:          profile.DefaultID,
		Name:        "Default Profile",
		I18nKey:     "setting.profiles.default",
		Description: "Settings that apply everywhere.",
		DescI18nKey: "setting.profiles.default.description",
		ShowToggle:  true,
	}
}
