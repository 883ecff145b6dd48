// Package profile implements profile-scoped settings views.
//
// A Profile is a named, toggleable bundle of settings layered over a shared
// key-value backend: each profile owns the "p:<id>:" slice of the key space
// (or an exclusive in-memory map when ephemeral), decides its applicability
// by matching a context specification against a runtime context, and can
// reconcile its contents with a remotely fetched backup document.
//
// Profiles run on a single logical thread of control and are not safe for
// concurrent use; callers needing stronger guarantees serialize externally.
package profile

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/laminate-dev/laminate/internal/event"
	"github.com/laminate-dev/laminate/internal/hotkey"
	"github.com/laminate-dev/laminate/internal/match"
	"github.com/laminate-dev/laminate/internal/store"
)

// ErrDefaultContext is returned when mutating the default profile's
// context; the default profile matches everywhere, always.
var ErrDefaultContext = errors.New("the default profile has no context")

// Owner is the manager-side surface a profile calls back into. SaveProfiles
// persists the profile list after metadata changes; UpdateSoon schedules a
// deferred re-evaluation of which profiles are active.
type Owner interface {
	SaveProfiles()
	UpdateSoon()
}

// Config carries a profile's collaborators. All fields are optional except
// Provider, which is required for non-ephemeral profiles.
type Config struct {
	Owner    Owner
	Provider store.Provider
	Compiler *match.Compiler
	Events   event.Sink
	Binder   hotkey.Binder
	Fetcher  Fetcher
	Logger   *slog.Logger
}

// Profile is a profile-scoped settings view. Construct with New; the
// ephemeral flag and the backing view are fixed for the profile's lifetime.
type Profile struct {
	data Metadata
	view store.View

	// enabled flag for ephemeral profiles; nil means never set (enabled)
	transientEnabled *bool

	owner    Owner
	compiler *match.Compiler
	events   event.Sink
	fetcher  Fetcher
	log      *slog.Logger

	matcher     match.Predicate
	cancelMatch func()

	rebinder      *hotkey.Rebinder
	hotkeyEnabled bool
}

// New constructs a profile from a stored or built-in metadata record. Any
// context on the default profile record is dropped.
func New(data Metadata, cfg Config) *Profile {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if data.ID == DefaultID && data.Context != nil {
		log.Warn("dropping context from default profile record")
		data.Context = nil
	}

	var view store.View
	if data.Ephemeral {
		view = store.NewTransient()
	} else {
		view = store.NewNamespaced(cfg.Provider, data.ID)
	}

	var events event.Sink = cfg.Events
	if events == nil {
		events = event.Discard{}
	}

	return &Profile{
		data:     data.Clone(),
		view:     view,
		owner:    cfg.Owner,
		compiler: cfg.Compiler,
		events:   events,
		fetcher:  cfg.Fetcher,
		log:      log,
		rebinder: hotkey.NewRebinder(cfg.Binder),
	}
}

// ID returns the profile's unique identifier.
func (p *Profile) ID() int { return p.data.ID }

// Ephemeral reports whether the profile's data lives only in memory.
func (p *Profile) Ephemeral() bool { return p.data.Ephemeral }

// Name returns the profile's display name.
func (p *Profile) Name() string { return p.data.Name }

// SetName updates the display name and persists the profile list.
func (p *Profile) SetName(name string) {
	p.data.Name = name
	p.saveProfiles()
}

// Description returns the profile's description.
func (p *Profile) Description() string { return p.data.Description }

// SetDescription updates the description and persists the profile list.
func (p *Profile) SetDescription(desc string) {
	p.data.Description = desc
	p.saveProfiles()
}

// URL returns the remote source for CheckUpdate, or "".
func (p *Profile) URL() string { return p.data.URL }

// SetURL updates the remote source and persists the profile list.
func (p *Profile) SetURL(url string) {
	p.data.URL = url
	p.saveProfiles()
}

// PauseUpdates reports whether remote synchronization is suppressed.
func (p *Profile) PauseUpdates() bool { return p.data.PauseUpdates }

// SetPauseUpdates toggles remote-sync suppression and persists the list.
func (p *Profile) SetPauseUpdates(paused bool) {
	p.data.PauseUpdates = paused
	p.saveProfiles()
}

// ShowToggle reports whether a toggle control should be surfaced.
func (p *Profile) ShowToggle() bool { return p.data.ShowToggle }

// Data returns a copy of the profile's metadata record.
func (p *Profile) Data() Metadata { return p.data.Clone() }

// SetData wholesale-replaces the metadata record, used during remote-update
// reconciliation. The identifier and ephemeral flag cannot change; a
// default-profile record may not carry a context. Replacing the data
// invalidates the cached matcher, re-evaluates the hotkey binding and
// persists the profile list like the other metadata setters.
func (p *Profile) SetData(data Metadata) error {
	if data.ID != p.data.ID {
		return fmt.Errorf("profile %d: cannot change id to %d", p.data.ID, data.ID)
	}
	if data.ID == DefaultID && len(data.Context) != 0 {
		return ErrDefaultContext
	}
	data.Ephemeral = p.data.Ephemeral
	p.data = data.Clone()
	p.invalidateMatcher()
	p.rebind()
	p.saveProfiles()
	return nil
}

// Context returns a copy of the context specification.
func (p *Profile) Context() map[string]any { return cloneContext(p.data.Context) }

// SetContext replaces the context specification wholesale, invalidating the
// cached matcher and persisting the profile list. Fails for the default
// profile.
func (p *Profile) SetContext(spec map[string]any) error {
	if p.data.ID == DefaultID {
		return ErrDefaultContext
	}
	p.data.Context = cloneContext(spec)
	p.invalidateMatcher()
	p.saveProfiles()
	return nil
}

// UpdateContext shallow-merges spec into the existing context, creating one
// if absent. Same invalidation and persistence as SetContext; fails for the
// default profile.
func (p *Profile) UpdateContext(spec map[string]any) error {
	if p.data.ID == DefaultID {
		return ErrDefaultContext
	}
	if p.data.Context == nil {
		p.data.Context = make(map[string]any, len(spec))
	}
	for key, value := range spec {
		p.data.Context[key] = value
	}
	p.invalidateMatcher()
	p.saveProfiles()
	return nil
}

// Matches reports whether the profile applies to ctx. The predicate is
// compiled lazily from the context specification and cached until the
// specification or a filter definition changes. A profile with no context
// matches every ctx.
func (p *Profile) Matches(ctx match.Context) bool {
	if p.matcher == nil {
		p.matcher = p.compileMatcher()
	}
	return p.matcher(ctx)
}

func (p *Profile) compileMatcher() match.Predicate {
	if p.compiler == nil {
		return func(match.Context) bool { return true }
	}
	pred, cancel := p.compiler.Compile(p.data.Context, match.Options{}, p.onFiltersChanged)
	p.cancelMatch = cancel
	return pred
}

// onFiltersChanged runs when a filter definition changes out of band. The
// matcher is not recomputed inline; the next Matches call recompiles and
// the owner schedules a deferred re-evaluation pass.
func (p *Profile) onFiltersChanged() {
	p.invalidateMatcher()
	if p.owner != nil {
		p.owner.UpdateSoon()
	}
}

// Release detaches the profile from its shared collaborators: the registry
// subscription behind the cached matcher is cancelled and any bound hotkey
// is unbound. The owner calls this when a profile is discarded; a released
// profile must not be used again.
func (p *Profile) Release() {
	p.invalidateMatcher()
	p.hotkeyEnabled = false
	p.rebind()
}

func (p *Profile) invalidateMatcher() {
	if p.cancelMatch != nil {
		p.cancelMatch()
		p.cancelMatch = nil
	}
	p.matcher = nil
}

// Get returns the setting stored under key, or def when absent.
func (p *Profile) Get(key string, def any) any {
	return p.view.Get(key, def)
}

// Set stores a setting and emits a Changed event.
func (p *Profile) Set(key string, value any) {
	p.view.Set(key, value)
	p.events.Changed(event.Changed{ProfileID: p.data.ID, Key: key, Value: value})
}

// Delete removes a setting and emits a Changed event with Deleted set.
func (p *Profile) Delete(key string) {
	p.view.Delete(key)
	p.events.Changed(event.Changed{ProfileID: p.data.ID, Key: key, Deleted: true})
}

// Has reports whether key is set on this profile.
func (p *Profile) Has(key string) bool { return p.view.Has(key) }

// Keys returns the profile's settings keys, reserved flag excluded.
func (p *Profile) Keys() []string { return p.view.Keys() }

// Len counts the keys Keys returns.
func (p *Profile) Len() int { return p.view.Len() }

// Entries returns a fresh lazy sequence of key/value pairs on each call.
func (p *Profile) Entries() iter.Seq2[string, any] { return p.view.Entries() }

// Clear deletes every setting, emitting one Changed event per key. The
// reserved enabled flag survives. Not atomic: a backend failure mid-way
// leaves the profile partially cleared.
func (p *Profile) Clear() {
	for _, key := range p.view.Keys() {
		p.Delete(key)
	}
}

// Enabled reports the profile's toggled state. Profiles are enabled unless
// explicitly disabled.
func (p *Profile) Enabled() bool {
	if p.data.Ephemeral {
		if p.transientEnabled == nil {
			return true
		}
		return *p.transientEnabled
	}
	v, ok := p.view.Get(store.EnabledSuffix, true).(bool)
	if !ok {
		return true
	}
	return v
}

// SetEnabled persists the toggled state and emits a Toggled event. Setting
// the state Enabled already reports is a no-op: the guard reads the same
// getter it is about to overwrite, so exactly one event fires per actual
// transition.
func (p *Profile) SetEnabled(enabled bool) {
	if enabled == p.Enabled() {
		return
	}
	if p.data.Ephemeral {
		p.transientEnabled = &enabled
	} else {
		p.view.Set(store.EnabledSuffix, enabled)
	}
	p.events.Toggled(event.Toggled{ProfileID: p.data.ID, Enabled: enabled})
}

// Toggle flips the enabled state.
func (p *Profile) Toggle() { p.SetEnabled(!p.Enabled()) }

// Hotkey returns the profile's key combo, or "".
func (p *Profile) Hotkey() string { return p.data.Hotkey }

// SetHotkey updates the stored combo and persists the list. If hotkey
// binding is enabled the binder is rebound to the new combo.
func (p *Profile) SetHotkey(combo string) {
	p.data.Hotkey = combo
	p.saveProfiles()
	if p.hotkeyEnabled {
		p.rebind()
	}
}

// HotkeyEnabled reports whether the combo is currently bound on the binder.
// False when binding is disabled, but also when it is enabled and the combo
// is empty or invalid.
func (p *Profile) HotkeyEnabled() bool { return p.rebinder.Bound() != "" }

// SetHotkeyEnabled enables or disables hotkey binding and re-evaluates the
// binder state.
func (p *Profile) SetHotkeyEnabled(enabled bool) {
	p.hotkeyEnabled = enabled
	p.rebind()
}

func (p *Profile) rebind() {
	p.rebinder.Apply(p.data.Hotkey, p.hotkeyEnabled, p.handleHotkey)
}

// handleHotkey flips the toggled state and consumes the originating input
// event if the binder supplied one.
func (p *Profile) handleHotkey(ev *hotkey.Event) {
	p.Toggle()
	ev.Consume()
}

// Backup produces a snapshot of the profile: metadata (ephemeral flag
// omitted), toggled state and the full settings map. Pure; no side effects.
func (p *Profile) Backup() *Backup {
	values := make(map[string]any)
	for key, value := range p.view.Entries() {
		values[key] = value
	}
	meta := p.data.Clone()
	meta.Ephemeral = false
	return &Backup{
		Version: BackupVersion,
		Type:    BackupType,
		Profile: &meta,
		Toggled: p.Enabled(),
		Values:  values,
	}
}

// CheckUpdate pulls the remote backup document and reconciles local state
// with it. Returns false, touching nothing, when no URL is configured,
// updates are paused, or no fetcher is available; any fetch, parse or shape
// failure also collapses to false. On success the incoming metadata is
// applied with identity fields stripped and the local key set is made an
// exact mirror of the snapshot's: a full sync, not a merge.
//
// Nothing guards against concurrent mutation while the fetch is pending;
// callers keep at most one CheckUpdate in flight per profile.
func (p *Profile) CheckUpdate(ctx context.Context) bool {
	if p.data.URL == "" || p.data.PauseUpdates {
		return false
	}
	if p.fetcher == nil {
		p.log.Debug("no fetcher configured", "profile", p.data.ID)
		return false
	}

	doc, err := p.fetcher.Fetch(ctx, p.data.URL)
	if err != nil {
		p.log.Warn("profile update fetch failed",
			"profile", p.data.ID, "url", p.data.URL, "error", err)
		return false
	}
	if doc == nil || doc.Type != BackupType || doc.Profile == nil || doc.Values == nil {
		p.log.Warn("remote document is not a profile backup",
			"profile", p.data.ID, "url", p.data.URL)
		return false
	}

	if err := p.SetData(mergeIdentity(*doc.Profile, p.data)); err != nil {
		p.log.Warn("remote metadata rejected", "profile", p.data.ID, "error", err)
		return false
	}

	for key, value := range doc.Values {
		p.Set(key, value)
	}
	for _, key := range p.Keys() {
		if _, ok := doc.Values[key]; !ok {
			p.Delete(key)
		}
	}
	return true
}

func (p *Profile) saveProfiles() {
	if p.owner != nil {
		p.owner.SaveProfiles()
	}
}
