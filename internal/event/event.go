// Package event carries typed change notifications emitted by profiles.
//
// Profiles emit through a Sink; the Bus implementation fans events out to
// registered observers. Payloads are typed structs rather than name/args
// pairs so observers get compile-time checking.
package event

import "sync"

// Changed is emitted for every settings mutation on a profile.
type Changed struct {
	// ProfileID identifies the emitting profile.
	ProfileID int

	// Key is the profile-local settings key.
	Key string

	// Value is the new value. Nil for deletions.
	Value any

	// Deleted reports whether the mutation removed the key.
	Deleted bool
}

// Toggled is emitted when a profile's enabled state actually changes.
type Toggled struct {
	ProfileID int
	Enabled   bool
}

// Sink receives profile events. The zero-value Discard sink and the Bus
// both satisfy it.
type Sink interface {
	Changed(Changed)
	Toggled(Toggled)
}

// Discard is a Sink that drops every event.
type Discard struct{}

func (Discard) Changed(Changed) {}
func (Discard) Toggled(Toggled) {}

// Subscription represents a registered observer.
type Subscription struct {
	id  uint64
	bus *Bus
}

// Unsubscribe removes the observer. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.bus != nil {
		s.bus.unsubscribe(s.id)
		s.bus = nil
	}
}

// Ensure interface compliance
var _ Sink = (*Bus)(nil)

// Bus is a synchronous fan-out Sink. Observers run on the emitting
// goroutine, in no particular order. Safe for concurrent use.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	onChange map[uint64]func(Changed)
	onToggle map[uint64]func(Toggled)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		onChange: make(map[uint64]func(Changed)),
		onToggle: make(map[uint64]func(Toggled)),
	}
}

// OnChanged registers an observer for settings mutations.
func (b *Bus) OnChanged(fn func(Changed)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.onChange[b.nextID] = fn
	return &Subscription{id: b.nextID, bus: b}
}

// OnToggled registers an observer for enabled-state transitions.
func (b *Bus) OnToggled(fn func(Toggled)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.onToggle[b.nextID] = fn
	return &Subscription{id: b.nextID, bus: b}
}

// Changed delivers a Changed event to all observers.
func (b *Bus) Changed(ev Changed) {
	b.mu.RLock()
	observers := make([]func(Changed), 0, len(b.onChange))
	for _, fn := range b.onChange {
		observers = append(observers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range observers {
		fn(ev)
	}
}

// Toggled delivers a Toggled event to all observers.
func (b *Bus) Toggled(ev Toggled) {
	b.mu.RLock()
	observers := make([]func(Toggled), 0, len(b.onToggle))
	for _, fn := range b.onToggle {
		observers = append(observers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range observers {
		fn(ev)
	}
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.onChange, id)
	delete(b.onToggle, id)
}
