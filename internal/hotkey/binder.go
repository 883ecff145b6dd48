package hotkey

// Event is the input event delivered to a bound handler. Consuming it asks
// the binder to suppress the event's default behavior and propagation.
type Event struct {
	consumed bool
}

// Consume marks the event handled.
func (e *Event) Consume() {
	if e != nil {
		e.consumed = true
	}
}

// Consumed reports whether Consume was called.
func (e *Event) Consumed() bool {
	return e != nil && e.consumed
}

// Handler is invoked when a bound combo fires. The event may be nil when
// the binder has no originating input event to hand over.
type Handler func(*Event)

// Binder is the external global hotkey facility. Implementations are
// injected; this package never resolves one from ambient state.
type Binder interface {
	Bind(combo string, handler Handler)
	Unbind(combo string)
}

// Rebinder tracks which combo is currently bound and drives the binder
// through state transitions. Bind and Unbind are each called at most once
// per Apply, a differing previously bound combo is always unbound before a
// new one is bound, and nothing is ever bound while disabled or while the
// combo fails validation.
type Rebinder struct {
	binder Binder
	bound  string
}

// NewRebinder creates a rebinder over binder. A nil binder makes every
// Apply a no-op.
func NewRebinder(binder Binder) *Rebinder {
	return &Rebinder{binder: binder}
}

// Bound returns the currently bound combo, or "" when unbound.
func (r *Rebinder) Bound() string {
	return r.bound
}

// Apply moves the binder to the state implied by combo and enabled.
func (r *Rebinder) Apply(combo string, enabled bool, handler Handler) {
	if r.binder == nil {
		return
	}

	if r.bound != "" && (r.bound != combo || !enabled) {
		r.binder.Unbind(r.bound)
		r.bound = ""
	}

	if r.bound == "" && enabled && combo != "" && Valid(combo) {
		r.binder.Bind(combo, handler)
		r.bound = combo
	}
}
