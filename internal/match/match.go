// Package match compiles profile context specifications into predicates.
//
// A context specification is an opaque map of filter name to wanted value.
// Filters are named expressions held in a Registry; the Compiler combines
// one compiled program per specification entry into a single predicate over
// a runtime Context. Filter expressions are written in expr-lang syntax and
// evaluate with two variables: "ctx", the runtime context, and "want", the
// value attached to the filter in the specification.
package match

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Context is the runtime environment a profile is matched against.
type Context map[string]any

// Predicate reports whether a context satisfies a compiled specification.
type Predicate func(Context) bool

// Options carries the fixed compilation flags. Both default to false.
type Options struct {
	// Inverted negates the combined result.
	Inverted bool

	// AnyMode combines specification entries with OR instead of AND.
	AnyMode bool
}

// Env is the evaluation environment for filter expressions.
type Env struct {
	Ctx  map[string]any `expr:"ctx"`
	Want any            `expr:"want"`
}

// ExprKey is the reserved specification key holding a free-form expression
// evaluated over ctx alone.
const ExprKey = "expr"

// filter is a named, pre-compiled expression.
type filter struct {
	name    string
	source  string
	program *vm.Program
}

// Registry holds named filter definitions. Registering or removing a filter
// notifies subscribers so cached predicates can be invalidated out of band.
// Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]*filter
	subs    map[uint64]func()
	nextID  uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		filters: make(map[string]*filter),
		subs:    make(map[uint64]func()),
	}
}

// Register compiles source and stores it under name, replacing any previous
// definition. Subscribers are notified of the change.
func (r *Registry) Register(name, source string) error {
	program, err := expr.Compile(source, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return fmt.Errorf("compiling filter %q: %w", name, err)
	}

	r.mu.Lock()
	r.filters[name] = &filter{name: name, source: source, program: program}
	r.mu.Unlock()

	r.notify()
	return nil
}

// Unregister removes a filter definition and notifies subscribers.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	_, ok := r.filters[name]
	delete(r.filters, name)
	r.mu.Unlock()

	if ok {
		r.notify()
	}
}

// Names returns the registered filter names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	return names
}

// Subscribe registers fn to run on every definitional change. The returned
// function cancels the subscription.
func (r *Registry) Subscribe(fn func()) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Subscribers returns the number of live invalidation subscriptions.
func (r *Registry) Subscribers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

func (r *Registry) lookup(name string) *filter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filters[name]
}

func (r *Registry) notify() {
	r.mu.RLock()
	subs := make([]func(), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.RUnlock()

	for _, fn := range subs {
		fn()
	}
}

// RegisterBuiltins installs the stock context filters.
func RegisterBuiltins(r *Registry) error {
	builtins := map[string]string{
		"channel":        `ctx.channel == want`,
		"category":       `ctx.category == want`,
		"moderator":      `ctx.moderator == want`,
		"logged_in":      `ctx.logged_in == want`,
		"title_contains": `ctx.title != nil && ctx.title contains want`,
	}
	for name, source := range builtins {
		if err := r.Register(name, source); err != nil {
			return err
		}
	}
	return nil
}

// Compiler turns context specifications into predicates against a Registry.
type Compiler struct {
	registry *Registry
	log      *slog.Logger
}

// NewCompiler creates a compiler over registry. A nil logger falls back to
// slog.Default.
func NewCompiler(registry *Registry, log *slog.Logger) *Compiler {
	if log == nil {
		log = slog.Default()
	}
	return &Compiler{registry: registry, log: log}
}

// Compile builds a predicate from spec. Compilation is soft: an unknown
// filter name or a malformed free-form expression yields a never-matching
// component rather than an error. An empty spec matches every context.
//
// onInvalidate, when non-nil, is subscribed to the registry and runs
// whenever filter definitions change after compilation; the returned cancel
// function releases the subscription and must be called before the
// predicate is discarded.
func (c *Compiler) Compile(spec map[string]any, opts Options, onInvalidate func()) (Predicate, func()) {
	cancel := func() {}
	if onInvalidate != nil {
		cancel = c.registry.Subscribe(onInvalidate)
	}

	if len(spec) == 0 {
		return func(Context) bool { return !opts.Inverted }, cancel
	}

	type part struct {
		program *vm.Program
		want    any
	}
	parts := make([]part, 0, len(spec))
	broken := false

	for name, want := range spec {
		if name == ExprKey {
			source, ok := want.(string)
			if !ok {
				c.log.Warn("context expression is not a string", "value", want)
				broken = true
				continue
			}
			program, err := expr.Compile(source, expr.Env(Env{}), expr.AsBool())
			if err != nil {
				c.log.Warn("context expression failed to compile", "expr", source, "error", err)
				broken = true
				continue
			}
			parts = append(parts, part{program: program})
			continue
		}

		f := c.registry.lookup(name)
		if f == nil {
			c.log.Warn("unknown context filter", "filter", name)
			broken = true
			continue
		}
		parts = append(parts, part{program: f.program, want: want})
	}

	pred := func(ctx Context) bool {
		matched := func() bool {
			if broken && !opts.AnyMode {
				return false
			}
			for _, p := range parts {
				out, err := expr.Run(p.program, Env{Ctx: ctx, Want: p.want})
				ok := err == nil && out == true
				if err != nil {
					c.log.Debug("context filter evaluation failed", "error", err)
				}
				if opts.AnyMode && ok {
					return true
				}
				if !opts.AnyMode && !ok {
					return false
				}
			}
			return !opts.AnyMode
		}()
		if opts.Inverted {
			return !matched
		}
		return matched
	}
	return pred, cancel
}
