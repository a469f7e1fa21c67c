package inject

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Phase is the configuration state of a Kernel.
type Phase int32

const (
	// PhaseConfiguring accepts Bind and Rebind.
	PhaseConfiguring Phase = iota

	// PhaseResolved is entered when the freeze policy is met; bindings are fixed.
	PhaseResolved

	// PhaseDisposed is entered by Close.
	PhaseDisposed
)

func (p Phase) String() string {
	switch p {
	case PhaseConfiguring:
		return "Configuring"
	case PhaseResolved:
		return "Resolved"
	case PhaseDisposed:
		return "Disposed"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

// Kernel builds and caches instances of requested types on demand.
//
// Concrete types are built through the single constructor registered for
// them, with every parameter resolved recursively. Interfaces resolve to
// their only implementing type in the Index. Bindings override both.
// Each type is produced at most once per kernel; every request observes
// the same instance.
//
// Bindings may only be added while the kernel is configuring. The first
// value the kernel constructs itself freezes the configuration, so a
// binding can never change a graph that has already been built.
type Kernel struct {
	id     string
	logger *slog.Logger
	index  Index
	freeze FreezePolicy

	bindings  *bindingTable
	cache     *resolutionCache
	lifecycle *lifecycleManager

	hooks   []func(reflect.Type)
	hooksMu sync.RWMutex

	// configMu serializes Bind, Rebind and Close.
	configMu sync.Mutex
	phase    atomic.Int32
}

// New creates a kernel. By default it resolves against DefaultUniverse and
// logs through slog.Default.
func New(opts ...Option) *Kernel {
	o := &options{
		freeze: FreezeOnConstructed,
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(o)
		}
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.index == nil {
		o.index = DefaultUniverse()
	}

	k := &Kernel{
		id:        uuid.NewString(),
		logger:    o.logger,
		index:     o.index,
		freeze:    o.freeze,
		bindings:  newBindingTable(),
		cache:     newResolutionCache(),
		lifecycle: newLifecycleManager(),
		hooks:     o.hooks,
	}

	k.logger.Debug("kernel created", "kernel", k.id, "freeze_policy", k.freeze.String())
	return k
}

// ID returns the unique identifier of the kernel.
func (k *Kernel) ID() string {
	return k.id
}

// Phase returns the current configuration phase.
func (k *Kernel) Phase() Phase {
	return Phase(k.phase.Load())
}

// Bind adds an explicit binding for source. Each source type may be bound once.
func (k *Kernel) Bind(source reflect.Type, binding Binding) error {
	return k.configure("Bind", source, binding, false)
}

// Rebind replaces the existing binding for source.
func (k *Kernel) Rebind(source reflect.Type, binding Binding) error {
	return k.configure("Rebind", source, binding, true)
}

func (k *Kernel) configure(op string, source reflect.Type, binding Binding, replace bool) error {
	if source == nil {
		return BindingError{Operation: op, Cause: ErrNilType}
	}

	k.configMu.Lock()
	defer k.configMu.Unlock()

	switch k.Phase() {
	case PhaseDisposed:
		return BindingError{Operation: op, Type: source, Cause: ErrKernelDisposed}
	case PhaseResolved:
		return BindingError{Operation: op, Type: source, Cause: ErrBindAfterGet}
	}

	if err := binding.validate(source); err != nil {
		return BindingError{Operation: op, Type: source, Cause: err}
	}

	if replace {
		if !k.bindings.replace(source, binding) {
			return BindingError{Operation: op, Type: source, Cause: ErrNotBound}
		}
	} else if existing, ok := k.bindings.add(source, binding); !ok {
		return BindingError{Operation: op, Type: source, Existing: existing, Cause: ErrAlreadyBound}
	}

	// A value already cached for source came from the binding being replaced,
	// or from a runtime-type record the new binding now overrides.
	if n := k.evictSupplied(source); n > 0 {
		k.logger.Debug("evicted supplied instances", "kernel", k.id, "type", formatType(source), "count", n)
	}

	k.logger.Debug("binding added",
		"kernel", k.id,
		"operation", op,
		"type", formatType(source),
		"strategy", binding.strategy.String(),
	)
	return nil
}

// evictSupplied removes the supplied value cached for source along with the
// alias and discovered interface entries that resolved to it.
func (k *Kernel) evictSupplied(source reflect.Type) int {
	return k.cache.evict(source, func(t reflect.Type) bool {
		if b, ok := k.bindings.get(t); ok {
			return b.strategy == StrategyAlias
		}
		return t.Kind() == reflect.Interface
	})
}

// HasBinding reports whether source has an explicit binding.
func (k *Kernel) HasBinding(source reflect.Type) bool {
	if source == nil {
		return false
	}
	return k.bindings.has(source)
}

// Get returns the instance of serviceType, building it and its dependencies
// on first request. Resolution failures are returned as *ResolveError. A
// disposed kernel fails with ErrKernelDisposed and a nil type with ErrNilType.
func (k *Kernel) Get(serviceType reflect.Type) (any, error) {
	if k.Phase() == PhaseDisposed {
		return nil, ErrKernelDisposed
	}

	if serviceType == nil {
		return nil, ErrNilType
	}

	value, _, err := k.resolve(newResolution(), serviceType)
	if err != nil {
		return nil, asResolveError(err, serviceType)
	}

	// Close may have run while the graph was being built.
	if k.Phase() == PhaseDisposed {
		return nil, ErrKernelDisposed
	}

	return value, nil
}

// OnResolving registers fn to be called with each concrete type right
// before its constructor runs.
func (k *Kernel) OnResolving(fn func(reflect.Type)) {
	if fn == nil {
		return
	}

	k.hooksMu.Lock()
	defer k.hooksMu.Unlock()
	k.hooks = append(k.hooks, fn)
}

func (k *Kernel) fireResolving(t reflect.Type) {
	k.hooksMu.RLock()
	hooks := k.hooks
	k.hooksMu.RUnlock()

	for _, fn := range hooks {
		fn(t)
	}
}

// entryAdded applies the freeze policy to a new cache entry.
func (k *Kernel) entryAdded(provenance Provenance) {
	if provenance != Constructed && k.freeze != FreezeOnAnyEntry {
		return
	}

	if k.phase.CompareAndSwap(int32(PhaseConfiguring), int32(PhaseResolved)) {
		k.logger.Debug("kernel configuration frozen", "kernel", k.id, "provenance", provenance.String())
	}
}

// Close disposes every constructed value implementing Disposable or
// DisposableWithContext, newest first. Supplied values are left to their
// owners. Close is idempotent.
func (k *Kernel) Close() error {
	k.configMu.Lock()
	defer k.configMu.Unlock()

	if Phase(k.phase.Swap(int32(PhaseDisposed))) == PhaseDisposed {
		return nil
	}

	err := k.lifecycle.dispose(context.Background())
	k.cache.clear()

	if err != nil {
		k.logger.Warn("kernel disposal failed", "kernel", k.id, "error", err)
		return err
	}

	k.logger.Debug("kernel disposed", "kernel", k.id)
	return nil
}
