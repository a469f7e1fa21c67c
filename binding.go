package inject

import (
	"fmt"
	"reflect"
	"sync"
)

// Strategy is the way a binding produces the value for its source type.
type Strategy int

const (
	// StrategyAlias resolves another type and shares its value.
	StrategyAlias Strategy = iota + 1

	// StrategyInstance returns a value supplied at bind time.
	StrategyInstance

	// StrategyFactory calls a function with no arguments.
	StrategyFactory

	// StrategyResolverFactory calls a function that may resolve other types.
	StrategyResolverFactory

	// StrategyUninitialized allocates the type without running a constructor.
	StrategyUninitialized
)

func (s Strategy) String() string {
	switch s {
	case StrategyAlias:
		return "Alias"
	case StrategyInstance:
		return "Instance"
	case StrategyFactory:
		return "Factory"
	case StrategyResolverFactory:
		return "ResolverFactory"
	case StrategyUninitialized:
		return "Uninitialized"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Binding is an explicit rule for producing a source type, overriding
// discovery and constructors. Build one with Map, Instance, Factory,
// ResolverFactory or Uninitialized.
type Binding struct {
	strategy        Strategy
	target          reflect.Type
	instance        any
	factory         func() (any, error)
	resolverFactory func(Resolver) (any, error)
}

// Map binds the source type to target; requests for the source resolve target
// and share its value.
func Map(target reflect.Type) Binding {
	return Binding{strategy: StrategyAlias, target: target}
}

// Instance binds the source type to an existing value.
func Instance(value any) Binding {
	return Binding{strategy: StrategyInstance, instance: value}
}

// Factory binds the source type to a function producing it.
func Factory(fn func() (any, error)) Binding {
	return Binding{strategy: StrategyFactory, factory: fn}
}

// ResolverFactory binds the source type to a function that may resolve
// other types through the given Resolver.
func ResolverFactory(fn func(Resolver) (any, error)) Binding {
	return Binding{strategy: StrategyResolverFactory, resolverFactory: fn}
}

// Uninitialized binds a struct or pointer-to-struct type to a freshly
// allocated zero value. This is useful for breaking constructor cycles.
func Uninitialized() Binding {
	return Binding{strategy: StrategyUninitialized}
}

// Strategy returns how the binding produces its value.
func (b Binding) Strategy() Strategy {
	return b.strategy
}

// Target returns the aliased type, or nil for other strategies.
func (b Binding) Target() reflect.Type {
	return b.target
}

func (b Binding) describe() string {
	switch b.strategy {
	case StrategyAlias:
		return "the type " + formatType(b.target)
	case StrategyInstance:
		return "an instance of " + formatType(reflect.TypeOf(b.instance))
	case StrategyFactory:
		return "a factory"
	case StrategyResolverFactory:
		return "a resolver factory"
	case StrategyUninitialized:
		return "an uninitialized instance"
	default:
		return "nothing"
	}
}

// validate checks the binding against its source type.
func (b Binding) validate(source reflect.Type) error {
	switch b.strategy {
	case StrategyAlias:
		if b.target == nil {
			return ErrNilType
		}
		if b.target == source {
			return ErrSelfBinding
		}
		if !b.target.AssignableTo(source) {
			return fmt.Errorf("%w: %s does not implement %s", ErrNotAssignable, formatType(b.target), formatType(source))
		}

	case StrategyInstance:
		if isNil(b.instance) {
			return ErrNilInstance
		}
		if t := reflect.TypeOf(b.instance); !t.AssignableTo(source) {
			return fmt.Errorf("%w: %s does not implement %s", ErrNotAssignable, formatType(t), formatType(source))
		}

	case StrategyFactory:
		if b.factory == nil {
			return ErrNilFactory
		}

	case StrategyResolverFactory:
		if b.resolverFactory == nil {
			return ErrNilFactory
		}

	case StrategyUninitialized:
		if !isStructLike(source) {
			return fmt.Errorf("%w: %s is not a struct", ErrNotAllocatable, formatType(source))
		}

	default:
		return fmt.Errorf("unknown binding strategy %v", b.strategy)
	}

	return nil
}

// isNil reports whether v is nil or a typed nil of a nillable kind.
func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// bindingTable holds at most one binding per source type.
type bindingTable struct {
	mu       sync.RWMutex
	bindings map[reflect.Type]Binding
}

func newBindingTable() *bindingTable {
	return &bindingTable{
		bindings: make(map[reflect.Type]Binding),
	}
}

func (t *bindingTable) get(source reflect.Type) (Binding, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.bindings[source]
	return b, ok
}

func (t *bindingTable) has(source reflect.Type) bool {
	_, ok := t.get(source)
	return ok
}

// add stores b unless source is already bound, in which case the existing
// binding is returned.
func (t *bindingTable) add(source reflect.Type, b Binding) (*Binding, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.bindings[source]; ok {
		return &existing, false
	}

	t.bindings[source] = b
	return nil, true
}

// replace overwrites the binding for source, reporting whether one existed.
func (t *bindingTable) replace(source reflect.Type, b Binding) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.bindings[source]; !ok {
		return false
	}

	t.bindings[source] = b
	return true
}

func (t *bindingTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.bindings)
}
