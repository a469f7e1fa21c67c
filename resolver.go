package inject

import (
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
)

// Resolver resolves instances by type. Both *Kernel and the view handed to
// a ResolverFactory implement it.
type Resolver interface {
	Get(serviceType reflect.Type) (any, error)
}

var (
	_ Resolver = (*Kernel)(nil)
	_ Resolver = resolverView{}
)

// resolverView resolves through the resolution of the factory that received
// it, so cycles through the factory are detected. It must only be used on the
// factory's goroutine while the factory runs.
type resolverView struct {
	kernel *Kernel
	res    *resolution
}

func (v resolverView) Get(serviceType reflect.Type) (any, error) {
	if serviceType == nil {
		return nil, ErrNilType
	}

	value, _, err := v.kernel.resolve(v.res, serviceType)
	if err != nil {
		return nil, asResolveError(err, serviceType)
	}
	return value, nil
}

// resolve returns the value for t, producing it at most once per kernel.
func (k *Kernel) resolve(res *resolution, t reflect.Type) (any, Provenance, error) {
	for {
		e, state := k.cache.acquire(t, res)

		switch state {
		case entryReady:
			return e.value, e.provenance, nil

		case entryInFlight:
			if e.owner == res || res.waitFor(e) {
				return nil, 0, CircularDependencyError{Type: t}
			}

			<-e.done
			res.stopWaiting()

			if e.err == nil {
				return e.value, e.provenance, nil
			}
			// The producer failed and removed the entry; make our own attempt.
			continue
		}

		value, provenance, err := k.produce(res, t)
		if err != nil {
			k.cache.fail(t, e, err)
			return nil, 0, err
		}

		k.cache.complete(e, value, provenance)
		k.entryAdded(provenance)
		return value, provenance, nil
	}
}

// produce builds the value for t according to its binding, discovery, or
// its constructor, in that order of precedence.
func (k *Kernel) produce(res *resolution, t reflect.Type) (any, Provenance, error) {
	if b, ok := k.bindings.get(t); ok {
		return k.produceBound(res, t, b)
	}

	if t.Kind() == reflect.Interface {
		return k.produceDiscovered(res, t)
	}

	value, err := k.construct(res, t)
	if err != nil {
		return nil, 0, err
	}
	return value, Constructed, nil
}

func (k *Kernel) produceBound(res *resolution, t reflect.Type, b Binding) (any, Provenance, error) {
	var (
		value any
		err   error
	)

	switch b.strategy {
	case StrategyAlias:
		return k.resolve(res, b.target)

	case StrategyInstance:
		value = b.instance

	case StrategyFactory:
		value, err = callFactory(t, b.factory)
		if err != nil {
			return nil, 0, factoryError(err, Frame{Kind: FrameFactory, Type: t}, t)
		}

	case StrategyResolverFactory:
		view := resolverView{kernel: k, res: res}
		value, err = callFactory(t, func() (any, error) { return b.resolverFactory(view) })
		if err != nil {
			return nil, 0, factoryError(err, Frame{Kind: FrameResolverFactory, Type: t}, t)
		}

	case StrategyUninitialized:
		value = allocate(t)
	}

	if isNil(value) {
		return nil, 0, ConstructorInvocationError{Type: t, Cause: ErrNilInstance}
	}

	if actual := reflect.TypeOf(value); !actual.AssignableTo(t) {
		return nil, 0, TypeMismatchError{Expected: t, Actual: actual, Context: fmt.Sprintf("%s binding", b.strategy)}
	}

	if err := k.recordRuntimeType(t, value, b.strategy); err != nil {
		return nil, 0, err
	}

	return value, Supplied, nil
}

// recordRuntimeType makes a supplied value also answer requests for its
// runtime type, unless that type has its own binding.
func (k *Kernel) recordRuntimeType(source reflect.Type, value any, strategy Strategy) error {
	actual := reflect.TypeOf(value)
	if actual == source || k.bindings.has(actual) {
		return nil
	}

	existing, provenance, state, ok := k.cache.peek(actual)
	switch {
	case !ok:
		if k.cache.record(actual, value, source) {
			k.entryAdded(Supplied)
		}
	case state == entryReady && provenance == Constructed && !sameValue(existing, value):
		return ProvenanceConflictError{Type: actual, Requested: source, Strategy: strategy}
	}

	return nil
}

func (k *Kernel) produceDiscovered(res *resolution, t reflect.Type) (any, Provenance, error) {
	candidates := k.index.Candidates(t)

	switch {
	case len(candidates) == 0:
		return nil, 0, NoBindingError{Type: t}
	case len(candidates) > 1:
		return nil, 0, AmbiguousBindingError{Type: t, Candidates: candidates}
	case isGeneric(candidates[0]) && !isGeneric(t):
		return nil, 0, AmbiguousGenericBindingError{Type: t, Candidate: candidates[0]}
	}

	return k.resolve(res, candidates[0])
}

// construct builds a concrete type through its registered constructor.
func (k *Kernel) construct(res *resolution, t reflect.Type) (any, error) {
	if res.contains(t) {
		return nil, CircularDependencyError{Type: t}
	}

	desc, err := k.index.Describe(t)
	if err != nil {
		return nil, err
	}

	res.push(t)
	defer res.pop()

	args := make([]any, len(desc.Parameters))
	for i, param := range desc.Parameters {
		value, _, err := k.resolve(res, param)
		if err != nil {
			return nil, wrapFrame(err, Frame{Kind: FrameConstructor, Type: t}, param)
		}
		args[i] = value
	}

	k.fireResolving(t)

	value, err := desc.Invoke(args)
	if err != nil {
		return nil, err
	}

	if err := k.lifecycle.track(value); err != nil {
		return nil, err
	}
	k.logger.Debug("constructed instance", "kernel", k.id, "type", formatType(t))

	return value, nil
}

// callFactory runs fn, converting a panic into ConstructorPanicError.
func callFactory(t reflect.Type, fn func() (any, error)) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = ConstructorPanicError{Type: t, Panic: r, Stack: debug.Stack()}
		}
	}()

	return fn()
}

// factoryError attributes a factory failure. Failures of nested resolutions
// gain the factory's frame; the factory's own failures are leaf errors.
func factoryError(err error, frame Frame, t reflect.Type) error {
	var re *ResolveError
	if errors.As(err, &re) {
		return wrapFrame(err, frame, t)
	}

	var panicErr ConstructorPanicError
	if errors.As(err, &panicErr) {
		return err
	}

	return ConstructorInvocationError{Type: t, Cause: err}
}

// allocate returns a zero value of a struct or pointer-to-struct type.
func allocate(t reflect.Type) any {
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface()
	}
	return reflect.New(t).Elem().Interface()
}

// sameValue compares two values by identity where possible. Values of
// incomparable types are never the same.
func sameValue(a, b any) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
