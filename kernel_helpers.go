package inject

import (
	"fmt"
	"reflect"
)

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Get resolves T from r, which is a *Kernel or the Resolver passed to a
// ResolverFactory.
//
// Example:
//
//	svc, err := inject.Get[*UserService](kernel)
//	if err != nil {
//	    // Handle error
//	}
func Get[T any](r Resolver) (T, error) {
	var zero T

	if r == nil {
		return zero, ErrNilType
	}

	serviceType := TypeOf[T]()
	service, err := r.Get(serviceType)
	if err != nil {
		return zero, err
	}

	result, ok := service.(T)
	if !ok {
		return zero, TypeMismatchError{
			Expected: serviceType,
			Actual:   reflect.TypeOf(service),
			Context:  "type assertion",
		}
	}

	return result, nil
}

// MustGet resolves T from r and panics on failure. This is useful during
// application startup where a missing service is fatal.
func MustGet[T any](r Resolver) T {
	service, err := Get[T](r)
	if err != nil {
		panic(fmt.Sprintf("inject: failed to resolve %s: %v", formatType(TypeOf[T]()), err))
	}
	return service
}

// BindType binds interface I to the concrete type C.
//
//	inject.BindType[Store, *PostgresStore](kernel)
func BindType[I, C any](k *Kernel) error {
	return k.Bind(TypeOf[I](), Map(TypeOf[C]()))
}

// BindInstance binds T to value.
func BindInstance[T any](k *Kernel, value T) error {
	return k.Bind(TypeOf[T](), Instance(value))
}

// BindFactory binds T to fn.
func BindFactory[T any](k *Kernel, fn func() (T, error)) error {
	return k.Bind(TypeOf[T](), factoryOf(fn))
}

// BindResolverFactory binds T to fn, which may resolve other types through r.
//
//	inject.BindResolverFactory(kernel, func(r inject.Resolver) (*Client, error) {
//	    cfg, err := inject.Get[*Config](r)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewClient(cfg.URL), nil
//	})
func BindResolverFactory[T any](k *Kernel, fn func(r Resolver) (T, error)) error {
	return k.Bind(TypeOf[T](), resolverFactoryOf(fn))
}

// BindUninitialized binds T to a zero value allocated without its constructor.
func BindUninitialized[T any](k *Kernel) error {
	return k.Bind(TypeOf[T](), Uninitialized())
}

// RebindType replaces the binding of I with an alias to C.
func RebindType[I, C any](k *Kernel) error {
	return k.Rebind(TypeOf[I](), Map(TypeOf[C]()))
}

// RebindInstance replaces the binding of T with value.
func RebindInstance[T any](k *Kernel, value T) error {
	return k.Rebind(TypeOf[T](), Instance(value))
}

// RebindFactory replaces the binding of T with fn.
func RebindFactory[T any](k *Kernel, fn func() (T, error)) error {
	return k.Rebind(TypeOf[T](), factoryOf(fn))
}

// RebindResolverFactory replaces the binding of T with fn.
func RebindResolverFactory[T any](k *Kernel, fn func(r Resolver) (T, error)) error {
	return k.Rebind(TypeOf[T](), resolverFactoryOf(fn))
}

// RebindUninitialized replaces the binding of T with an uninitialized allocation.
func RebindUninitialized[T any](k *Kernel) error {
	return k.Rebind(TypeOf[T](), Uninitialized())
}

// HasBinding reports whether T has an explicit binding in k.
func HasBinding[T any](k *Kernel) bool {
	return k.HasBinding(TypeOf[T]())
}

func factoryOf[T any](fn func() (T, error)) Binding {
	if fn == nil {
		return Factory(nil)
	}
	return Factory(func() (any, error) {
		return fn()
	})
}

func resolverFactoryOf[T any](fn func(Resolver) (T, error)) Binding {
	if fn == nil {
		return ResolverFactory(nil)
	}
	return ResolverFactory(func(r Resolver) (any, error) {
		return fn(r)
	})
}
