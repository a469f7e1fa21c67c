package inject

import (
	"errors"
	"reflect"

	"github.com/junioryono/inject/internal/reflection"
)

// Descriptor is the construction shape of a concrete type: its single
// registered constructor and the parameter types it needs, in order.
type Descriptor struct {
	Type       reflect.Type
	Parameters []reflect.Type

	info *reflection.ConstructorInfo
}

// Describe implements Index. Results, including failures, are memoized per type.
func (u *Universe) Describe(concrete reflect.Type) (*Descriptor, error) {
	u.build()

	if cached, ok := u.descriptors.Load(concrete); ok {
		r := cached.(describeResult)
		return r.descriptor, r.err
	}

	d, err := u.describe(concrete)
	actual, _ := u.descriptors.LoadOrStore(concrete, describeResult{descriptor: d, err: err})
	r := actual.(describeResult)
	return r.descriptor, r.err
}

func (u *Universe) describe(t reflect.Type) (*Descriptor, error) {
	infos := u.ctors[t]

	switch len(infos) {
	case 0:
		if !isStructLike(t) {
			return nil, NoBindingError{Type: t}
		}
		return nil, ConstructorError{Type: t, Problem: NoConstructor}
	case 1:
	default:
		return nil, ConstructorError{Type: t, Problem: MultipleConstructors, Count: len(infos)}
	}

	info := infos[0]
	if info.IsVariadic {
		return nil, ConstructorError{Type: t, Problem: VariadicConstructor, Count: 1}
	}

	return &Descriptor{
		Type:       t,
		Parameters: info.Parameters,
		info:       info,
	}, nil
}

// Invoke calls the constructor with resolved arguments, one per parameter.
func (d *Descriptor) Invoke(args []any) (any, error) {
	out, err := reflection.Call(d.info, reflection.Arguments(d.Parameters, args))
	if err == nil {
		return out, nil
	}

	var panicErr *reflection.PanicError
	if errors.As(err, &panicErr) {
		return nil, ConstructorPanicError{Type: d.Type, Panic: panicErr.Value, Stack: panicErr.Stack}
	}

	return nil, ConstructorInvocationError{Type: d.Type, Cause: err}
}

// isStructLike reports whether t is a struct or a pointer to one.
func isStructLike(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
