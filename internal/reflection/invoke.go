package reflection

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

// PanicError is returned by Call when the constructor panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("constructor panicked: %v", e.Value)
}

// Call invokes the constructor with already resolved arguments.
// A non-nil error result is returned as err; a panic is recovered into a *PanicError.
func Call(info *ConstructorInfo, args []reflect.Value) (result any, err error) {
	if len(args) != len(info.Parameters) {
		return nil, fmt.Errorf("constructor %v expects %d arguments, got %d",
			info.FuncType, len(info.Parameters), len(args))
	}

	defer func() {
		if v := recover(); v != nil {
			result = nil
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()

	var out []reflect.Value
	if info.IsVariadic {
		out = info.Func.CallSlice(args)
	} else {
		out = info.Func.Call(args)
	}

	if info.HasErrorReturn && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}

	return out[0].Interface(), nil
}

// Arguments converts resolved values into call arguments, substituting the
// zero value of the parameter type for nil values.
func Arguments(params []reflect.Type, values []any) []reflect.Value {
	args := make([]reflect.Value, len(params))
	for i, p := range params {
		if values[i] == nil {
			args[i] = reflect.Zero(p)
			continue
		}
		args[i] = reflect.ValueOf(values[i])
	}
	return args
}
