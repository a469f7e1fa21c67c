package reflection

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Validation failures reported by Analyze.
var (
	ErrNilConstructor      = errors.New("constructor cannot be nil")
	ErrNotAFunction        = errors.New("constructor must be a function")
	ErrNoResult            = errors.New("constructor must return a value")
	ErrTooManyResults      = errors.New("constructor must return T or (T, error)")
	ErrSecondResultNoError = errors.New("second return value of a constructor must be error")
	ErrInterfaceResult     = errors.New("constructor must return a concrete type, not an interface")
)

// Analyzer performs reflection-based analysis of constructor functions.
// The shape of a constructor depends only on its signature, so results are
// cached per function type; closures sharing a signature share an entry.
type Analyzer struct {
	mu    sync.RWMutex
	cache map[reflect.Type]*ConstructorInfo
}

// ConstructorInfo contains analyzed information about a constructor function.
type ConstructorInfo struct {
	// Func is the reflected constructor.
	Func reflect.Value

	// FuncType is the signature of Func.
	FuncType reflect.Type

	// Result is the type the constructor produces.
	Result reflect.Type

	// Parameters are the constructor's parameter types in declared order.
	// For variadic constructors the last entry is the slice type.
	Parameters []reflect.Type

	IsVariadic     bool
	HasErrorReturn bool
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{
		cache: make(map[reflect.Type]*ConstructorInfo),
	}
}

// Analyze validates a constructor function and extracts its shape.
func (a *Analyzer) Analyze(constructor any) (*ConstructorInfo, error) {
	if constructor == nil {
		return nil, ErrNilConstructor
	}

	val := reflect.ValueOf(constructor)
	if val.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w, got %T", ErrNotAFunction, constructor)
	}

	if val.IsNil() {
		return nil, ErrNilConstructor
	}

	fnType := val.Type()

	a.mu.RLock()
	shape, ok := a.cache[fnType]
	a.mu.RUnlock()

	if !ok {
		var err error
		if shape, err = analyze(fnType); err != nil {
			return nil, err
		}

		a.mu.Lock()
		a.cache[fnType] = shape
		a.mu.Unlock()
	}

	info := *shape
	info.Func = val
	return &info, nil
}

func analyze(fnType reflect.Type) (*ConstructorInfo, error) {
	switch fnType.NumOut() {
	case 0:
		return nil, ErrNoResult
	case 1:
	case 2:
		if fnType.Out(1) != errType {
			return nil, ErrSecondResultNoError
		}
	default:
		return nil, ErrTooManyResults
	}

	result := fnType.Out(0)
	if result.Kind() == reflect.Interface {
		return nil, fmt.Errorf("%w (%v)", ErrInterfaceResult, result)
	}

	params := make([]reflect.Type, fnType.NumIn())
	for i := range params {
		params[i] = fnType.In(i)
	}

	return &ConstructorInfo{
		FuncType:       fnType,
		Result:         result,
		Parameters:     params,
		IsVariadic:     fnType.IsVariadic(),
		HasErrorReturn: fnType.NumOut() == 2,
	}, nil
}

// CacheSize returns the number of cached analyses.
func (a *Analyzer) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.cache)
}

// Clear clears the analysis cache.
func (a *Analyzer) Clear() {
	a.mu.Lock()
	a.cache = make(map[reflect.Type]*ConstructorInfo)
	a.mu.Unlock()
}
