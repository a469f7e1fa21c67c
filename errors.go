package inject

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that are wrapped in typed errors when returned,
// so callers can match them with errors.Is.

var (
	// Configuration errors.
	ErrAlreadyBound   = errors.New("type already has a binding")
	ErrSelfBinding    = errors.New("type cannot be bound to itself")
	ErrNotBound       = errors.New("type does not have a binding")
	ErrBindAfterGet   = errors.New("binding not allowed after Get")
	ErrNilType        = errors.New("type cannot be nil")
	ErrNilInstance    = errors.New("instance cannot be nil")
	ErrNilFactory     = errors.New("factory cannot be nil")
	ErrNotAssignable  = errors.New("type is not assignable to the bound type")
	ErrNotAllocatable = errors.New("type cannot be allocated without a constructor")

	// Lifecycle errors.
	ErrKernelDisposed = errors.New("kernel has been disposed")
	ErrNoKernel       = errors.New("no kernel in context")

	// Registration errors.
	ErrCatalogSealed = errors.New("catalog is sealed, the type universe has already been built")
)

var (
	_ error = RegistrationError{}
	_ error = BindingError{}
	_ error = NoBindingError{}
	_ error = AmbiguousBindingError{}
	_ error = AmbiguousGenericBindingError{}
	_ error = CircularDependencyError{}
	_ error = ConstructorError{}
	_ error = ConstructorInvocationError{}
	_ error = ConstructorPanicError{}
	_ error = TypeMismatchError{}
	_ error = ProvenanceConflictError{}
	_ error = DisposalError{}
	_ error = (*ResolveError)(nil)
)

// ========================================
// Configuration errors
// ========================================

// RegistrationError wraps errors during constructor registration.
type RegistrationError struct {
	Constructor any
	Cause       error
}

func (e RegistrationError) Error() string {
	return fmt.Sprintf("failed to register constructor %T: %v", e.Constructor, e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// BindingError is returned synchronously by Bind and Rebind.
type BindingError struct {
	Operation string // "Bind" or "Rebind"
	Type      reflect.Type
	Existing  *Binding // the binding already present, if any
	Cause     error
}

func (e BindingError) Error() string {
	switch {
	case errors.Is(e.Cause, ErrAlreadyBound) && e.Existing != nil:
		return fmt.Sprintf("%s already has a binding, it is mapped to %s", formatType(e.Type), e.Existing.describe())
	case errors.Is(e.Cause, ErrSelfBinding):
		return fmt.Sprintf("trying to bind %s to itself\n"+
			"this is the equivalent of BindType[%s, %s]()\n"+
			"it is not strictly wrong but redundant and could indicate a mistake, hence it is disallowed",
			formatType(e.Type), formatType(e.Type), formatType(e.Type))
	case errors.Is(e.Cause, ErrBindAfterGet):
		return fmt.Sprintf("%s not allowed after Get\nthis could create hard to track down graph bugs", e.Operation)
	case errors.Is(e.Cause, ErrNotBound):
		return fmt.Sprintf("%s does not have a binding, use Bind instead of Rebind", formatType(e.Type))
	case e.Type == nil:
		return fmt.Sprintf("%s failed: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Operation, formatType(e.Type), e.Cause)
}

func (e BindingError) Unwrap() error {
	return e.Cause
}

// ========================================
// Resolution errors
// ========================================

// NoBindingError indicates a type that can neither be discovered nor constructed.
type NoBindingError struct {
	Type reflect.Type
}

func (e NoBindingError) Error() string {
	return fmt.Sprintf("type %s has no binding", formatType(e.Type))
}

// AmbiguousBindingError indicates an interface with more than one discovered implementation.
type AmbiguousBindingError struct {
	Type       reflect.Type
	Candidates []reflect.Type
}

func (e AmbiguousBindingError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = formatType(c)
	}
	return fmt.Sprintf("type %s has more than one implementation: %s\n"+
		"add a binding specifying which one to use",
		formatType(e.Type), strings.Join(names, ", "))
}

// AmbiguousGenericBindingError indicates that the only implementation of a
// non-generic interface is an instantiation of a generic type.
type AmbiguousGenericBindingError struct {
	Type      reflect.Type
	Candidate reflect.Type
}

func (e AmbiguousGenericBindingError) Error() string {
	return fmt.Sprintf("type %s is only implemented by the generic type %s\n"+
		"add a binding specifying which instantiation to use",
		formatType(e.Type), formatType(e.Candidate))
}

// CircularDependencyError indicates a type that transitively depends on itself.
// The full chain is rendered by the enclosing ResolveError.
type CircularDependencyError struct {
	Type reflect.Type
}

func (e CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency when resolving %s", formatType(e.Type))
}

// ConstructorProblem describes why a type has no usable constructor.
type ConstructorProblem int

const (
	NoConstructor ConstructorProblem = iota
	MultipleConstructors
	VariadicConstructor
)

func (p ConstructorProblem) String() string {
	switch p {
	case NoConstructor:
		return "no constructor"
	case MultipleConstructors:
		return "multiple constructors"
	case VariadicConstructor:
		return "variadic constructor"
	default:
		return fmt.Sprintf("ConstructorProblem(%d)", int(p))
	}
}

// ConstructorError indicates a concrete type whose construction shape is unusable.
type ConstructorError struct {
	Type    reflect.Type
	Problem ConstructorProblem
	Count   int
}

func (e ConstructorError) Error() string {
	name := formatType(e.Type)
	switch e.Problem {
	case MultipleConstructors:
		return fmt.Sprintf("type %s has more than one constructor (%d registered)\n"+
			"add a binding specifying which constructor to use", name, e.Count)
	case VariadicConstructor:
		return fmt.Sprintf("type %s has variadic parameter which is not supported\n"+
			"add a binding specifying how to create an instance", name)
	default:
		return fmt.Sprintf("type %s has no registered constructor\n"+
			"register one with inject.Register or add a binding specifying how to create an instance", name)
	}
}

// ConstructorInvocationError wraps an error returned by a constructor or factory.
type ConstructorInvocationError struct {
	Type  reflect.Type
	Cause error
}

func (e ConstructorInvocationError) Error() string {
	return fmt.Sprintf("creating %s failed: %v", formatType(e.Type), e.Cause)
}

func (e ConstructorInvocationError) Unwrap() error {
	return e.Cause
}

// ConstructorPanicError indicates a constructor or factory panicked.
// It captures the panic value and stack trace for debugging.
type ConstructorPanicError struct {
	Type  reflect.Type
	Panic any
	Stack []byte
}

func (e ConstructorPanicError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("creating %s panicked: %v\n", formatType(e.Type), e.Panic))

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Check for nil pointer dereferences in the constructor\n")
	b.WriteString("  • Return an error from the constructor instead of panicking\n")

	if len(e.Stack) > 0 {
		b.WriteString("\nStack trace:\n")
		b.Write(e.Stack)
	}

	return b.String()
}

// TypeMismatchError indicates a factory produced a value of the wrong type.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
	Context  string
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Context, formatType(e.Expected), formatType(e.Actual))
}

// ProvenanceConflictError indicates that an explicit binding produced an
// instance of a concrete type the kernel had already built with its constructor.
type ProvenanceConflictError struct {
	// Type is the concrete runtime type produced twice.
	Type reflect.Type

	// Requested is the bound type whose strategy produced the second instance.
	Requested reflect.Type

	// Strategy is the strategy bound to Requested.
	Strategy Strategy
}

func (e ProvenanceConflictError) Error() string {
	c := formatType(e.Type)
	i := formatType(e.Requested)

	var bound, how string
	switch e.Strategy {
	case StrategyResolverFactory:
		bound = "BindResolverFactory[" + i + "](func(r Resolver) (" + c + ", error) {...})"
		how = "the bound resolver factory"
	case StrategyInstance:
		bound = "BindInstance[" + i + "](&" + strings.TrimPrefix(c, "*") + "{...})"
		how = "the bound instance"
	default:
		bound = "BindFactory[" + i + "](func() (" + c + ", error) {...})"
		how = "the bound factory"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("an instance of type %s was already created\n", c))
	b.WriteString("the existing instance was created via its constructor\n")
	b.WriteString("this can happen by doing:\n")
	b.WriteString(fmt.Sprintf("1. %s\n", bound))
	b.WriteString(fmt.Sprintf("2. Get[%s]() this creates an instance of %s using the constructor\n", c, c))
	b.WriteString(fmt.Sprintf("3. Get[%s]() this creates an instance of %s using %s and then detects the instance created in 2\n", i, c, how))
	b.WriteString("\nspecify an explicit binding for the concrete type, for example:\n")
	b.WriteString(fmt.Sprintf("BindType[%s, %s]()\n", i, c))
	b.WriteString(strings.Replace(bound, "["+i+"]", "["+c+"]", 1))
	return b.String()
}

// DisposalError aggregates failures while closing constructed values.
type DisposalError struct {
	Errors []error
}

func (e DisposalError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("kernel disposal failed: %v", e.Errors[0])
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("kernel disposal failed with %d errors:", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
	}
	return sb.String()
}

func (e DisposalError) Unwrap() []error {
	return e.Errors
}

// ========================================
// Predicates
// ========================================

// IsNoBinding reports whether err was caused by a type without binding.
func IsNoBinding(err error) bool {
	var target NoBindingError
	return errors.As(err, &target)
}

// IsCircularDependency reports whether err was caused by a dependency cycle.
func IsCircularDependency(err error) bool {
	var target CircularDependencyError
	return errors.As(err, &target)
}

// IsAmbiguous reports whether err was caused by an ambiguous interface request.
func IsAmbiguous(err error) bool {
	var plain AmbiguousBindingError
	var generic AmbiguousGenericBindingError
	return errors.As(err, &plain) || errors.As(err, &generic)
}

// ========================================
// Type names
// ========================================

var pkgQualifier = regexp.MustCompile(`[\w.\-]+/`)

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		return "*" + formatType(t.Elem())
	case reflect.Slice:
		if t.Name() == "" {
			return "[]" + formatType(t.Elem())
		}
	case reflect.Map:
		if t.Name() == "" {
			return "map[" + formatType(t.Key()) + "]" + formatType(t.Elem())
		}
	}

	if t.Name() != "" {
		// Type arguments of instantiated generics carry full import paths.
		return pkgQualifier.ReplaceAllString(t.Name(), "")
	}
	return t.String()
}

// bareType formats t without its outermost pointer.
func bareType(t reflect.Type) string {
	if t != nil && t.Kind() == reflect.Pointer {
		return formatType(t.Elem())
	}
	return formatType(t)
}

// qualifiedName is the stable, fully qualified name used for ordering.
func qualifiedName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		return "*" + qualifiedName(t.Elem())
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func formatTypeOf(v any) string {
	return formatType(reflect.TypeOf(v))
}
