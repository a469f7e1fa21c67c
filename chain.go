package inject

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// FrameKind identifies what was running when a nested resolution failed.
type FrameKind int

const (
	FrameConstructor FrameKind = iota
	FrameFactory
	FrameResolverFactory
)

// Frame is one level of the resolution chain leading to a failure.
type Frame struct {
	Kind FrameKind
	Type reflect.Type
}

// String renders the opening of the call that was in progress.
func (f Frame) String() string {
	switch f.Kind {
	case FrameFactory:
		return "Factory[" + formatType(f.Type) + "]("
	case FrameResolverFactory:
		return "ResolverFactory[" + formatType(f.Type) + "]("
	default:
		return "new " + bareType(f.Type) + "("
	}
}

// ResolveError is returned by every failed Get. Cause is the root failure;
// Frames lists the constructors and factories that were being invoked,
// outermost first, when it happened. Type is the type that could not be
// resolved at the innermost level.
//
// Error renders the cause followed by the chain:
//
//	type int has no binding
//
//	new Service(
//	  new With[int](
//	    could not resolve int here
type ResolveError struct {
	Type   reflect.Type
	Frames []Frame
	Cause  error
}

func (e *ResolveError) Error() string {
	var b strings.Builder
	b.WriteString(e.Cause.Error())

	if len(e.Frames) == 0 {
		return b.String()
	}

	b.WriteString("\n\n")
	for i, f := range e.Frames {
		b.WriteString(strings.Repeat("  ", i))
		b.WriteString(f.String())
		b.WriteByte('\n')
	}

	b.WriteString(strings.Repeat("  ", len(e.Frames)))

	var circ CircularDependencyError
	if errors.As(e.Cause, &circ) {
		b.WriteString(e.cycleFrame(circ.Type).String())
		b.WriteString("... circular dependency detected")
	} else {
		b.WriteString(fmt.Sprintf("could not resolve %s here", formatType(e.Type)))
	}

	return b.String()
}

func (e *ResolveError) Unwrap() error {
	return e.Cause
}

// cycleFrame finds the frame that re-entered t. Interfaces never own a
// frame, so an implementing frame stands in for them.
func (e *ResolveError) cycleFrame(t reflect.Type) Frame {
	for _, f := range e.Frames {
		if f.Type == t {
			return f
		}
	}
	if t.Kind() == reflect.Interface {
		for _, f := range e.Frames {
			if f.Type.Implements(t) {
				return f
			}
		}
	}
	return Frame{Kind: FrameConstructor, Type: t}
}

// wrapFrame records that err occurred inside frame. leaf is the type whose
// resolution failed when err does not carry a chain yet.
func wrapFrame(err error, frame Frame, leaf reflect.Type) *ResolveError {
	var re *ResolveError
	if errors.As(err, &re) {
		re.Frames = append([]Frame{frame}, re.Frames...)
		return re
	}

	return &ResolveError{
		Type:   leaf,
		Frames: []Frame{frame},
		Cause:  err,
	}
}

// asResolveError returns err as a chain, wrapping leaf failures with no frames.
func asResolveError(err error, t reflect.Type) *ResolveError {
	var re *ResolveError
	if errors.As(err, &re) {
		return re
	}
	return &ResolveError{Type: t, Cause: err}
}
