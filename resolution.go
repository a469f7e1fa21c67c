package inject

import (
	"reflect"
	"sync/atomic"
)

// resolution is the state of one root Get call. It is threaded explicitly
// through every recursive resolve and never shared between roots.
type resolution struct {
	// path holds the concrete types whose constructors are being resolved,
	// outermost first.
	path   []reflect.Type
	onPath map[reflect.Type]struct{}

	// waiting is the in-flight entry owned by another resolution that this
	// one is blocked on, if any.
	waiting atomic.Pointer[cacheEntry]
}

func newResolution() *resolution {
	return &resolution{
		onPath: make(map[reflect.Type]struct{}),
	}
}

func (r *resolution) contains(t reflect.Type) bool {
	_, ok := r.onPath[t]
	return ok
}

func (r *resolution) push(t reflect.Type) {
	r.path = append(r.path, t)
	r.onPath[t] = struct{}{}
}

func (r *resolution) pop() {
	t := r.path[len(r.path)-1]
	r.path = r.path[:len(r.path)-1]
	delete(r.onPath, t)
}

// waitFor marks r as blocked on e and reports whether that closes a wait-for
// cycle: e's owner is, directly or through the entries it waits on, blocked on r.
// Finished entries end the walk, since a waiter may not have cleared its
// waiting pointer yet after being released.
func (r *resolution) waitFor(e *cacheEntry) bool {
	r.waiting.Store(e)
	if e.finished() {
		return false
	}

	seen := make(map[*resolution]struct{})
	for owner := e.owner; owner != nil; {
		if owner == r {
			r.waiting.Store(nil)
			return true
		}

		// A cycle among other resolutions is theirs to report.
		if _, ok := seen[owner]; ok {
			break
		}
		seen[owner] = struct{}{}

		next := owner.waiting.Load()
		if next == nil || next.finished() {
			break
		}
		owner = next.owner
	}

	return false
}

func (r *resolution) stopWaiting() {
	r.waiting.Store(nil)
}
