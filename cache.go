package inject

import (
	"reflect"
	"sync"
)

// Provenance records how a cached value came to exist.
type Provenance int

const (
	// Supplied values were handed over by a binding: an instance, a factory
	// result or an uninitialized allocation. The kernel does not own them.
	Supplied Provenance = iota + 1

	// Constructed values were built by the kernel through a registered constructor.
	Constructed
)

func (p Provenance) String() string {
	switch p {
	case Supplied:
		return "Supplied"
	case Constructed:
		return "Constructed"
	default:
		return "Unknown"
	}
}

// cacheEntry is a resolved value, or a value being produced by owner.
// value, provenance and err are written once before done is closed.
type cacheEntry struct {
	value      any
	provenance Provenance
	err        error

	done  chan struct{}
	owner *resolution
	ready bool // guarded by resolutionCache.mu

	// origin is the bound type whose supplied value was also recorded
	// under this entry's runtime type.
	origin reflect.Type
}

// finished reports whether the entry has been completed or failed.
func (e *cacheEntry) finished() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// entryState is what acquire found for a type.
type entryState int

const (
	entryOwned    entryState = iota // caller installed the entry and must produce it
	entryReady                      // entry is complete
	entryInFlight                   // entry is being produced by another caller
)

// resolutionCache maps each type to at most one entry. Completed entries
// are never replaced; failed ones are removed.
type resolutionCache struct {
	entries map[reflect.Type]*cacheEntry
	mu      sync.Mutex
}

func newResolutionCache() *resolutionCache {
	return &resolutionCache{
		entries: make(map[reflect.Type]*cacheEntry),
	}
}

// acquire returns the entry for t, installing an in-flight entry owned by
// res when none exists.
func (c *resolutionCache) acquire(t reflect.Type, res *resolution) (*cacheEntry, entryState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[t]; ok {
		if e.ready {
			return e, entryReady
		}
		return e, entryInFlight
	}

	e := &cacheEntry{
		done:  make(chan struct{}),
		owner: res,
	}
	c.entries[t] = e
	return e, entryOwned
}

// complete publishes the produced value and wakes waiters.
func (c *resolutionCache) complete(e *cacheEntry, value any, provenance Provenance) {
	c.mu.Lock()
	e.value = value
	e.provenance = provenance
	e.ready = true
	c.mu.Unlock()

	close(e.done)
}

// fail removes the in-flight entry so a later request makes its own attempt.
func (c *resolutionCache) fail(t reflect.Type, e *cacheEntry, err error) {
	c.mu.Lock()
	if c.entries[t] == e {
		delete(c.entries, t)
	}
	e.err = err
	c.mu.Unlock()

	close(e.done)
}

// peek returns the entry for t without installing one.
func (c *resolutionCache) peek(t reflect.Type) (value any, provenance Provenance, state entryState, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[t]
	if !ok {
		return nil, 0, 0, false
	}
	if !e.ready {
		return nil, 0, entryInFlight, true
	}
	return e.value, e.provenance, entryReady, true
}

// put stores a completed entry for t unless one already exists.
func (c *resolutionCache) put(t reflect.Type, value any, provenance Provenance) bool {
	return c.store(t, &cacheEntry{value: value, provenance: provenance})
}

// record stores value under its runtime type t on behalf of origin, unless
// t already has an entry.
func (c *resolutionCache) record(t reflect.Type, value any, origin reflect.Type) bool {
	return c.store(t, &cacheEntry{value: value, provenance: Supplied, origin: origin})
}

func (c *resolutionCache) store(t reflect.Type, e *cacheEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[t]; ok {
		return false
	}

	e.done = make(chan struct{})
	close(e.done)
	e.ready = true
	c.entries[t] = e
	return true
}

// evict removes the completed Supplied entry for t together with the entries
// that only hold its value: records made on behalf of t, and entries for
// which derived reports that they resolve through another type. Constructed
// and in-flight entries are never removed. It returns the number removed.
func (c *resolutionCache) evict(t reflect.Type, derived func(reflect.Type) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[t]
	if !ok || !e.ready || e.provenance != Supplied {
		return 0
	}
	delete(c.entries, t)

	n := 1
	for other, oe := range c.entries {
		if !oe.ready || oe.provenance != Supplied {
			continue
		}
		if oe.origin == t || (derived(other) && sameValue(oe.value, e.value)) {
			delete(c.entries, other)
			n++
		}
	}
	return n
}

// clear removes all entries.
func (c *resolutionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[reflect.Type]*cacheEntry)
}

func (c *resolutionCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
