package inject

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/junioryono/inject/internal/reflection"
)

// Catalog is the append-only set of constructor functions the kernel may use
// to build concrete types. Packages register their constructors from init:
//
//	func init() {
//	    inject.MustRegister(NewUserService, NewPostgresStore)
//	}
//
// A Catalog is sealed the moment a Universe built from it is first queried;
// registration after that point fails with ErrCatalogSealed.
type Catalog struct {
	mu       sync.RWMutex
	analyzer *reflection.Analyzer
	ctors    map[reflect.Type][]*reflection.ConstructorInfo
	sealed   bool
}

var defaultCatalog = NewCatalog()

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		analyzer: reflection.New(),
		ctors:    make(map[reflect.Type][]*reflection.ConstructorInfo),
	}
}

// DefaultCatalog returns the process-wide catalog used by Register and DefaultUniverse.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// Register adds a constructor returning T or (T, error).
// Registering a second constructor for the same T is accepted; resolving T
// then fails with a ConstructorError until a binding disambiguates it.
func (c *Catalog) Register(constructor any) error {
	info, err := c.analyzer.Analyze(constructor)
	if err != nil {
		return RegistrationError{Constructor: constructor, Cause: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return RegistrationError{Constructor: constructor, Cause: ErrCatalogSealed}
	}

	c.ctors[info.Result] = append(c.ctors[info.Result], info)
	return nil
}

// MustRegister registers every constructor and panics on the first failure.
func (c *Catalog) MustRegister(constructors ...any) {
	for _, ctor := range constructors {
		if err := c.Register(ctor); err != nil {
			panic(fmt.Sprintf("inject: %v", err))
		}
	}
}

// Len returns the number of distinct types with at least one constructor.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ctors)
}

// Sealed reports whether the catalog has stopped accepting registrations.
func (c *Catalog) Sealed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sealed
}

// seal freezes the catalog and returns a snapshot of its contents.
func (c *Catalog) seal() map[reflect.Type][]*reflection.ConstructorInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sealed = true

	snapshot := make(map[reflect.Type][]*reflection.ConstructorInfo, len(c.ctors))
	for t, infos := range c.ctors {
		snapshot[t] = append([]*reflection.ConstructorInfo(nil), infos...)
	}
	return snapshot
}

// Register adds a constructor to the default catalog.
func Register(constructor any) error {
	return defaultCatalog.Register(constructor)
}

// MustRegister adds constructors to the default catalog, panicking on failure.
func MustRegister(constructors ...any) {
	defaultCatalog.MustRegister(constructors...)
}
