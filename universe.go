package inject

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/junioryono/inject/internal/reflection"
)

// Index answers the two questions the resolver asks about types it has no
// binding for: which concrete types implement an interface, and how to
// construct a concrete type.
type Index interface {
	// Candidates returns the concrete types implementing abstract, ordered by
	// qualified name. Non-interface types have no candidates.
	Candidates(abstract reflect.Type) []reflect.Type

	// Describe returns the construction shape of a concrete type.
	Describe(concrete reflect.Type) (*Descriptor, error)
}

var _ Index = (*Universe)(nil)

// Universe is a read-only snapshot of a Catalog, built once on first query
// and shared by every kernel using it.
type Universe struct {
	catalog *Catalog
	once    sync.Once

	ctors map[reflect.Type][]*reflection.ConstructorInfo
	types []reflect.Type

	candidates  sync.Map // map[reflect.Type][]reflect.Type
	descriptors sync.Map // map[reflect.Type]describeResult
}

type describeResult struct {
	descriptor *Descriptor
	err        error
}

// NewUniverse creates a universe over catalog. Nothing is read from the
// catalog until the first query.
func NewUniverse(catalog *Catalog) *Universe {
	return &Universe{catalog: catalog}
}

var defaultUniverse = sync.OnceValue(func() *Universe {
	return NewUniverse(defaultCatalog)
})

// DefaultUniverse returns the universe over the default catalog.
func DefaultUniverse() *Universe {
	return defaultUniverse()
}

func (u *Universe) build() {
	u.once.Do(func() {
		u.ctors = u.catalog.seal()

		u.types = make([]reflect.Type, 0, len(u.ctors))
		for t := range u.ctors {
			u.types = append(u.types, t)
		}
		sort.Slice(u.types, func(i, j int) bool {
			return qualifiedName(u.types[i]) < qualifiedName(u.types[j])
		})
	})
}

// Types returns every concrete type in the snapshot.
func (u *Universe) Types() []reflect.Type {
	u.build()
	return append([]reflect.Type(nil), u.types...)
}

// Candidates implements Index.
func (u *Universe) Candidates(abstract reflect.Type) []reflect.Type {
	if abstract == nil || abstract.Kind() != reflect.Interface {
		return nil
	}

	u.build()

	if cached, ok := u.candidates.Load(abstract); ok {
		return cached.([]reflect.Type)
	}

	var found []reflect.Type
	for _, t := range u.types {
		if t.Kind() != reflect.Interface && t.Implements(abstract) {
			found = append(found, t)
		}
	}

	actual, _ := u.candidates.LoadOrStore(abstract, found)
	return actual.([]reflect.Type)
}

// isGeneric reports whether t, ignoring pointers, is an instantiated generic type.
func isGeneric(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return strings.Contains(t.Name(), "[")
}
