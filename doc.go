// Package inject builds object graphs on demand.
//
// A Kernel resolves a requested type by calling the constructor registered
// for it, resolving every constructor parameter the same way. Interface
// requests resolve to the single concrete type implementing them. Each type
// is built at most once per kernel, so every request for it observes the
// same instance.
//
// # Registering constructors
//
// Go cannot enumerate types at run time, so packages declare their
// constructors from init:
//
//	func init() {
//	    inject.MustRegister(NewUserService, NewPostgresStore)
//	}
//
//	func NewUserService(store Store, log *slog.Logger) *UserService
//	func NewPostgresStore(cfg *Config) (*PostgresStore, error)
//
// A constructor returns T or (T, error). A concrete type needs exactly one
// constructor; interfaces need exactly one implementation among the
// registered types.
//
// # Basic usage
//
//	kernel := inject.New()
//	defer kernel.Close()
//
//	svc, err := inject.Get[*UserService](kernel)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Bindings
//
// Bindings override discovery and constructors for one type:
//
//	inject.BindType[Store, *PostgresStore](kernel)     // alias
//	inject.BindInstance(kernel, cfg)                  // existing value
//	inject.BindFactory(kernel, func() (*Clock, error) { return NewClock(time.UTC), nil })
//	inject.BindResolverFactory(kernel, func(r inject.Resolver) (*Client, error) {
//	    cfg, err := inject.Get[*Config](r)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewClient(cfg.URL), nil
//	})
//	inject.BindUninitialized[*Node](kernel)            // zero value, no constructor
//
// Values produced by bindings are supplied: the kernel caches them but does
// not own them. Values built through constructors are constructed: the
// kernel owns them and closes those implementing Disposable when it is
// closed, newest first.
//
// Bindings can only be added while the kernel is configuring. The first
// constructed value freezes the configuration; WithFreezePolicy(FreezeOnAnyEntry)
// freezes on any successful Get instead.
//
// # Errors
//
// Every failed Get returns a *ResolveError whose Cause is one of the typed
// resolution errors (NoBindingError, AmbiguousBindingError,
// CircularDependencyError, ConstructorError, ...). Its message shows where
// in the graph resolution failed:
//
//	type int has no binding
//
//	new Service(
//	  new With[int](
//	    could not resolve int here
//
// # Concurrency
//
// Get is safe for concurrent use; concurrent requests for the same type
// build it once. Requests that wait on each other in a cycle fail with a
// CircularDependencyError instead of blocking. A factory must not call back
// into the kernel for a type whose resolution is in progress on the same
// goroutine; use a ResolverFactory, whose Resolver shares the caller's
// resolution, and only from the factory's goroutine.
package inject
