package inject_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/junioryono/inject"
	"github.com/junioryono/inject/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Types
// ============================================================================

type Greeter interface {
	Greet() string
}

type EnglishGreeter struct{}

func NewEnglishGreeter() *EnglishGreeter { return &EnglishGreeter{} }

func (*EnglishGreeter) Greet() string { return "hello" }

type FrenchGreeter struct{}

func NewFrenchGreeter() *FrenchGreeter { return &FrenchGreeter{} }

func (*FrenchGreeter) Greet() string { return "bonjour" }

type Welcome struct {
	Greeter Greeter
}

func NewWelcome(g Greeter) *Welcome { return &Welcome{Greeter: g} }

type A struct{ B *B }
type B struct{ A *A }

func NewA(b *B) *A { return &A{B: b} }
func NewB(a *A) *B { return &B{A: a} }

type Service struct {
	W *testutil.With[int]
}

func NewService(w *testutil.With[int]) *Service { return &Service{W: w} }

type Repository interface {
	Name() string
}

type MemoryRepo[T any] struct{}

func NewMemoryRepo[T any]() *MemoryRepo[T] { return &MemoryRepo[T]{} }

func (*MemoryRepo[T]) Name() string { return "memory" }

type Store[T any] interface {
	Put(T)
}

type MemoryStore[T any] struct {
	items []T
}

func NewMemoryStore[T any]() *MemoryStore[T] { return &MemoryStore[T]{} }

func (s *MemoryStore[T]) Put(v T) { s.items = append(s.items, v) }

type Clock interface {
	Now() int
}

type SystemClock struct {
	tick int
}

func (c *SystemClock) Now() int { return c.tick }

type Client struct {
	Port int
}

// ============================================================================
// Resolution
// ============================================================================

func TestKernel_Get(t *testing.T) {
	t.Run("constructs concrete type with dependencies", func(t *testing.T) {
		k := testutil.KernelWithFixtures(t, testutil.CommonFixtures.Complete)

		svc := testutil.AssertResolvable[*testutil.TestServiceWithDeps](t, k)
		assert.NotNil(t, svc.Logger)
		assert.NotNil(t, svc.Database)
		assert.NotNil(t, svc.Cache)
	})

	t.Run("returns identical instance on repeated requests", func(t *testing.T) {
		k := testutil.KernelWithFixtures(t, testutil.CommonFixtures.Complete)

		first := testutil.AssertResolvable[*testutil.TestServiceWithDeps](t, k)
		second := testutil.AssertResolvable[*testutil.TestServiceWithDeps](t, k)
		testutil.AssertSameInstance(t, first, second)

		logger := testutil.AssertResolvable[*testutil.TestLoggerImpl](t, k)
		assert.Same(t, logger, first.Logger)
	})

	t.Run("discovers single implementation of interface", func(t *testing.T) {
		k := testutil.NewKernel(t, NewEnglishGreeter, NewWelcome)

		welcome := testutil.AssertResolvable[*Welcome](t, k)
		assert.Equal(t, "hello", welcome.Greeter.Greet())

		g := testutil.AssertResolvable[Greeter](t, k)
		concrete := testutil.AssertResolvable[*EnglishGreeter](t, k)
		assert.Same(t, concrete, g)
		assert.Same(t, concrete, welcome.Greeter)
	})

	t.Run("interface without implementation has no binding", func(t *testing.T) {
		k := testutil.NewKernel(t)

		_, err := inject.Get[Greeter](k)
		require.Error(t, err)
		assert.EqualError(t, err, "type Greeter has no binding")

		var noBinding inject.NoBindingError
		require.ErrorAs(t, err, &noBinding)
		assert.Equal(t, inject.TypeOf[Greeter](), noBinding.Type)
	})

	t.Run("interface with two implementations is ambiguous", func(t *testing.T) {
		k := testutil.NewKernel(t, NewFrenchGreeter, NewEnglishGreeter)

		_, err := inject.Get[Greeter](k)
		testutil.AssertAmbiguous[Greeter](t, k)
		assert.EqualError(t, err, "type Greeter has more than one implementation: *EnglishGreeter, *FrenchGreeter\n"+
			"add a binding specifying which one to use")

		ambiguous := testutil.AssertErrorType[inject.AmbiguousBindingError](t, err)
		assert.Equal(t, []reflect.Type{
			inject.TypeOf[*EnglishGreeter](),
			inject.TypeOf[*FrenchGreeter](),
		}, ambiguous.Candidates)
	})

	t.Run("binding disambiguates interface", func(t *testing.T) {
		k := testutil.NewKernel(t, NewFrenchGreeter, NewEnglishGreeter)
		require.NoError(t, inject.BindType[Greeter, *FrenchGreeter](k))

		g := testutil.AssertResolvable[Greeter](t, k)
		assert.Equal(t, "bonjour", g.Greet())
	})

	t.Run("generic implementation of non-generic interface is ambiguous", func(t *testing.T) {
		k := testutil.NewKernel(t, NewMemoryRepo[string])

		_, err := inject.Get[Repository](k)
		generic := testutil.AssertErrorType[inject.AmbiguousGenericBindingError](t, err)
		assert.Equal(t, inject.TypeOf[*MemoryRepo[string]](), generic.Candidate)
		assert.True(t, inject.IsAmbiguous(err))
	})

	t.Run("generic implementation of generic interface resolves", func(t *testing.T) {
		k := testutil.NewKernel(t, NewMemoryStore[int])

		s := testutil.AssertResolvable[Store[int]](t, k)
		assert.Same(t, testutil.AssertResolvable[*MemoryStore[int]](t, k), s)
	})

	t.Run("non-struct type without binding", func(t *testing.T) {
		k := testutil.NewKernel(t)

		_, err := k.Get(reflect.TypeOf(0))
		assert.EqualError(t, err, "type int has no binding")
		testutil.AssertNoBinding[int](t, k)
	})

	t.Run("separate kernels build separate instances", func(t *testing.T) {
		b := testutil.NewKernelBuilder(t).WithConstructors(testutil.NewTestService)
		u := inject.NewUniverse(b.Catalog())
		k1 := testutil.NewKernelBuilder(t).WithOption(inject.WithUniverse(u)).Build()
		k2 := testutil.NewKernelBuilder(t).WithOption(inject.WithUniverse(u)).Build()

		testutil.AssertDifferentInstances(t,
			testutil.AssertResolvable[*testutil.TestService](t, k1),
			testutil.AssertResolvable[*testutil.TestService](t, k2),
		)
	})

	t.Run("struct without constructor", func(t *testing.T) {
		k := testutil.NewKernel(t)

		_, err := inject.Get[*Client](k)
		ctorErr := testutil.AssertErrorType[inject.ConstructorError](t, err)
		assert.Equal(t, inject.NoConstructor, ctorErr.Problem)
	})

	t.Run("nil type", func(t *testing.T) {
		k := testutil.NewKernel(t)

		_, err := k.Get(nil)
		assert.Equal(t, inject.ErrNilType, err)
	})

	t.Run("disposed kernel returns the sentinel", func(t *testing.T) {
		k := testutil.NewKernelBuilder(t).WithoutCleanup().Build()
		require.NoError(t, k.Close())

		_, err := k.Get(inject.TypeOf[*Client]())
		assert.Equal(t, inject.ErrKernelDisposed, err)

		var resolveErr *inject.ResolveError
		assert.False(t, errors.As(err, &resolveErr))
	})
}

func TestKernel_ResolveErrorChain(t *testing.T) {
	t.Run("missing leaf dependency", func(t *testing.T) {
		k := testutil.NewKernel(t, testutil.NewWith[int])

		_, err := inject.Get[*testutil.With[int]](k)
		require.Error(t, err)
		assert.Equal(t, "type int has no binding\n"+
			"\n"+
			"new With[int](\n"+
			"  could not resolve int here", err.Error())

		var chain *inject.ResolveError
		require.ErrorAs(t, err, &chain)
		assert.Equal(t, reflect.TypeOf(0), chain.Type)
		require.Len(t, chain.Frames, 1)
		assert.Equal(t, inject.FrameConstructor, chain.Frames[0].Kind)
	})

	t.Run("nested frames are indented", func(t *testing.T) {
		k := testutil.NewKernel(t, testutil.NewWith[int], NewService)

		_, err := inject.Get[*Service](k)
		assert.EqualError(t, err, "type int has no binding\n"+
			"\n"+
			"new Service(\n"+
			"  new With[int](\n"+
			"    could not resolve int here")
	})

	t.Run("circular dependency", func(t *testing.T) {
		k := testutil.NewKernel(t, NewA, NewB)

		_, err := inject.Get[*A](k)
		testutil.AssertCircularDependency(t, err)
		assert.EqualError(t, err, "circular dependency when resolving *A\n"+
			"\n"+
			"new A(\n"+
			"  new B(\n"+
			"    new A(... circular dependency detected")
	})

	t.Run("circular dependency through resolver factory", func(t *testing.T) {
		k := testutil.NewKernel(t, NewB)
		require.NoError(t, inject.BindResolverFactory(k, func(r inject.Resolver) (*A, error) {
			b, err := inject.Get[*B](r)
			if err != nil {
				return nil, err
			}
			return &A{B: b}, nil
		}))

		_, err := inject.Get[*A](k)
		testutil.AssertCircularDependency(t, err)
		assert.EqualError(t, err, "circular dependency when resolving *A\n"+
			"\n"+
			"ResolverFactory[*A](\n"+
			"  new B(\n"+
			"    ResolverFactory[*A](... circular dependency detected")
	})

	t.Run("resolver factory with missing dependency", func(t *testing.T) {
		k := testutil.NewKernel(t)
		require.NoError(t, inject.BindResolverFactory(k, func(r inject.Resolver) (*Client, error) {
			port, err := inject.Get[int](r)
			if err != nil {
				return nil, err
			}
			return &Client{Port: port}, nil
		}))

		_, err := inject.Get[*Client](k)
		assert.EqualError(t, err, "type int has no binding\n"+
			"\n"+
			"ResolverFactory[*Client](\n"+
			"  could not resolve int here")
	})

	t.Run("failing dependency constructor", func(t *testing.T) {
		k := testutil.NewKernel(t,
			func() (*testutil.TestService, error) { return nil, testutil.ErrConstructor },
			func(s *testutil.TestService) *Client { return &Client{} },
		)

		_, err := inject.Get[*Client](k)
		assert.ErrorIs(t, err, testutil.ErrConstructor)
		assert.EqualError(t, err, "creating *TestService failed: constructor error\n"+
			"\n"+
			"new Client(\n"+
			"  could not resolve *TestService here")
	})
}

func TestKernel_ConstructorFailures(t *testing.T) {
	t.Run("error is returned and not memoized", func(t *testing.T) {
		var calls int
		k := testutil.NewKernel(t, func() (*testutil.TestService, error) {
			calls++
			if calls == 1 {
				return nil, testutil.ErrIntentional
			}
			return testutil.NewTestService(), nil
		})

		_, err := inject.Get[*testutil.TestService](k)
		assert.ErrorIs(t, err, testutil.ErrIntentional)
		testutil.AssertErrorType[inject.ConstructorInvocationError](t, err)
		assert.Equal(t, inject.PhaseConfiguring, k.Phase(), "failure must not freeze the kernel")

		testutil.AssertResolvable[*testutil.TestService](t, k)
		assert.Equal(t, 2, calls)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		k := testutil.NewKernel(t, func() *testutil.TestService { panic("boom") })

		_, err := inject.Get[*testutil.TestService](k)
		panicErr := testutil.AssertErrorType[inject.ConstructorPanicError](t, err)
		assert.Equal(t, "boom", panicErr.Panic)
		assert.NotEmpty(t, panicErr.Stack)
	})

	t.Run("factory panic is recovered", func(t *testing.T) {
		k := testutil.NewKernel(t)
		require.NoError(t, inject.BindFactory(k, func() (*Client, error) { panic("factory boom") }))

		_, err := inject.Get[*Client](k)
		panicErr := testutil.AssertErrorType[inject.ConstructorPanicError](t, err)
		assert.Equal(t, "factory boom", panicErr.Panic)
	})

	t.Run("multiple constructors", func(t *testing.T) {
		k := testutil.NewKernel(t, testutil.NewTestService, func() *testutil.TestService { return nil })

		_, err := inject.Get[*testutil.TestService](k)
		ctorErr := testutil.AssertErrorType[inject.ConstructorError](t, err)
		assert.Equal(t, inject.MultipleConstructors, ctorErr.Problem)
		assert.Contains(t, err.Error(), "add a binding specifying which constructor to use")
	})

	t.Run("variadic constructor", func(t *testing.T) {
		k := testutil.NewKernel(t, func(ids ...string) *testutil.TestService { return &testutil.TestService{} })

		_, err := inject.Get[*testutil.TestService](k)
		ctorErr := testutil.AssertErrorType[inject.ConstructorError](t, err)
		assert.Equal(t, inject.VariadicConstructor, ctorErr.Problem)
	})

	t.Run("binding bypasses constructor problems", func(t *testing.T) {
		k := testutil.NewKernel(t, testutil.NewTestService, func() *testutil.TestService { return nil })
		svc := &testutil.TestService{ID: "bound"}
		require.NoError(t, inject.BindInstance(k, svc))

		assert.Same(t, svc, testutil.AssertResolvable[*testutil.TestService](t, k))
	})
}

// ============================================================================
// Bindings
// ============================================================================

func TestKernel_Bind(t *testing.T) {
	t.Run("alias collapses onto target", func(t *testing.T) {
		k := testutil.NewKernel(t, NewEnglishGreeter)
		require.NoError(t, inject.BindType[Greeter, *EnglishGreeter](k))

		g := testutil.AssertResolvable[Greeter](t, k)
		e := testutil.AssertResolvable[*EnglishGreeter](t, k)
		assert.Same(t, e, g)
		assert.True(t, inject.HasBinding[Greeter](k))
		assert.False(t, inject.HasBinding[*EnglishGreeter](k))
	})

	t.Run("instance", func(t *testing.T) {
		k := testutil.NewKernel(t)
		clock := &SystemClock{tick: 7}
		require.NoError(t, inject.BindInstance[Clock](k, clock))

		c := testutil.AssertResolvable[Clock](t, k)
		assert.Same(t, clock, c)
		assert.Same(t, clock, testutil.AssertResolvable[*SystemClock](t, k))
	})

	t.Run("factory is called once", func(t *testing.T) {
		k := testutil.NewKernel(t)
		var calls int
		require.NoError(t, inject.BindFactory(k, func() (*Client, error) {
			calls++
			return &Client{Port: 8080}, nil
		}))

		first := testutil.AssertResolvable[*Client](t, k)
		second := testutil.AssertResolvable[*Client](t, k)
		assert.Same(t, first, second)
		assert.Equal(t, 1, calls)
	})

	t.Run("factory error", func(t *testing.T) {
		k := testutil.NewKernel(t)
		require.NoError(t, inject.BindFactory(k, func() (*Client, error) { return nil, testutil.ErrTest }))

		_, err := inject.Get[*Client](k)
		assert.ErrorIs(t, err, testutil.ErrTest)
		testutil.AssertErrorType[inject.ConstructorInvocationError](t, err)
	})

	t.Run("resolver factory resolves dependencies", func(t *testing.T) {
		k := testutil.NewKernel(t)
		require.NoError(t, inject.BindInstance(k, 9090))
		require.NoError(t, inject.BindResolverFactory(k, func(r inject.Resolver) (*Client, error) {
			port, err := inject.Get[int](r)
			return &Client{Port: port}, err
		}))

		c := testutil.AssertResolvable[*Client](t, k)
		assert.Equal(t, 9090, c.Port)
	})

	t.Run("uninitialized breaks cycle", func(t *testing.T) {
		k := testutil.NewKernel(t, NewA, NewB)
		require.NoError(t, inject.BindUninitialized[*B](k))

		a := testutil.AssertResolvable[*A](t, k)
		require.NotNil(t, a.B)
		assert.Nil(t, a.B.A)
		assert.Same(t, a.B, testutil.AssertResolvable[*B](t, k))
	})

	t.Run("map binding", func(t *testing.T) {
		k := testutil.NewKernel(t, NewEnglishGreeter, NewFrenchGreeter)
		require.NoError(t, k.Bind(inject.TypeOf[Greeter](), inject.Map(inject.TypeOf[*EnglishGreeter]())))

		assert.Equal(t, "hello", testutil.AssertResolvable[Greeter](t, k).Greet())
	})
}

func TestKernel_BindErrors(t *testing.T) {
	testutil.RunErrorTestCases(t, []testutil.ErrorTestCase{
		{
			Name:  "already bound",
			Setup: func(t *testing.T) *inject.Kernel { return testutil.NewKernel(t) },
			Action: func(k *inject.Kernel) error {
				if err := inject.BindType[Greeter, *EnglishGreeter](k); err != nil {
					return err
				}
				return inject.BindType[Greeter, *FrenchGreeter](k)
			},
			WantError: inject.ErrAlreadyBound,
			CheckErr: func(t *testing.T, err error) {
				assert.EqualError(t, err, "Greeter already has a binding, it is mapped to the type *EnglishGreeter")
			},
		},
		{
			Name:   "self binding",
			Setup:  func(t *testing.T) *inject.Kernel { return testutil.NewKernel(t) },
			Action: func(k *inject.Kernel) error { return inject.BindType[*Client, *Client](k) },
			WantError: inject.ErrSelfBinding,
			CheckErr: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "trying to bind *Client to itself")
			},
		},
		{
			Name:      "alias target not assignable",
			Setup:     func(t *testing.T) *inject.Kernel { return testutil.NewKernel(t) },
			Action:    func(k *inject.Kernel) error { return inject.BindType[Greeter, *Client](k) },
			WantError: inject.ErrNotAssignable,
		},
		{
			Name:  "nil instance",
			Setup: func(t *testing.T) *inject.Kernel { return testutil.NewKernel(t) },
			Action: func(k *inject.Kernel) error {
				return inject.BindInstance[*Client](k, nil)
			},
			WantError: inject.ErrNilInstance,
		},
		{
			Name:  "instance not assignable",
			Setup: func(t *testing.T) *inject.Kernel { return testutil.NewKernel(t) },
			Action: func(k *inject.Kernel) error {
				return k.Bind(inject.TypeOf[Greeter](), inject.Instance(&Client{}))
			},
			WantError: inject.ErrNotAssignable,
		},
		{
			Name:  "nil factory",
			Setup: func(t *testing.T) *inject.Kernel { return testutil.NewKernel(t) },
			Action: func(k *inject.Kernel) error {
				return inject.BindFactory[*Client](k, nil)
			},
			WantError: inject.ErrNilFactory,
		},
		{
			Name:  "nil resolver factory",
			Setup: func(t *testing.T) *inject.Kernel { return testutil.NewKernel(t) },
			Action: func(k *inject.Kernel) error {
				return inject.BindResolverFactory[*Client](k, nil)
			},
			WantError: inject.ErrNilFactory,
		},
		{
			Name:      "uninitialized non-struct",
			Setup:     func(t *testing.T) *inject.Kernel { return testutil.NewKernel(t) },
			Action:    func(k *inject.Kernel) error { return inject.BindUninitialized[int](k) },
			WantError: inject.ErrNotAllocatable,
		},
		{
			Name:      "nil source type",
			Setup:     func(t *testing.T) *inject.Kernel { return testutil.NewKernel(t) },
			Action:    func(k *inject.Kernel) error { return k.Bind(nil, inject.Instance(1)) },
			WantError: inject.ErrNilType,
		},
		{
			Name:      "rebind without binding",
			Setup:     func(t *testing.T) *inject.Kernel { return testutil.NewKernel(t) },
			Action:    func(k *inject.Kernel) error { return inject.RebindInstance(k, &Client{}) },
			WantError: inject.ErrNotBound,
		},
	})
}

func TestKernel_Rebind(t *testing.T) {
	k := testutil.NewKernel(t, NewEnglishGreeter, NewFrenchGreeter)

	require.NoError(t, inject.BindInstance(k, &Client{Port: 1}))
	assert.Equal(t, 1, testutil.AssertResolvable[*Client](t, k).Port)

	// Supplied values do not freeze the kernel, and rebinding replaces them.
	require.NoError(t, inject.RebindInstance(k, &Client{Port: 2}))
	assert.Equal(t, 2, testutil.AssertResolvable[*Client](t, k).Port)

	require.NoError(t, inject.BindType[Greeter, *EnglishGreeter](k))
	require.NoError(t, inject.RebindType[Greeter, *FrenchGreeter](k))
	assert.Equal(t, "bonjour", testutil.AssertResolvable[Greeter](t, k).Greet())

	err := inject.RebindType[Greeter, *EnglishGreeter](k)
	assert.ErrorIs(t, err, inject.ErrBindAfterGet)

	var bindErr inject.BindingError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "Rebind", bindErr.Operation)
}

func TestKernel_SuppliedValuesAcrossBinds(t *testing.T) {
	t.Run("bind keeps unrelated supplied values", func(t *testing.T) {
		k := testutil.NewKernel(t)

		calls := 0
		require.NoError(t, inject.BindFactory(k, func() (*Client, error) {
			calls++
			return &Client{Port: calls}, nil
		}))
		first := testutil.AssertResolvable[*Client](t, k)

		require.NoError(t, inject.BindInstance(k, &SystemClock{tick: 1}))

		assert.Same(t, first, testutil.AssertResolvable[*Client](t, k))
		assert.Equal(t, 1, calls)
	})

	t.Run("rebind keeps unrelated supplied values", func(t *testing.T) {
		k := testutil.NewKernel(t)

		require.NoError(t, inject.BindFactory(k, func() (*Client, error) {
			return &Client{Port: 1}, nil
		}))
		require.NoError(t, inject.BindInstance[Clock](k, &SystemClock{tick: 1}))
		client := testutil.AssertResolvable[*Client](t, k)

		require.NoError(t, inject.RebindInstance[Clock](k, &SystemClock{tick: 2}))

		assert.Same(t, client, testutil.AssertResolvable[*Client](t, k))
		assert.Equal(t, 2, testutil.AssertResolvable[Clock](t, k).Now())
	})

	t.Run("rebind replaces the runtime type record", func(t *testing.T) {
		k := testutil.NewKernel(t)
		require.NoError(t, inject.BindInstance[Clock](k, &SystemClock{tick: 1}))
		assert.Equal(t, 1, testutil.AssertResolvable[Clock](t, k).Now())
		assert.Equal(t, 1, testutil.AssertResolvable[*SystemClock](t, k).Now())

		require.NoError(t, inject.RebindInstance[Clock](k, &SystemClock{tick: 2}))

		c := testutil.AssertResolvable[Clock](t, k)
		assert.Equal(t, 2, c.Now())
		assert.Same(t, c, testutil.AssertResolvable[*SystemClock](t, k))
	})

	t.Run("rebind replaces aliases of the rebound type", func(t *testing.T) {
		k := testutil.NewKernel(t)
		require.NoError(t, inject.BindType[Clock, *SystemClock](k))
		require.NoError(t, inject.BindInstance(k, &SystemClock{tick: 1}))
		assert.Equal(t, 1, testutil.AssertResolvable[Clock](t, k).Now())

		require.NoError(t, inject.RebindInstance(k, &SystemClock{tick: 2}))

		assert.Equal(t, 2, testutil.AssertResolvable[Clock](t, k).Now())
	})

	t.Run("rebind replaces discovered interfaces", func(t *testing.T) {
		k := testutil.NewKernel(t, func() *SystemClock { return &SystemClock{tick: 9} })
		require.NoError(t, inject.BindInstance(k, &SystemClock{tick: 1}))
		assert.Equal(t, 1, testutil.AssertResolvable[Clock](t, k).Now())

		require.NoError(t, inject.RebindInstance(k, &SystemClock{tick: 2}))

		assert.Equal(t, 2, testutil.AssertResolvable[Clock](t, k).Now())
		assert.Equal(t, inject.PhaseConfiguring, k.Phase())
	})

	t.Run("bind overrides a runtime type record", func(t *testing.T) {
		k := testutil.NewKernel(t)
		require.NoError(t, inject.BindFactory(k, func() (Clock, error) {
			return &SystemClock{tick: 1}, nil
		}))
		c := testutil.AssertResolvable[Clock](t, k)

		own := &SystemClock{tick: 2}
		require.NoError(t, inject.BindInstance(k, own))

		assert.Same(t, own, testutil.AssertResolvable[*SystemClock](t, k))
		assert.Same(t, c, testutil.AssertResolvable[Clock](t, k))
	})
}

// ============================================================================
// Freeze protocol
// ============================================================================

func TestKernel_Freeze(t *testing.T) {
	t.Run("constructed value freezes configuration", func(t *testing.T) {
		k := testutil.NewKernel(t, testutil.NewTestService)
		assert.Equal(t, inject.PhaseConfiguring, k.Phase())

		testutil.AssertResolvable[*testutil.TestService](t, k)
		assert.Equal(t, inject.PhaseResolved, k.Phase())

		err := inject.BindInstance(k, &Client{})
		assert.ErrorIs(t, err, inject.ErrBindAfterGet)
		assert.EqualError(t, err, "Bind not allowed after Get\nthis could create hard to track down graph bugs")
	})

	t.Run("supplied value does not freeze configuration", func(t *testing.T) {
		k := testutil.NewKernel(t)
		require.NoError(t, inject.BindInstance(k, &Client{}))

		testutil.AssertResolvable[*Client](t, k)
		assert.Equal(t, inject.PhaseConfiguring, k.Phase())
		assert.NoError(t, inject.BindInstance(k, 42))
	})

	t.Run("failed resolution does not freeze configuration", func(t *testing.T) {
		k := testutil.NewKernel(t)

		_, err := inject.Get[Greeter](k)
		require.Error(t, err)
		assert.Equal(t, inject.PhaseConfiguring, k.Phase())
	})

	t.Run("strict policy freezes on any entry", func(t *testing.T) {
		k := testutil.NewKernelBuilder(t).
			WithOption(inject.WithFreezePolicy(inject.FreezeOnAnyEntry)).
			Build()
		require.NoError(t, inject.BindInstance(k, &Client{}))

		testutil.AssertResolvable[*Client](t, k)
		assert.Equal(t, inject.PhaseResolved, k.Phase())
		assert.ErrorIs(t, inject.BindInstance(k, 42), inject.ErrBindAfterGet)
	})
}

// ============================================================================
// Provenance
// ============================================================================

func TestKernel_Provenance(t *testing.T) {
	newClock := func() *SystemClock { return &SystemClock{tick: 1} }

	t.Run("supplied value answers for its runtime type", func(t *testing.T) {
		var constructed int
		k := testutil.NewKernel(t, func() *SystemClock {
			constructed++
			return newClock()
		})
		require.NoError(t, inject.BindFactory(k, func() (Clock, error) {
			return &SystemClock{tick: 2}, nil
		}))

		c := testutil.AssertResolvable[Clock](t, k)
		s := testutil.AssertResolvable[*SystemClock](t, k)
		assert.Same(t, c, s)
		assert.Equal(t, 2, s.Now())
		assert.Zero(t, constructed)
	})

	t.Run("conflict with constructed value", func(t *testing.T) {
		k := testutil.NewKernel(t, newClock)
		require.NoError(t, inject.BindFactory(k, func() (Clock, error) {
			return &SystemClock{tick: 2}, nil
		}))

		testutil.AssertResolvable[*SystemClock](t, k)

		_, err := inject.Get[Clock](k)
		conflict := testutil.AssertErrorType[inject.ProvenanceConflictError](t, err)
		assert.Equal(t, inject.TypeOf[*SystemClock](), conflict.Type)
		assert.Equal(t, inject.TypeOf[Clock](), conflict.Requested)
		assert.Equal(t, inject.StrategyFactory, conflict.Strategy)
		assert.Contains(t, err.Error(), "an instance of type *SystemClock was already created")
		assert.Contains(t, err.Error(), "BindType[Clock, *SystemClock]()")
	})

	t.Run("runtime type with own binding is left alone", func(t *testing.T) {
		k := testutil.NewKernel(t)
		own := &SystemClock{tick: 3}
		require.NoError(t, inject.BindInstance(k, own))
		require.NoError(t, inject.BindFactory(k, func() (Clock, error) {
			return &SystemClock{tick: 4}, nil
		}))

		assert.Equal(t, 4, testutil.AssertResolvable[Clock](t, k).Now())
		assert.Same(t, own, testutil.AssertResolvable[*SystemClock](t, k))
	})
}

// ============================================================================
// Hooks
// ============================================================================

func TestKernel_OnResolving(t *testing.T) {
	var seen []reflect.Type
	k := testutil.NewKernelBuilder(t).
		WithConstructors(NewEnglishGreeter, NewWelcome).
		WithOption(inject.WithResolvingHook(func(rt reflect.Type) { seen = append(seen, rt) })).
		Build()

	var late int
	k.OnResolving(func(reflect.Type) { late++ })
	k.OnResolving(nil)

	testutil.AssertResolvable[*Welcome](t, k)
	testutil.AssertResolvable[*Welcome](t, k)

	assert.Equal(t, []reflect.Type{inject.TypeOf[*EnglishGreeter](), inject.TypeOf[*Welcome]()}, seen)
	assert.Equal(t, 2, late)
}

// ============================================================================
// Disposal
// ============================================================================

type Pool struct {
	name string
	log  *[]string
}

func (p *Pool) Close() error {
	*p.log = append(*p.log, p.name)
	return nil
}

type Handler struct {
	Pool *Pool
	log  *[]string
}

func (h *Handler) Close() error {
	*h.log = append(*h.log, "handler")
	return nil
}

func TestKernel_Close(t *testing.T) {
	t.Run("disposes constructed values newest first", func(t *testing.T) {
		var closed []string
		k := testutil.NewKernelBuilder(t).
			WithConstructors(
				func() *Pool { return &Pool{name: "pool", log: &closed} },
				func(p *Pool) *Handler { return &Handler{Pool: p, log: &closed} },
			).
			WithoutCleanup().
			Build()

		testutil.AssertResolvable[*Handler](t, k)

		require.NoError(t, k.Close())
		assert.Equal(t, []string{"handler", "pool"}, closed)
		testutil.AssertKernelDisposed(t, k)
	})

	t.Run("supplied values are not disposed", func(t *testing.T) {
		k := testutil.NewKernelBuilder(t).WithoutCleanup().Build()
		supplied := testutil.NewTestDisposable()
		require.NoError(t, inject.BindInstance(k, supplied))
		require.NoError(t, inject.BindFactory(k, func() (*testutil.TestContextDisposable, error) {
			return testutil.NewTestContextDisposable(), nil
		}))

		testutil.AssertResolvable[*testutil.TestDisposable](t, k)
		fromFactory := testutil.AssertResolvable[*testutil.TestContextDisposable](t, k)

		require.NoError(t, k.Close())
		assert.False(t, supplied.IsDisposed())
		assert.False(t, fromFactory.IsDisposed())
	})

	t.Run("aliased value is disposed once", func(t *testing.T) {
		k := testutil.NewKernelBuilder(t).
			WithConstructors(testutil.NewTestDatabase).
			WithoutCleanup().
			Build()
		require.NoError(t, inject.BindType[testutil.TestDatabase, *testutil.TestDatabaseImpl](k))

		db := testutil.AssertResolvable[testutil.TestDatabase](t, k)
		assert.Same(t, testutil.AssertResolvable[*testutil.TestDatabaseImpl](t, k), db)

		// A second Close on the database would fail with ErrAlreadyClosed.
		assert.NoError(t, k.Close())
		assert.ErrorIs(t, db.Close(), testutil.ErrAlreadyClosed)
	})

	t.Run("context disposable", func(t *testing.T) {
		k := testutil.NewKernelBuilder(t).
			WithConstructors(testutil.NewTestContextDisposable).
			WithoutCleanup().
			Build()

		d := testutil.AssertResolvable[*testutil.TestContextDisposable](t, k)
		require.NoError(t, k.Close())
		assert.True(t, d.IsDisposed())
		assert.True(t, d.WasDisposedWithContext())
	})

	t.Run("aggregates failures", func(t *testing.T) {
		k := testutil.NewKernelBuilder(t).
			WithConstructors(func() *testutil.TestDisposable {
				return testutil.NewTestDisposableWithError(testutil.ErrDisposal)
			}).
			WithoutCleanup().
			Build()

		testutil.AssertResolvable[*testutil.TestDisposable](t, k)

		err := k.Close()
		assert.ErrorIs(t, err, testutil.ErrDisposal)
		disposal := testutil.AssertErrorType[inject.DisposalError](t, err)
		assert.Len(t, disposal.Errors, 1)
	})

	t.Run("value constructed during close is released", func(t *testing.T) {
		var built *testutil.TestDisposable
		k := testutil.NewKernelBuilder(t).
			WithConstructors(func() *testutil.TestDisposable {
				built = testutil.NewTestDisposable()
				return built
			}).
			WithoutCleanup().
			Build()
		k.OnResolving(func(reflect.Type) {
			assert.NoError(t, k.Close())
		})

		_, err := inject.Get[*testutil.TestDisposable](k)
		assert.ErrorIs(t, err, inject.ErrKernelDisposed)
		require.NotNil(t, built)
		assert.True(t, built.IsDisposed())
		testutil.AssertKernelDisposed(t, k)
	})

	t.Run("idempotent", func(t *testing.T) {
		k := testutil.NewKernelBuilder(t).
			WithConstructors(testutil.NewTestDisposable).
			WithoutCleanup().
			Build()

		d := testutil.AssertResolvable[*testutil.TestDisposable](t, k)
		require.NoError(t, k.Close())
		require.NoError(t, k.Close())
		assert.True(t, d.IsDisposed())
	})
}

func TestKernel_ID(t *testing.T) {
	k1 := testutil.NewKernel(t)
	k2 := testutil.NewKernel(t)

	assert.NotEmpty(t, k1.ID())
	assert.NotEqual(t, k1.ID(), k2.ID())
}

func TestMustGet(t *testing.T) {
	k := testutil.NewKernel(t, testutil.NewTestService)

	assert.NotPanics(t, func() {
		inject.MustGet[*testutil.TestService](k)
	})
	assert.Panics(t, func() {
		inject.MustGet[Greeter](k)
	})
}

func TestGet_NilResolver(t *testing.T) {
	_, err := inject.Get[*Client](nil)
	assert.True(t, errors.Is(err, inject.ErrNilType))
}
