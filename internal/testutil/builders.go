package testutil

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/junioryono/inject"
	"github.com/stretchr/testify/require"
)

// KernelBuilder helps build kernels over an isolated catalog for testing.
type KernelBuilder struct {
	t            *testing.T
	catalog      *inject.Catalog
	bindings     []binding
	options      []inject.Option
	disableClose bool
}

type binding struct {
	source  reflect.Type
	binding inject.Binding
}

// NewKernelBuilder creates a builder with a fresh catalog. Kernels it builds
// log nowhere unless WithOption(inject.WithLogger(...)) is given.
func NewKernelBuilder(t *testing.T) *KernelBuilder {
	t.Helper()
	return &KernelBuilder{
		t:       t,
		catalog: inject.NewCatalog(),
		options: []inject.Option{inject.WithLogger(DiscardLogger())},
	}
}

// WithConstructors registers constructors in the builder's catalog.
func (b *KernelBuilder) WithConstructors(constructors ...any) *KernelBuilder {
	b.t.Helper()
	for _, ctor := range constructors {
		require.NoError(b.t, b.catalog.Register(ctor), "failed to register %T", ctor)
	}
	return b
}

// WithBinding binds source once the kernel is built.
func (b *KernelBuilder) WithBinding(source reflect.Type, bnd inject.Binding) *KernelBuilder {
	b.bindings = append(b.bindings, binding{source: source, binding: bnd})
	return b
}

// WithOption adds a kernel option.
func (b *KernelBuilder) WithOption(opt inject.Option) *KernelBuilder {
	b.options = append(b.options, opt)
	return b
}

// WithoutCleanup keeps the kernel open when the test ends.
func (b *KernelBuilder) WithoutCleanup() *KernelBuilder {
	b.disableClose = true
	return b
}

// Catalog returns the builder's catalog.
func (b *KernelBuilder) Catalog() *inject.Catalog {
	return b.catalog
}

// Build creates the kernel and applies the bindings.
func (b *KernelBuilder) Build() *inject.Kernel {
	b.t.Helper()

	opts := append([]inject.Option{inject.WithUniverse(inject.NewUniverse(b.catalog))}, b.options...)
	k := inject.New(opts...)

	for _, bnd := range b.bindings {
		require.NoError(b.t, k.Bind(bnd.source, bnd.binding), "failed to bind %v", bnd.source)
	}

	if !b.disableClose {
		b.t.Cleanup(func() {
			_ = k.Close()
		})
	}

	return k
}

// NewKernel is shorthand for NewKernelBuilder(t).WithConstructors(constructors...).Build().
func NewKernel(t *testing.T, constructors ...any) *inject.Kernel {
	t.Helper()
	return NewKernelBuilder(t).WithConstructors(constructors...).Build()
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
