package testutil

import (
	"reflect"
	"testing"

	"github.com/junioryono/inject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertResolvable checks that T resolves to a non-nil value.
func AssertResolvable[T any](t *testing.T, r inject.Resolver) T {
	t.Helper()
	service, err := inject.Get[T](r)
	require.NoError(t, err, "failed to resolve %v", inject.TypeOf[T]())
	require.NotNil(t, service, "resolved service is nil")
	return service
}

// AssertNoBinding checks that resolving T fails because some type has no binding.
func AssertNoBinding[T any](t *testing.T, r inject.Resolver) {
	t.Helper()
	_, err := inject.Get[T](r)
	assert.Error(t, err)
	assert.True(t, inject.IsNoBinding(err), "expected no binding error, got: %v", err)
}

// AssertAmbiguous checks that resolving T fails because of ambiguity.
func AssertAmbiguous[T any](t *testing.T, r inject.Resolver) {
	t.Helper()
	_, err := inject.Get[T](r)
	assert.Error(t, err)
	assert.True(t, inject.IsAmbiguous(err), "expected ambiguous binding error, got: %v", err)
}

// AssertSameInstance verifies two values are the same instance.
func AssertSameInstance(t *testing.T, expected, actual any, msgAndArgs ...any) {
	t.Helper()
	assert.Same(t, expected, actual, msgAndArgs...)
}

// AssertDifferentInstances verifies two values are different instances.
func AssertDifferentInstances(t *testing.T, first, second any, msgAndArgs ...any) {
	t.Helper()
	assert.NotSame(t, first, second, msgAndArgs...)
}

// AssertKernelDisposed checks that operations on a closed kernel fail correctly.
func AssertKernelDisposed(t *testing.T, k *inject.Kernel) {
	t.Helper()
	assert.Equal(t, inject.PhaseDisposed, k.Phase(), "kernel should be disposed")

	_, err := k.Get(reflect.TypeOf(0))
	assert.ErrorIs(t, err, inject.ErrKernelDisposed)

	err = k.Bind(reflect.TypeOf(0), inject.Instance(1))
	assert.ErrorIs(t, err, inject.ErrKernelDisposed)
}

// AssertErrorType checks if an error is of a specific type.
func AssertErrorType[T error](t *testing.T, err error, msgAndArgs ...any) T {
	t.Helper()
	var target T
	assert.ErrorAs(t, err, &target, msgAndArgs...)
	return target
}

// AssertCircularDependency checks if an error is a circular dependency error.
func AssertCircularDependency(t *testing.T, err error) {
	t.Helper()
	assert.Error(t, err)
	assert.True(t, inject.IsCircularDependency(err), "expected circular dependency error, got: %v", err)
}

// RequireError is a helper that uses require.Error.
func RequireError(t *testing.T, err error, msgAndArgs ...any) {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
}
