package testutil

import (
	"testing"

	"github.com/junioryono/inject"
	"github.com/stretchr/testify/assert"
)

// ConstructorFixture is a named set of constructors registered together.
type ConstructorFixture struct {
	Name         string
	Constructors []any
}

// CommonFixtures provides common constructor sets for testing.
var CommonFixtures = struct {
	Basic    ConstructorFixture
	Complete ConstructorFixture
	Circular ConstructorFixture
}{
	Basic: ConstructorFixture{
		Name:         "Basic",
		Constructors: []any{NewTestLogger, NewTestDatabase, NewTestCache},
	},
	Complete: ConstructorFixture{
		Name:         "Complete",
		Constructors: []any{NewTestLogger, NewTestDatabase, NewTestCache, NewTestServiceWithDeps},
	},
	Circular: ConstructorFixture{
		Name:         "Circular",
		Constructors: []any{NewCircularServiceA, NewCircularServiceB},
	},
}

// KernelWithFixtures creates a kernel whose catalog holds every fixture.
func KernelWithFixtures(t *testing.T, fixtures ...ConstructorFixture) *inject.Kernel {
	t.Helper()

	b := NewKernelBuilder(t)
	for _, f := range fixtures {
		b.WithConstructors(f.Constructors...)
	}
	return b.Build()
}

// ErrorTestCase represents a test case for error scenarios.
type ErrorTestCase struct {
	Name      string
	Setup     func(t *testing.T) *inject.Kernel
	Action    func(k *inject.Kernel) error
	WantError error
	CheckErr  func(t *testing.T, err error)
}

// RunErrorTestCases executes error test cases in parallel.
func RunErrorTestCases(t *testing.T, cases []ErrorTestCase) {
	t.Helper()

	for _, tc := range cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()

			k := tc.Setup(t)
			err := tc.Action(k)

			if tc.WantError != nil {
				RequireError(t, err)
				assert.ErrorIs(t, err, tc.WantError)
			}

			if tc.CheckErr != nil {
				tc.CheckErr(t, err)
			}
		})
	}
}
