package inject

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
)

// FreezePolicy decides which cache entry ends the configuring phase.
type FreezePolicy int

const (
	// FreezeOnConstructed freezes on the first value the kernel constructs
	// itself. Resolving bound instances and factories keeps the kernel open.
	FreezeOnConstructed FreezePolicy = iota

	// FreezeOnAnyEntry freezes on the first successful Get of any kind.
	FreezeOnAnyEntry
)

func (p FreezePolicy) String() string {
	switch p {
	case FreezeOnConstructed:
		return "constructed"
	case FreezeOnAnyEntry:
		return "any"
	default:
		return fmt.Sprintf("FreezePolicy(%d)", int(p))
	}
}

// ParseFreezePolicy parses "constructed" or "any". The empty string is
// FreezeOnConstructed.
func ParseFreezePolicy(s string) (FreezePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "constructed":
		return FreezeOnConstructed, nil
	case "any":
		return FreezeOnAnyEntry, nil
	default:
		return 0, fmt.Errorf("unknown freeze policy %q, expected \"constructed\" or \"any\"", s)
	}
}

// Option configures a Kernel.
type Option interface {
	apply(*options)
}

type options struct {
	logger *slog.Logger
	index  Index
	freeze FreezePolicy
	hooks  []func(reflect.Type)
}

// optionFunc adapts a function to Option.
type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

// WithLogger sets the logger used for kernel diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = logger
	})
}

// WithUniverse resolves against index instead of DefaultUniverse.
func WithUniverse(index Index) Option {
	return optionFunc(func(o *options) {
		o.index = index
	})
}

// WithFreezePolicy sets when the kernel stops accepting bindings.
func WithFreezePolicy(policy FreezePolicy) Option {
	return optionFunc(func(o *options) {
		o.freeze = policy
	})
}

// WithResolvingHook registers fn as if by Kernel.OnResolving.
func WithResolvingHook(fn func(reflect.Type)) Option {
	return optionFunc(func(o *options) {
		if fn != nil {
			o.hooks = append(o.hooks, fn)
		}
	})
}
