package inject

import "sync/atomic"

// defaultKernel holds the kernel returned by Default.
var defaultKernel atomic.Pointer[Kernel]

// SetDefault sets the kernel FromContext falls back to when a context
// carries none. This is similar to slog.SetDefault. Pass nil to remove it.
func SetDefault(k *Kernel) {
	defaultKernel.Store(k)
}

// Default returns the kernel set by SetDefault, or nil.
func Default() *Kernel {
	return defaultKernel.Load()
}
