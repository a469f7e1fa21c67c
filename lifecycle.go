package inject

import (
	"context"
	"fmt"
	"sync"
)

// lifecycleManager records constructed values in construction order and
// releases the disposable ones exactly once, newest first.
type lifecycleManager struct {
	instances []any
	closed    bool
	mu        sync.Mutex
}

func newLifecycleManager() *lifecycleManager {
	return &lifecycleManager{}
}

// track records a value constructed by the kernel. A value constructed
// after dispose is released at once and ErrKernelDisposed is returned.
func (m *lifecycleManager) track(instance any) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		if err := release(context.Background(), instance); err != nil {
			return fmt.Errorf("%w: releasing %s: %w", ErrKernelDisposed, formatTypeOf(instance), err)
		}
		return ErrKernelDisposed
	}
	defer m.mu.Unlock()

	switch instance.(type) {
	case Disposable, DisposableWithContext:
		m.instances = append(m.instances, instance)
	}
	return nil
}

// dispose closes all tracked values in reverse order. Later calls to track
// release their value immediately.
func (m *lifecycleManager) dispose(ctx context.Context) error {
	m.mu.Lock()
	instances := m.instances
	m.instances = nil
	m.closed = true
	m.mu.Unlock()

	var errs []error
	var released []any

	for i := len(instances) - 1; i >= 0; i-- {
		instance := instances[i]
		if containsValue(released, instance) {
			continue
		}
		released = append(released, instance)

		if err := release(ctx, instance); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", formatTypeOf(instance), err))
		}
	}

	if len(errs) > 0 {
		return DisposalError{Errors: errs}
	}

	return nil
}

func (m *lifecycleManager) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.instances)
}

func release(ctx context.Context, instance any) error {
	switch d := instance.(type) {
	case DisposableWithContext:
		return d.Close(ctx)
	case Disposable:
		return d.Close()
	}
	return nil
}

func containsValue(values []any, v any) bool {
	for _, existing := range values {
		if sameValue(existing, v) {
			return true
		}
	}
	return false
}
