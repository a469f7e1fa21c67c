package inject

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying k.
func NewContext(ctx context.Context, k *Kernel) context.Context {
	return context.WithValue(ctx, contextKey{}, k)
}

// FromContext returns the kernel carried by ctx, falling back to the
// default kernel when one is set.
func FromContext(ctx context.Context) (*Kernel, error) {
	if ctx != nil {
		if k, ok := ctx.Value(contextKey{}).(*Kernel); ok && k != nil {
			return k, nil
		}
	}

	if k := Default(); k != nil {
		return k, nil
	}

	return nil, ErrNoKernel
}
