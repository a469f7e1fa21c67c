// Package http attaches an inject kernel to net/http requests.
//
// Middleware wraps a handler so every request context carries the kernel,
// and Handle turns a controller method into an http.HandlerFunc that pulls
// its receiver out of that kernel.
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("GET /users/{id}", injecthttp.Handle((*UserController).GetByID))
//
//	http.ListenAndServe(":8080", injecthttp.Middleware(kernel)(mux))
//
// The chi package reuses these types unchanged.
package http

import (
	"log/slog"
	"net/http"

	"github.com/junioryono/inject"
)

// Config controls Middleware.
type Config struct {
	// ErrorHandler writes the response when the kernel has been closed or
	// one of Middlewares fails. The wrapped handler is not called.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// Middlewares see the request after the kernel is attached, in the
	// order they were added.
	Middlewares []func(*inject.Kernel, *http.Request) error
}

// Option modifies a Config.
type Option func(*Config)

// WithErrorHandler replaces the default plain-text 500 response.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) { c.ErrorHandler = h }
}

// WithMiddleware appends mw to the per-request chain.
func WithMiddleware(mw func(*inject.Kernel, *http.Request) error) Option {
	return func(c *Config) { c.Middlewares = append(c.Middlewares, mw) }
}

// internalError logs under msg and answers with a bare 500.
func internalError(w http.ResponseWriter, msg string, args ...any) {
	slog.Error(msg, args...)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(w http.ResponseWriter, _ *http.Request, err error) {
			internalError(w, "inject: request rejected", "error", err)
		},
	}
}

// Middleware returns a wrapper that attaches kernel to each request
// context, where inject.FromContext and Handle find it.
func Middleware(kernel *inject.Kernel, opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if kernel.Phase() == inject.PhaseDisposed {
				cfg.ErrorHandler(w, r, inject.ErrKernelDisposed)
				return
			}

			r = r.WithContext(inject.NewContext(r.Context(), kernel))

			for _, mw := range cfg.Middlewares {
				if err := mw(kernel, r); err != nil {
					cfg.ErrorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HandlerConfig controls a handler built by Handle.
type HandlerConfig struct {
	// PanicRecovery sends controller panics to PanicHandler. Off by default,
	// so net/http's own per-connection recovery applies.
	PanicRecovery bool
	PanicHandler  func(http.ResponseWriter, *http.Request, any)

	// KernelErrorHandler answers requests whose context has no kernel.
	KernelErrorHandler func(http.ResponseWriter, *http.Request, error)

	// ResolutionErrorHandler answers when the controller cannot be built.
	ResolutionErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// HandlerOption modifies a HandlerConfig.
type HandlerOption func(*HandlerConfig)

func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) { c.PanicRecovery = enabled }
}

func WithPanicHandler(h func(http.ResponseWriter, *http.Request, any)) HandlerOption {
	return func(c *HandlerConfig) { c.PanicHandler = h }
}

func WithKernelErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) { c.KernelErrorHandler = h }
}

func WithResolutionErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) { c.ResolutionErrorHandler = h }
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(w http.ResponseWriter, _ *http.Request, v any) {
			internalError(w, "inject: controller panicked", "panic", v)
		},
		KernelErrorHandler: func(w http.ResponseWriter, _ *http.Request, err error) {
			internalError(w, "inject: no kernel in request context", "error", err)
		},
		ResolutionErrorHandler: func(w http.ResponseWriter, _ *http.Request, err error) {
			internalError(w, "inject: controller resolution failed", "error", err)
		},
	}
}

// Handle adapts a method expression with signature
// func(T, http.ResponseWriter, *http.Request) into an http.HandlerFunc that
// resolves T from the request's kernel on every call.
func Handle[T any](method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(w, r, v)
				}
			}()
		}

		kernel, err := inject.FromContext(r.Context())
		if err != nil {
			cfg.KernelErrorHandler(w, r, err)
			return
		}

		controller, err := inject.Get[T](kernel)
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		method(controller, w, r)
	}
}
