// Package gin attaches an inject kernel to Gin requests.
//
// Middleware stores the kernel in the request context so inject.FromContext
// finds it, and Handle turns a controller method into a gin.HandlerFunc whose
// receiver is resolved from that kernel on every call. Controllers are
// cached by the kernel, so each request sees the same instance.
//
//	kernel := inject.New()
//
//	g := gin.New()
//	g.Use(injectgin.Middleware(kernel))
//	g.GET("/users/:id", injectgin.Handle((*UserController).GetByID))
package gin

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junioryono/inject"
)

// Config controls Middleware.
type Config struct {
	// ErrorHandler receives ErrKernelDisposed for requests arriving after
	// the kernel was closed, and any error returned by Middlewares. It must
	// abort the request. The default logs and answers 500.
	ErrorHandler func(*gin.Context, error)

	// Middlewares run in order once the kernel is attached. The first error
	// stops the chain.
	Middlewares []func(*inject.Kernel, *gin.Context) error
}

// Option modifies a Config.
type Option func(*Config)

// WithErrorHandler replaces the default ErrorHandler.
func WithErrorHandler(h func(*gin.Context, error)) Option {
	return func(c *Config) { c.ErrorHandler = h }
}

// WithMiddleware appends mw to the per-request chain.
//
//	injectgin.Middleware(kernel,
//	    injectgin.WithMiddleware(func(k *inject.Kernel, c *gin.Context) error {
//	        c.Set("request_id", c.GetHeader("X-Request-ID"))
//	        return nil
//	    }),
//	)
func WithMiddleware(mw func(*inject.Kernel, *gin.Context) error) Option {
	return func(c *Config) { c.Middlewares = append(c.Middlewares, mw) }
}

// abort logs err under msg and ends the request with a JSON 500.
func abort(c *gin.Context, msg string, args ...any) {
	slog.Error(msg, args...)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": http.StatusText(http.StatusInternalServerError)})
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(c *gin.Context, err error) {
			abort(c, "inject: request rejected", "error", err)
		},
	}
}

// Middleware returns a handler that makes kernel available to the rest of
// the chain through the request context.
func Middleware(kernel *inject.Kernel, opts ...Option) gin.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		if kernel.Phase() == inject.PhaseDisposed {
			cfg.ErrorHandler(c, inject.ErrKernelDisposed)
			return
		}

		ctx := inject.NewContext(c.Request.Context(), kernel)
		c.Request = c.Request.WithContext(ctx)

		for _, mw := range cfg.Middlewares {
			if err := mw(kernel, c); err != nil {
				cfg.ErrorHandler(c, err)
				return
			}
		}

		c.Next()
	}
}

// HandlerConfig controls a handler built by Handle.
type HandlerConfig struct {
	// PanicRecovery routes panics raised by the controller to PanicHandler.
	// When false, panics propagate to Gin's own recovery.
	PanicRecovery bool
	PanicHandler  func(*gin.Context, any)

	// KernelErrorHandler runs when the request context carries no kernel.
	KernelErrorHandler func(*gin.Context, error)

	// ResolutionErrorHandler runs when the kernel cannot produce the
	// controller. The error is an *inject.ResolveError.
	ResolutionErrorHandler func(*gin.Context, error)
}

// HandlerOption modifies a HandlerConfig.
type HandlerOption func(*HandlerConfig)

func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) { c.PanicRecovery = enabled }
}

func WithPanicHandler(h func(*gin.Context, any)) HandlerOption {
	return func(c *HandlerConfig) { c.PanicHandler = h }
}

func WithKernelErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) { c.KernelErrorHandler = h }
}

func WithResolutionErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) { c.ResolutionErrorHandler = h }
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(c *gin.Context, v any) {
			abort(c, "inject: controller panicked", "panic", v)
		},
		KernelErrorHandler: func(c *gin.Context, err error) {
			abort(c, "inject: no kernel in request context", "error", err)
		},
		ResolutionErrorHandler: func(c *gin.Context, err error) {
			abort(c, "inject: controller resolution failed", "error", err)
		},
	}
}

// Handle adapts a method expression such as (*UserController).GetByID into
// a gin.HandlerFunc. The receiver of type T is resolved from the request's
// kernel before each call.
func Handle[T any](method func(T, *gin.Context), opts ...HandlerOption) gin.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(c, v)
				}
			}()
		}

		kernel, err := inject.FromContext(c.Request.Context())
		if err != nil {
			cfg.KernelErrorHandler(c, err)
			return
		}

		controller, err := inject.Get[T](kernel)
		if err != nil {
			cfg.ResolutionErrorHandler(c, err)
			return
		}

		method(controller, c)
	}
}
