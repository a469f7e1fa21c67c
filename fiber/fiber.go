// Package fiber attaches an inject kernel to Fiber requests.
//
// Fiber contexts are not context.Context, so Middleware stores the kernel
// twice: in the Locals of the request for FromContext, and in the user
// context for code that only sees c.UserContext().
//
//	app := fiber.New()
//	app.Use(injectfiber.Middleware(kernel))
//	app.Get("/users/:id", injectfiber.Handle((*UserController).GetByID))
package fiber

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/junioryono/inject"
)

const kernelKey = "inject_kernel"

// Config controls Middleware.
type Config struct {
	// ErrorHandler produces the response for a closed kernel or a failing
	// middleware. The rest of the chain is skipped.
	ErrorHandler func(*fiber.Ctx, error) error

	// Middlewares run in order once the kernel is stored.
	Middlewares []func(*inject.Kernel, *fiber.Ctx) error
}

// Option modifies a Config.
type Option func(*Config)

func WithErrorHandler(h func(*fiber.Ctx, error) error) Option {
	return func(c *Config) { c.ErrorHandler = h }
}

// WithMiddleware appends mw to the chain run for every request.
func WithMiddleware(mw func(*inject.Kernel, *fiber.Ctx) error) Option {
	return func(c *Config) { c.Middlewares = append(c.Middlewares, mw) }
}

// internalError logs under msg and responds with a JSON 500.
func internalError(c *fiber.Ctx, msg string, args ...any) error {
	slog.Error(msg, args...)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fiber.ErrInternalServerError.Message,
	})
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return internalError(c, "inject: request rejected", "error", err)
		},
	}
}

// Middleware returns a fiber.Handler that makes kernel reachable from the
// request through FromContext and inject.FromContext(c.UserContext()).
func Middleware(kernel *inject.Kernel, opts ...Option) fiber.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *fiber.Ctx) error {
		if kernel.Phase() == inject.PhaseDisposed {
			return cfg.ErrorHandler(c, inject.ErrKernelDisposed)
		}

		c.Locals(kernelKey, kernel)
		c.SetUserContext(inject.NewContext(c.UserContext(), kernel))

		for _, mw := range cfg.Middlewares {
			if err := mw(kernel, c); err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		return c.Next()
	}
}

// HandlerConfig controls a handler built by Handle.
type HandlerConfig struct {
	// PanicRecovery turns controller panics into a PanicHandler response.
	// Leave it off when the app already uses Fiber's recover middleware.
	PanicRecovery bool
	PanicHandler  func(*fiber.Ctx, any) error

	// KernelErrorHandler receives inject.ErrNoKernel when Middleware did
	// not run for the route.
	KernelErrorHandler func(*fiber.Ctx, error) error

	ResolutionErrorHandler func(*fiber.Ctx, error) error
}

// HandlerOption modifies a HandlerConfig.
type HandlerOption func(*HandlerConfig)

func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) { c.PanicRecovery = enabled }
}

func WithPanicHandler(h func(*fiber.Ctx, any) error) HandlerOption {
	return func(c *HandlerConfig) { c.PanicHandler = h }
}

func WithKernelErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) { c.KernelErrorHandler = h }
}

// WithResolutionErrorHandler handles the *inject.ResolveError returned when
// the controller cannot be built.
func WithResolutionErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) { c.ResolutionErrorHandler = h }
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(c *fiber.Ctx, v any) error {
			return internalError(c, "inject: controller panicked", "panic", v)
		},
		KernelErrorHandler: func(c *fiber.Ctx, err error) error {
			return internalError(c, "inject: no kernel for request", "error", err)
		},
		ResolutionErrorHandler: func(c *fiber.Ctx, err error) error {
			return internalError(c, "inject: controller resolution failed", "error", err)
		},
	}
}

// Handle adapts a method expression with signature func(T, *fiber.Ctx) error
// into a fiber.Handler that resolves T from the request's kernel per call.
func Handle[T any](method func(T, *fiber.Ctx) error, opts ...HandlerOption) fiber.Handler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *fiber.Ctx) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		kernel := FromContext(c)
		if kernel == nil {
			return cfg.KernelErrorHandler(c, inject.ErrNoKernel)
		}

		controller, err := inject.Get[T](kernel)
		if err != nil {
			return cfg.ResolutionErrorHandler(c, err)
		}

		return method(controller, c)
	}
}

// FromContext returns the kernel stored by Middleware, then the one carried
// by the user context, then the process default. It returns nil when there
// is none.
func FromContext(c *fiber.Ctx) *inject.Kernel {
	if kernel, ok := c.Locals(kernelKey).(*inject.Kernel); ok && kernel != nil {
		return kernel
	}

	kernel, err := inject.FromContext(c.UserContext())
	if err != nil {
		return nil
	}
	return kernel
}
