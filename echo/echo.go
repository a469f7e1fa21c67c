// Package echo attaches an inject kernel to Echo requests.
//
// Middleware puts the kernel into the request context. Handle builds an
// echo.HandlerFunc from a controller method, resolving the controller from
// that kernel each time the route is hit.
//
//	e := echo.New()
//	e.Use(injectecho.Middleware(kernel))
//	e.GET("/users/:id", injectecho.Handle((*UserController).GetByID))
//
// Errors are returned to Echo as *echo.HTTPError unless a custom handler
// says otherwise, so the application's HTTPErrorHandler renders them.
package echo

import (
	"log/slog"
	"net/http"

	"github.com/junioryono/inject"
	"github.com/labstack/echo/v4"
)

// Config controls Middleware.
type Config struct {
	// ErrorHandler converts a closed kernel or a failing middleware into the
	// error returned to Echo.
	ErrorHandler func(echo.Context, error) error

	// Middlewares run in order after the kernel is attached.
	Middlewares []func(*inject.Kernel, echo.Context) error
}

// Option modifies a Config.
type Option func(*Config)

func WithErrorHandler(h func(echo.Context, error) error) Option {
	return func(c *Config) { c.ErrorHandler = h }
}

// WithMiddleware appends mw to the chain run for every request.
func WithMiddleware(mw func(*inject.Kernel, echo.Context) error) Option {
	return func(c *Config) { c.Middlewares = append(c.Middlewares, mw) }
}

// fail logs the failure and hides its details from the client.
func fail(msg string, args ...any) error {
	slog.Error(msg, args...)
	return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(_ echo.Context, err error) error {
			return fail("inject: request rejected", "error", err)
		},
	}
}

// Middleware returns an echo.MiddlewareFunc that attaches kernel to the
// request context of every request it sees.
func Middleware(kernel *inject.Kernel, opts ...Option) echo.MiddlewareFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if kernel.Phase() == inject.PhaseDisposed {
				return cfg.ErrorHandler(c, inject.ErrKernelDisposed)
			}

			req := c.Request()
			c.SetRequest(req.WithContext(inject.NewContext(req.Context(), kernel)))

			for _, mw := range cfg.Middlewares {
				if err := mw(kernel, c); err != nil {
					return cfg.ErrorHandler(c, err)
				}
			}

			return next(c)
		}
	}
}

// HandlerConfig controls a handler built by Handle.
type HandlerConfig struct {
	// PanicRecovery converts controller panics through PanicHandler instead
	// of letting them reach Echo's Recover middleware.
	PanicRecovery bool
	PanicHandler  func(echo.Context, any) error

	KernelErrorHandler     func(echo.Context, error) error
	ResolutionErrorHandler func(echo.Context, error) error
}

// HandlerOption modifies a HandlerConfig.
type HandlerOption func(*HandlerConfig)

func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) { c.PanicRecovery = enabled }
}

func WithPanicHandler(h func(echo.Context, any) error) HandlerOption {
	return func(c *HandlerConfig) { c.PanicHandler = h }
}

// WithKernelErrorHandler handles requests that reach Handle without
// passing through Middleware.
func WithKernelErrorHandler(h func(echo.Context, error) error) HandlerOption {
	return func(c *HandlerConfig) { c.KernelErrorHandler = h }
}

// WithResolutionErrorHandler handles an *inject.ResolveError for the
// controller type.
func WithResolutionErrorHandler(h func(echo.Context, error) error) HandlerOption {
	return func(c *HandlerConfig) { c.ResolutionErrorHandler = h }
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(_ echo.Context, v any) error {
			return fail("inject: controller panicked", "panic", v)
		},
		KernelErrorHandler: func(_ echo.Context, err error) error {
			return fail("inject: no kernel in request context", "error", err)
		},
		ResolutionErrorHandler: func(_ echo.Context, err error) error {
			return fail("inject: controller resolution failed", "error", err)
		},
	}
}

// Handle adapts a method expression with signature func(T, echo.Context) error
// into an echo.HandlerFunc that resolves T per request.
func Handle[T any](method func(T, echo.Context) error, opts ...HandlerOption) echo.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c echo.Context) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		kernel, err := inject.FromContext(c.Request().Context())
		if err != nil {
			return cfg.KernelErrorHandler(c, err)
		}

		controller, err := inject.Get[T](kernel)
		if err != nil {
			return cfg.ResolutionErrorHandler(c, err)
		}

		return method(controller, c)
	}
}
