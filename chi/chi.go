// Package chi attaches an inject kernel to chi routers.
//
// chi handlers are plain net/http handlers, so this package re-exports the
// configuration of the http package and adds router helpers on top.
//
//	r := chi.NewRouter()
//	injectchi.Use(r, kernel)
//	r.Get("/users/{id}", injectchi.Handle((*UserController).GetByID))
package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/junioryono/inject"
	injecthttp "github.com/junioryono/inject/http"
)

type (
	Config        = injecthttp.Config
	Option        = injecthttp.Option
	HandlerConfig = injecthttp.HandlerConfig
	HandlerOption = injecthttp.HandlerOption
)

var (
	WithErrorHandler           = injecthttp.WithErrorHandler
	WithMiddleware             = injecthttp.WithMiddleware
	WithPanicRecovery          = injecthttp.WithPanicRecovery
	WithPanicHandler           = injecthttp.WithPanicHandler
	WithKernelErrorHandler     = injecthttp.WithKernelErrorHandler
	WithResolutionErrorHandler = injecthttp.WithResolutionErrorHandler
)

// Middleware is injecthttp.Middleware, typed for chi.Router.Use.
func Middleware(kernel *inject.Kernel, opts ...Option) func(http.Handler) http.Handler {
	return injecthttp.Middleware(kernel, opts...)
}

// Use installs the kernel middleware on r.
//
//	r := chi.NewRouter()
//	injectchi.Use(r, kernel)
func Use(r chi.Router, kernel *inject.Kernel, opts ...Option) {
	r.Use(Middleware(kernel, opts...))
}

// URLParam returns the named route parameter, for controllers that want it
// without importing chi themselves.
func URLParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// Handle resolves T from the request's kernel and calls method with it.
func Handle[T any](method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	return injecthttp.Handle(method, opts...)
}
