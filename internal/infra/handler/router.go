package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig bundles handler dependencies.
type RouterConfig struct {
	PostHandler   *PostHandler
	RepoHandler   *RepoHandler
	AccessHandler *AccessHandler
	HealthHandler *HealthHandler

	APIBasePath       string
	Middlewares       []func(http.Handler) http.Handler
	PrometheusHandler http.Handler
}

// NewRouter wires handlers and middlewares. Unknown paths and unsupported
// methods answer with a JSON error body.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	for _, mw := range cfg.Middlewares {
		if mw == nil {
			continue
		}
		r.Use(mw)
	}
	r.Use(middleware.Compress(5))

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	apiBasePath := normalizeAPIBasePath(cfg.APIBasePath)
	if apiBasePath == "" {
		apiBasePath = "/"
	}
	r.Route(apiBasePath, func(api chi.Router) {
		api.NotFound(notFound)
		api.MethodNotAllowed(methodNotAllowed)

		if cfg.PostHandler != nil {
			cfg.PostHandler.RegisterRoutes(api)
		}
		if cfg.RepoHandler != nil {
			cfg.RepoHandler.RegisterRoutes(api)
		}
		if cfg.AccessHandler != nil {
			cfg.AccessHandler.RegisterRoutes(api)
		}
		if cfg.HealthHandler != nil {
			api.Get("/health", cfg.HealthHandler.ServeHTTP)
		}
		if cfg.PrometheusHandler != nil {
			api.Method(http.MethodGet, "/metrics", cfg.PrometheusHandler)
		}
	})
	return r
}
