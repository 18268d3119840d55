package rest

import (
	"net/http"

	"github.com/ganjineh/ganjineh-backend/internal/transport/middleware"
)

// Handlers groups the REST handlers the router mounts.
type Handlers struct {
	Health  *HealthHandler
	Library *LibraryHandler
	Search  *SearchHandler
	Contact *ContactHandler
}

// NewRouter mounts all routes and wraps the mux with the given middleware
// chain, outermost first.
func NewRouter(h Handlers, mws ...middleware.Middleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", h.Health.Live)
	mux.HandleFunc("GET /ready", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)

	mux.HandleFunc("GET /api/v1/poets", h.Library.Poets)
	mux.HandleFunc("GET /api/v1/poets/{id}", h.Library.Poet)
	mux.HandleFunc("GET /api/v1/categories/{id}", h.Library.Category)
	mux.HandleFunc("GET /api/v1/categories/{id}/poems", h.Library.CategoryPoems)
	mux.HandleFunc("GET /api/v1/chapters/{id}", h.Library.Chapter)
	mux.HandleFunc("GET /api/v1/poems/random", h.Library.RandomPoem)
	mux.HandleFunc("GET /api/v1/poems/{id}", h.Library.Poem)
	mux.HandleFunc("GET /api/v1/metrics/datasource", h.Library.DatasourceMetrics)

	mux.HandleFunc("GET /api/v1/search", h.Search.Search)
	mux.HandleFunc("GET /api/v1/search/index", h.Search.IndexSearch)

	mux.HandleFunc("POST /api/v1/contact", h.Contact.Submit)

	return middleware.Chain(mws...)(mux)
}
