package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the /api/users endpoints. The list is public; reading one user goes through
// requireAuth. audit may be nil.
func Routes(h *Handler, requireAuth, audit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		if audit != nil {
			pr.Use(audit)
		}
		pr.Get("/", h.ServeList)
	})
	r.Group(func(pr chi.Router) {
		pr.Use(requireAuth)
		if audit != nil {
			pr.Use(audit)
		}
		pr.Get("/{id}", h.ServeGet)
	})
	return r
}
