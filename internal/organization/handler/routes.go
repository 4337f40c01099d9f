package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the /api/organisations endpoints behind requireAuth. audit may be nil.
func Routes(h *Handler, requireAuth, audit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)
	if audit != nil {
		r.Use(audit)
	}
	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)
	r.Get("/{orgId}", h.ServeGet)
	r.Post("/{orgId}/users", h.ServeAddMember)
	return r
}
