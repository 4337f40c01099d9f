package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the /auth endpoints. loginLimiter wraps only the login route and may be nil.
func Routes(h *Handler, audit, loginLimiter func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		if audit != nil {
			pr.Use(audit)
		}
		pr.Post("/register", h.ServeRegister)
		if loginLimiter != nil {
			pr.With(loginLimiter).Post("/login", h.ServeLogin)
		} else {
			pr.Post("/login", h.ServeLogin)
		}
	})
	return r
}
