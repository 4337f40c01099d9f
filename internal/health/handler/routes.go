package handler

import "github.com/go-chi/chi/v5"

// RegisterRoutes adds /healthz and /readyz to r.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/healthz", h.ServeLive)
	r.Get("/readyz", h.ServeReady)
}
