package volunteers

import (
	"net/http"

	"github.com/BichoSolto/BS-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the volunteer endpoints. All require a session; roster
// management is NGO/admin only.
func (h *Handler) SetupRoutes(sessions middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.SessionMiddleware(sessions))

	r.Post("/", h.Register)
	r.Post("/{id}/documents", h.AddDocuments)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/deactivate", h.Deactivate)
	r.Get("/user/me", h.Me)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(h.Roles, "ong", "admin"))
		r.Get("/", h.List)
		r.Patch("/{id}/status", h.UpdateStatus)
	})

	return r
}
