package events

import (
	"net/http"

	"github.com/BichoSolto/BS-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the event endpoints. Browsing is public; creating and
// managing events is NGO/admin work, signing up just needs a session.
func (h *Handler) SetupRoutes(sessions middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessions))

		r.Post("/{id}/volunteers", h.Signup)
		r.Get("/user/me", h.ListMine)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.Roles, "ong", "admin"))
			r.Post("/", h.Create)
			r.Post("/{id}/image", h.AddImage)
			r.Put("/{id}", h.Update)
			r.Patch("/{id}/cancel", h.Cancel)
			r.Get("/{id}/volunteers", h.Roster)
		})
	})

	return r
}
