package animals

import (
	"net/http"

	"github.com/BichoSolto/BS-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the animal listing endpoints. Browsing is public;
// everything that writes, and the "my animals" views, require a session.
func (h *Handler) SetupRoutes(sessions middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessions))
		r.Post("/", h.Create)
		r.Post("/{id}/images", h.AddImages)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}/adoption-status", h.UpdateAdoptionStatus)
		r.Get("/user/me", h.ListMine)
		r.Get("/adopted/me", h.ListAdopted)
	})

	return r
}
