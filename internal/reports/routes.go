package reports

import (
	"net/http"

	"github.com/BichoSolto/BS-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the report endpoints. Creating a report only needs an
// optional session (anonymous reports are legal); triage is NGO/admin work.
func (h *Handler) SetupRoutes(sessions middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	r.With(middleware.OptionalSession(sessions)).Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessions))
		r.Post("/{id}/images", h.AddImages)
		r.Get("/user/me", h.ListMine)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.Roles, "ong", "admin"))
			r.Patch("/{id}/status", h.UpdateStatus)
			r.Patch("/{id}/assign", h.Assign)
			r.Get("/assigned/me", h.ListAssigned)
		})
	})

	return r
}
