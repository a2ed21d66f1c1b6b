package donations

import (
	"net/http"

	"github.com/BichoSolto/BS-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the donation endpoints. Everything requires a session;
// the back-office list is NGO/admin only.
func (h *Handler) SetupRoutes(sessions middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.SessionMiddleware(sessions))

	r.Post("/financial", h.CreateFinancial)
	r.Post("/item", h.CreateItem)
	r.Post("/{id}/receipt", h.UploadReceipt)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Get("/user/me", h.ListMine)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(h.Roles, "ong", "admin"))
		r.Get("/", h.List)
		r.Get("/ong/me", h.ListForNGO)
	})

	return r
}
