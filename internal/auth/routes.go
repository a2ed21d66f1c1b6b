package auth

import (
	"net/http"
	"time"

	"github.com/BichoSolto/BS-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// SetupRoutes mounts the user/auth endpoints. The credential endpoints share
// one per-IP throttle (10/min, burst 5) against password guessing; tests can
// swap it via Throttle.
func (h *Handler) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	credentialLimit := h.Throttle
	if credentialLimit == nil {
		credentialLimit = middleware.RateLimit(rate.Every(6*time.Second), 5)
	}

	r.With(credentialLimit).Post("/register", h.Register)
	r.With(credentialLimit).Post("/login", h.Login)

	// Logout works with or without a live session.
	r.Post("/logout", h.Logout)

	// Public NGO directory / admin full listing; the handler decides from
	// the session.
	r.Get("/", h.ListUsers)

	r.Group(func(r chi.Router) {
		r.Use(Protect(h.Store))
		r.Get("/me", h.Me)
		r.Put("/me", h.UpdateProfile)
		r.Put("/me/password", h.UpdatePassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.Store, RoleAdmin))
			r.Get("/{id}", h.GetUser)
			r.Patch("/{id}/status", h.UpdateUserStatus)
		})
	})

	return r
}
