package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/BichoSolto/BS-Backend/internal/middleware"
	"github.com/BichoSolto/BS-Backend/internal/utils"
	"gorm.io/gorm"
)

type userKey struct{}

// CurrentUser returns the user attached by Protect.
func CurrentUser(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userKey{}).(*User)
	return user, ok
}

// Protect authenticates the request from the session cookie and attaches the
// full user row (sans password hash on serialization) to the context. Unlike
// SessionMiddleware it verifies the user still exists: a session pointing at
// a deleted user is destroyed on sight. Any failure answers 401 without
// reaching the handler.
func Protect(store *Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(middleware.SessionCookieName)
			if err != nil {
				utils.WriteMessage(w, http.StatusUnauthorized, "Não autorizado, faça login para acessar.")
				return
			}

			session, err := store.FindSessionByID(cookie.Value)
			if err != nil {
				utils.WriteMessage(w, http.StatusUnauthorized, "Sessão inválida.")
				return
			}
			if session.ExpiresAt.Before(time.Now()) {
				utils.WriteMessage(w, http.StatusUnauthorized, "Sessão expirada.")
				return
			}

			user, err := store.FindUserByID(session.UserID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// Stale session for a deleted account.
					if derr := store.DeleteSession(session.SessionID); derr != nil {
						log.Printf("auth: failed to destroy stale session: %v", derr)
					}
					utils.WriteMessage(w, http.StatusUnauthorized, "Não autorizado, usuário não encontrado.")
					return
				}
				log.Printf("auth: user lookup failed: %v", err)
				utils.WriteMessage(w, http.StatusUnauthorized, "Não autorizado, erro ao verificar usuário.")
				return
			}

			if !user.IsActive {
				utils.WriteMessage(w, http.StatusUnauthorized, "Conta desativada. Entre em contato com o suporte.")
				return
			}

			ctx := utils.WithUserID(r.Context(), user.ID)
			ctx = context.WithValue(ctx, userKey{}, &user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
