package middleware

import (
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/BichoSolto/BS-Backend/internal/utils"
	"golang.org/x/time/rate"
)

// SessionCookieName is the cookie carrying the opaque session id.
const SessionCookieName = "session_id"

type SessionFetcher interface {
	FindSessionByID(id string) (utils.SessionData, error)
}

// RoleFetcher resolves a user id to its role. Implemented by auth.Store.
type RoleFetcher interface {
	FindRoleByID(id string) (string, error)
}

// SessionMiddleware authenticates the request from the session cookie and
// injects the user id into the request context. Requests without a valid,
// unexpired session are rejected with 401 before reaching the handler.
func SessionMiddleware(fetcher SessionFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				utils.WriteMessage(w, http.StatusUnauthorized, "Não autorizado, faça login para acessar.")
				return
			}

			session, err := fetcher.FindSessionByID(cookie.Value)
			if err != nil {
				utils.WriteMessage(w, http.StatusUnauthorized, "Sessão inválida.")
				return
			}

			if session.ExpiresAt.Before(time.Now()) {
				utils.WriteMessage(w, http.StatusUnauthorized, "Sessão expirada.")
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithUserID(r.Context(), session.UserID)))
		})
	}
}

// OptionalSession injects the user id when a valid session cookie is
// present but lets anonymous requests through untouched. Used by endpoints
// that accept both, like abuse reports.
func OptionalSession(fetcher SessionFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err == nil {
				session, err := fetcher.FindSessionByID(cookie.Value)
				if err == nil && session.ExpiresAt.After(time.Now()) {
					r = r.WithContext(utils.WithUserID(r.Context(), session.UserID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole allows the request through only when the authenticated user
// holds one of the given roles. Must run after SessionMiddleware.
func RequireRole(fetcher RoleFetcher, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				utils.WriteMessage(w, http.StatusUnauthorized, "Não autorizado, faça login para acessar.")
				return
			}

			role, err := fetcher.FindRoleByID(userID)
			if err != nil {
				utils.WriteMessage(w, http.StatusUnauthorized, "Não autorizado, usuário não encontrado.")
				return
			}

			if _, ok := allowed[role]; !ok {
				utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Permissão insuficiente.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORS echoes the origin back only when it is on the allow-list. The
// frontend origin comes from FRONTEND_URL; localhost dev ports are always
// allowed.
func CORS(frontendURL string) func(http.Handler) http.Handler {
	allowed := map[string]struct{}{
		"http://localhost:5173": {},
		"http://localhost:3000": {},
	}
	if frontendURL != "" {
		allowed[frontendURL] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin") // important for caches
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods",
					"GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers",
					"Content-Type, Authorization")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ipLimiter tracks one token bucket per client IP. Entries idle for an hour
// are dropped on the next sweep.
type ipLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(limit rate.Limit, burst int) *ipLimiter {
	l := &ipLimiter{
		clients: make(map[string]*client),
		limit:   limit,
		burst:   burst,
	}
	go l.sweep()
	return l
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

func (l *ipLimiter) sweep() {
	for range time.Tick(10 * time.Minute) {
		l.mu.Lock()
		for ip, c := range l.clients {
			if time.Since(c.lastSeen) > time.Hour {
				delete(l.clients, ip)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit throttles requests per client IP. Used on the credential
// endpoints to slow down brute-force attempts.
func RateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := newIPLimiter(limit, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !limiter.allow(ip) {
				log.Printf("rate limit exceeded for %s on %s", ip, r.URL.Path)
				utils.WriteMessage(w, http.StatusTooManyRequests, "Muitas tentativas. Tente novamente em instantes.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
