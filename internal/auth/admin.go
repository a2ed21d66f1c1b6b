package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/BichoSolto/BS-Backend/internal/middleware"
	"github.com/BichoSolto/BS-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// NGOSummary is the slim projection served by the public NGO directory:
// enough for a donor to pick a recipient, nothing more.
type NGOSummary struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Role            string  `json:"role"`
	ProfileImageURL *string `json:"profileImageUrl"`
	City            string  `json:"city"`
	State           string  `json:"state"`
}

// ListUsers serves GET /. Without a session it is the public directory of
// active NGOs; with an admin session it is the full account listing; any
// other session gets 403.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	user, authenticated := h.sessionUser(r)

	if !authenticated {
		ngos, err := h.Store.ListActiveNGOs()
		if err != nil {
			log.Printf("auth: NGO directory lookup failed: %v", err)
			utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar usuários")
			return
		}
		directory := make([]NGOSummary, 0, len(ngos))
		for i := range ngos {
			directory = append(directory, NGOSummary{
				ID:              ngos[i].ID,
				Name:            ngos[i].Name,
				Role:            ngos[i].Role,
				ProfileImageURL: ngos[i].ProfileImageURL(h.APIBaseURL),
				City:            ngos[i].City,
				State:           ngos[i].State,
			})
		}
		utils.WriteJSON(w, http.StatusOK, directory)
		return
	}

	if user.Role != RoleAdmin {
		utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Permissão de administrador necessária.")
		return
	}

	users, err := h.Store.ListAllUsers()
	if err != nil {
		log.Printf("auth: user listing failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar usuários")
		return
	}
	profiles := make([]Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile(h.APIBaseURL))
	}
	utils.WriteJSON(w, http.StatusOK, profiles)
}

// sessionUser resolves the session cookie to a live user, without writing
// anything to the response. Used where authentication is optional.
func (h *Handler) sessionUser(r *http.Request) (User, bool) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil {
		return User{}, false
	}
	session, err := h.Store.FindSessionByID(cookie.Value)
	if err != nil || session.ExpiresAt.Before(time.Now()) {
		return User{}, false
	}
	user, err := h.Store.FindUserByID(session.UserID)
	if err != nil || !user.IsActive {
		return User{}, false
	}
	return user, true
}

// GetUser serves the admin GET /{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Store.FindUserByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteMessage(w, http.StatusNotFound, "Usuário não encontrado")
			return
		}
		log.Printf("auth: user lookup failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao buscar usuário")
		return
	}
	utils.WriteJSON(w, http.StatusOK, user.Profile(h.APIBaseURL))
}

type userStatusInput struct {
	IsActive   *bool `json:"isActive"`
	IsVerified *bool `json:"isVerified"`
}

// UpdateUserStatus activates or deactivates an account, and optionally flips
// NGO verification. Admins cannot deactivate themselves.
func (h *Handler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	admin, ok := CurrentUser(r.Context())
	if !ok {
		utils.WriteMessage(w, http.StatusUnauthorized, "Não autorizado, faça login para acessar.")
		return
	}

	var input userStatusInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Formato de requisição inválido")
		return
	}
	if input.IsActive == nil {
		utils.WriteMessage(w, http.StatusBadRequest, "isActive deve ser um booleano")
		return
	}

	user, err := h.Store.FindUserByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteMessage(w, http.StatusNotFound, "Usuário não encontrado")
			return
		}
		log.Printf("auth: user lookup failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar status do usuário")
		return
	}

	if admin.ID == user.ID && !*input.IsActive {
		utils.WriteMessage(w, http.StatusBadRequest, "Não é possível desativar sua própria conta")
		return
	}

	updates := map[string]any{"is_active": *input.IsActive}
	if input.IsVerified != nil {
		updates["is_verified"] = *input.IsVerified
	}
	if err := h.Store.DB.Model(&user).Updates(updates).Error; err != nil {
		log.Printf("auth: status update failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar status do usuário")
		return
	}

	message := "Usuário desativado com sucesso"
	if *input.IsActive {
		message = "Usuário ativado com sucesso"
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"user": map[string]any{
			"id":       user.ID,
			"name":     user.Name,
			"email":    user.Email,
			"role":     user.Role,
			"isActive": *input.IsActive,
		},
	})
}
