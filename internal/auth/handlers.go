package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/BichoSolto/BS-Backend/internal/middleware"
	"github.com/BichoSolto/BS-Backend/internal/uploads"
	"github.com/BichoSolto/BS-Backend/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MinPasswordLength is enforced at registration and password change.
const MinPasswordLength = 6

type Handler struct {
	Store         *Store
	Uploads       *uploads.Saver
	APIBaseURL    string
	SecureCookies bool

	// Throttle overrides the default per-IP rate limit on the credential
	// endpoints. Nil means the production limit.
	Throttle func(http.Handler) http.Handler
}

func NewHandler(store *Store, saver *uploads.Saver, apiBaseURL string, secureCookies bool) *Handler {
	return &Handler{
		Store:         store,
		Uploads:       saver,
		APIBaseURL:    apiBaseURL,
		SecureCookies: secureCookies,
	}
}

func (h *Handler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.SecureCookies,
	}
}

func writeFieldError(w http.ResponseWriter, fe *uploads.FieldError) {
	utils.WriteJSON(w, http.StatusBadRequest, map[string]any{
		"errors": []map[string]string{{"field": fe.Field, "message": fe.Message}},
	})
}

type registerInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Bio      string `json:"bio"`

	CNPJ             string `json:"cnpj"`
	Description      string `json:"description"`
	Website          string `json:"website"`
	SocialMedia      string `json:"socialMedia"`
	ResponsibleName  string `json:"responsibleName"`
	ResponsiblePhone string `json:"responsiblePhone"`
	PostalCode       string `json:"postalCode"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var input registerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Formato de requisição inválido")
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Name == "" || input.Email == "" || input.Password == "" {
		utils.WriteMessage(w, http.StatusBadRequest, "Nome, email e senha são obrigatórios")
		return
	}
	if len(input.Password) < MinPasswordLength {
		utils.WriteMessage(w, http.StatusBadRequest, "A senha deve ter pelo menos 6 caracteres")
		return
	}

	switch input.Role {
	case "":
		input.Role = RoleUser
	case RoleUser, RoleONG:
	default:
		// Admin accounts are provisioned out of band, never self-registered.
		utils.WriteMessage(w, http.StatusBadRequest, "Tipo de conta inválido")
		return
	}

	// NGO accounts must come with the full organization record.
	if input.Role == RoleONG {
		ngoRequired := []struct{ value, message string }{
			{input.CNPJ, "CNPJ é obrigatório para ONGs"},
			{input.Description, "Descrição é obrigatória para ONGs"},
			{input.ResponsibleName, "Nome do responsável é obrigatório para ONGs"},
			{input.ResponsiblePhone, "Telefone do responsável é obrigatório para ONGs"},
			{input.Address, "Endereço é obrigatório para ONGs"},
			{input.City, "Cidade é obrigatória para ONGs"},
			{input.State, "Estado é obrigatório para ONGs"},
			{input.PostalCode, "CEP é obrigatório para ONGs"},
		}
		for _, f := range ngoRequired {
			if strings.TrimSpace(f.value) == "" {
				utils.WriteMessage(w, http.StatusBadRequest, f.message)
				return
			}
		}
	}

	if _, err := h.Store.FindUserByEmail(input.Email); err == nil {
		utils.WriteMessage(w, http.StatusConflict, "Email já cadastrado")
		return
	}

	if input.Role == RoleONG {
		var existing User
		if err := h.Store.DB.First(&existing, "cnpj = ?", input.CNPJ).Error; err == nil {
			utils.WriteMessage(w, http.StatusConflict, "Este CNPJ já está cadastrado")
			return
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("auth: bcrypt failure: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}

	user := User{
		ID:               uuid.NewString(),
		Name:             input.Name,
		Email:            input.Email,
		PasswordHash:     string(hashed),
		Role:             input.Role,
		Phone:            input.Phone,
		Address:          input.Address,
		City:             input.City,
		State:            input.State,
		Bio:              input.Bio,
		IsActive:         true,
		CNPJ:             input.CNPJ,
		Description:      input.Description,
		Website:          input.Website,
		SocialMedia:      input.SocialMedia,
		ResponsibleName:  input.ResponsibleName,
		ResponsiblePhone: input.ResponsiblePhone,
		PostalCode:       input.PostalCode,
	}
	if err := h.Store.DB.Create(&user).Error; err != nil {
		log.Printf("auth: failed to create user: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao registrar usuário")
		return
	}

	// Registration logs the user straight in.
	session, err := h.Store.CreateSession(user.ID)
	if err != nil {
		log.Printf("auth: failed to create session: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}
	http.SetCookie(w, h.sessionCookie(session.SessionID, int(SessionTTL.Seconds())))

	utils.WriteJSON(w, http.StatusCreated, user.Profile(h.APIBaseURL))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Formato de requisição inválido")
		return
	}
	if input.Email == "" || input.Password == "" {
		utils.WriteMessage(w, http.StatusBadRequest, "Email e senha são obrigatórios")
		return
	}

	user, err := h.Store.FindUserByEmail(strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("auth: login lookup failed: %v", err)
			utils.WriteMessage(w, http.StatusInternalServerError, "Erro interno do servidor")
			return
		}
		// Same message as a wrong password so the response doesn't reveal
		// which of the two was wrong.
		utils.WriteMessage(w, http.StatusUnauthorized, "Credenciais inválidas")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		utils.WriteMessage(w, http.StatusUnauthorized, "Credenciais inválidas")
		return
	}

	if !user.IsActive {
		utils.WriteMessage(w, http.StatusUnauthorized, "Conta desativada. Entre em contato com o suporte.")
		return
	}

	session, err := h.Store.CreateSession(user.ID)
	if err != nil {
		log.Printf("auth: failed to create session: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}
	http.SetCookie(w, h.sessionCookie(session.SessionID, int(SessionTTL.Seconds())))

	utils.WriteJSON(w, http.StatusOK, user.Profile(h.APIBaseURL))
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		utils.WriteMessage(w, http.StatusUnauthorized, "Não autorizado, faça login para acessar.")
		return
	}
	utils.WriteJSON(w, http.StatusOK, user.Profile(h.APIBaseURL))
}

// UpdateProfile handles the multipart PUT /me: optional text fields plus an
// optional profileImage file. Omitted fields keep their stored values. The
// old image file is unlinked only after the database row is updated.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		utils.WriteMessage(w, http.StatusUnauthorized, "Não autorizado, faça login para acessar.")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		utils.WriteMessage(w, http.StatusBadRequest, "Formato de requisição inválido")
		return
	}

	newImagePath := ""
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["profileImage"]; len(files) > 0 {
			path, err := h.Uploads.Save(files[0], uploads.Image, "profileImage", "profiles", user.ID)
			var fieldErr *uploads.FieldError
			switch {
			case errors.As(err, &fieldErr):
				writeFieldError(w, fieldErr)
				return
			case err != nil:
				// Disk trouble must not lose the text-field update.
				log.Printf("auth: profile image save failed: %v", err)
			default:
				newImagePath = path
			}
		}
	}

	field := func(name, fallback string) string {
		if v := r.FormValue(name); v != "" {
			return v
		}
		return fallback
	}

	imagePath := user.ProfileImagePath
	if newImagePath != "" {
		imagePath = &newImagePath
	}

	updates := map[string]any{
		"name":               field("name", user.Name),
		"phone":              field("phone", user.Phone),
		"address":            field("address", user.Address),
		"city":               field("city", user.City),
		"state":              field("state", user.State),
		"bio":                field("bio", user.Bio),
		"profile_image_path": imagePath,
	}

	result := h.Store.DB.Model(&User{}).Where("id = ?", user.ID).Updates(updates)
	if result.Error != nil {
		log.Printf("auth: profile update failed: %v", result.Error)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro interno do servidor ao atualizar perfil")
		return
	}
	if result.RowsAffected == 0 {
		utils.WriteMessage(w, http.StatusNotFound, "Usuário não encontrado para atualização")
		return
	}

	// The new path is persisted; the superseded file can go.
	if newImagePath != "" && user.ProfileImagePath != nil && *user.ProfileImagePath != newImagePath {
		h.Uploads.Delete(*user.ProfileImagePath)
	}

	updated, err := h.Store.FindUserByID(user.ID)
	if err != nil {
		log.Printf("auth: reload after update failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro interno do servidor ao atualizar perfil")
		return
	}
	utils.WriteJSON(w, http.StatusOK, updated.Profile(h.APIBaseURL))
}

func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		utils.WriteMessage(w, http.StatusUnauthorized, "Não autorizado, faça login para acessar.")
		return
	}

	var input struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Senha atual e nova senha são obrigatórias")
		return
	}
	if input.CurrentPassword == "" || input.NewPassword == "" {
		utils.WriteMessage(w, http.StatusBadRequest, "Senha atual e nova senha são obrigatórias")
		return
	}
	if len(input.NewPassword) < MinPasswordLength {
		utils.WriteMessage(w, http.StatusBadRequest, "A nova senha deve ter pelo menos 6 caracteres")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		utils.WriteMessage(w, http.StatusUnauthorized, "Senha atual incorreta")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("auth: bcrypt failure: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro interno do servidor ao atualizar senha")
		return
	}

	if err := h.Store.DB.Model(&User{}).Where("id = ?", user.ID).
		Update("password_hash", string(hashed)).Error; err != nil {
		log.Printf("auth: password update failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro interno do servidor ao atualizar senha")
		return
	}

	// Every other session for this account is revoked; the one that just
	// proved knowledge of the old password stays alive.
	if cookie, cerr := r.Cookie(middleware.SessionCookieName); cerr == nil {
		if err := h.Store.DeleteOtherSessions(user.ID, cookie.Value); err != nil {
			log.Printf("auth: failed to revoke other sessions: %v", err)
		}
	}

	utils.WriteMessage(w, http.StatusOK, "Senha atualizada com sucesso")
}

// Logout destroys the current session. The cookie is cleared on every path,
// including when the server-side destroy fails or no session exists at all.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))

	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil {
		utils.WriteMessage(w, http.StatusOK, "Logout realizado com sucesso")
		return
	}

	if err := h.Store.DeleteSession(cookie.Value); err != nil {
		log.Printf("auth: failed to destroy session: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao fazer logout")
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Logout realizado com sucesso")
}
