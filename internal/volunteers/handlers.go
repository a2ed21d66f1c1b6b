package volunteers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/BichoSolto/BS-Backend/internal/middleware"
	"github.com/BichoSolto/BS-Backend/internal/uploads"
	"github.com/BichoSolto/BS-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxDocuments = 5

type Handler struct {
	DB      *gorm.DB
	Uploads *uploads.Saver
	Roles   middleware.RoleFetcher
}

func NewHandler(db *gorm.DB, saver *uploads.Saver, roles middleware.RoleFetcher) *Handler {
	return &Handler{DB: db, Uploads: saver, Roles: roles}
}

func (h *Handler) roleOf(userID string) string {
	role, err := h.Roles.FindRoleByID(userID)
	if err != nil {
		return ""
	}
	return role
}

func (h *Handler) findVolunteer(w http.ResponseWriter, id string) (Volunteer, bool) {
	var volunteer Volunteer
	if err := h.DB.First(&volunteer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteMessage(w, http.StatusNotFound, "Voluntário não encontrado")
		} else {
			log.Printf("volunteers: lookup failed: %v", err)
			utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao buscar voluntário")
		}
		return Volunteer{}, false
	}
	return volunteer, true
}

type volunteerInput struct {
	Availability *string `json:"availability"`
	Skills       *string `json:"skills"`
	Experience   *string `json:"experience"`
	Motivation   *string `json:"motivation"`
	HasVehicle   *bool   `json:"hasVehicle"`
}

// Register creates the session user's volunteering profile. A user may only
// have one; signing up twice is a 400.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var input volunteerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	availability := ""
	if input.Availability != nil {
		availability = strings.TrimSpace(*input.Availability)
	}
	if availability == "" {
		utils.WriteMessage(w, http.StatusBadRequest, "A disponibilidade é obrigatória")
		return
	}
	if _, ok := validAvailabilities[availability]; !ok {
		utils.WriteMessage(w, http.StatusBadRequest, "Disponibilidade inválida")
		return
	}

	var existing Volunteer
	err := h.DB.First(&existing, "user_id = ?", userID).Error
	if err == nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Você já está cadastrado como voluntário")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("volunteers: duplicate check failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao cadastrar voluntário")
		return
	}

	volunteer := Volunteer{
		ID:           uuid.NewString(),
		UserID:       userID,
		Availability: availability,
		Documents:    []string{},
		Status:       StatusPending,
	}
	if input.Skills != nil {
		volunteer.Skills = strings.TrimSpace(*input.Skills)
	}
	if input.Experience != nil {
		volunteer.Experience = strings.TrimSpace(*input.Experience)
	}
	if input.Motivation != nil {
		volunteer.Motivation = strings.TrimSpace(*input.Motivation)
	}
	if input.HasVehicle != nil {
		volunteer.HasVehicle = *input.HasVehicle
	}

	if err := h.DB.Create(&volunteer).Error; err != nil {
		log.Printf("volunteers: create failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao cadastrar voluntário")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"volunteer":          volunteer,
		"uploadDocumentsUrl": "/api/volunteers/" + volunteer.ID + "/documents",
	})
}

// AddDocuments attaches identification or training papers (images or PDFs).
func (h *Handler) AddDocuments(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	volunteer, ok := h.findVolunteer(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if volunteer.UserID != userID && h.roleOf(userID) != "admin" {
		utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Você não é o proprietário deste recurso.")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Envie os documentos como multipart/form-data")
		return
	}
	files := r.MultipartForm.File["documents"]
	if len(files) == 0 {
		utils.WriteMessage(w, http.StatusBadRequest, "Nenhum documento enviado")
		return
	}
	if len(volunteer.Documents)+len(files) > maxDocuments {
		utils.WriteMessage(w, http.StatusBadRequest, "Máximo de 5 documentos por voluntário")
		return
	}

	paths, err := h.Uploads.SaveAll(files, uploads.Document, "documents", "volunteers", "doc", maxDocuments)
	if err != nil {
		var fieldErr *uploads.FieldError
		if errors.As(err, &fieldErr) {
			utils.WriteJSON(w, http.StatusBadRequest, map[string]any{"errors": []*uploads.FieldError{fieldErr}})
			return
		}
		log.Printf("volunteers: document upload failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao salvar documentos")
		return
	}

	volunteer.Documents = append(volunteer.Documents, paths...)
	if err := h.DB.Model(&volunteer).Update("documents", volunteer.Documents).Error; err != nil {
		log.Printf("volunteers: document update failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao salvar documentos")
		return
	}

	utils.WriteJSON(w, http.StatusOK, volunteer)
}

// List is the NGO/admin roster view.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := utils.ParsePagination(r)

	query := h.DB.Model(&Volunteer{})
	if v := r.URL.Query().Get("status"); v != "" {
		if _, ok := validStatuses[v]; !ok {
			utils.WriteMessage(w, http.StatusBadRequest, "Status inválido")
			return
		}
		query = query.Where("status = ?", v)
	}
	if v := r.URL.Query().Get("availability"); v != "" {
		query = query.Where("availability = ?", v)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("volunteers: count failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar voluntários")
		return
	}

	var items []Volunteer
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		log.Printf("volunteers: list failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar voluntários")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"volunteers": items,
		"pagination": utils.NewPagination(total, page, limit),
	})
}

// Get returns one profile to its owner, NGOs or admins.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	volunteer, ok := h.findVolunteer(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	role := h.roleOf(userID)
	if volunteer.UserID != userID && role != "ong" && role != "admin" {
		utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Você não é o proprietário deste recurso.")
		return
	}
	utils.WriteJSON(w, http.StatusOK, volunteer)
}

// UpdateStatus approves, activates or rejects a volunteer. Going approved or
// active stamps start_date the first time.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	volunteer, ok := h.findVolunteer(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if _, ok := validStatuses[input.Status]; !ok {
		utils.WriteMessage(w, http.StatusBadRequest, "Status inválido")
		return
	}

	updates := map[string]any{"status": input.Status}
	if (input.Status == StatusApproved || input.Status == StatusActive) && volunteer.StartDate == nil {
		updates["start_date"] = time.Now()
	}
	if err := h.DB.Model(&volunteer).Updates(updates).Error; err != nil {
		log.Printf("volunteers: status update failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar status")
		return
	}

	if err := h.DB.First(&volunteer, "id = ?", volunteer.ID).Error; err != nil {
		log.Printf("volunteers: reload failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar status")
		return
	}
	utils.WriteJSON(w, http.StatusOK, volunteer)
}

// Update lets the volunteer edit their own profile fields.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	volunteer, ok := h.findVolunteer(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if volunteer.UserID != userID && h.roleOf(userID) != "admin" {
		utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Você não é o proprietário deste recurso.")
		return
	}

	var input volunteerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	updates := map[string]any{}
	if input.Availability != nil {
		availability := strings.TrimSpace(*input.Availability)
		if _, ok := validAvailabilities[availability]; !ok {
			utils.WriteMessage(w, http.StatusBadRequest, "Disponibilidade inválida")
			return
		}
		updates["availability"] = availability
	}
	if input.Skills != nil {
		updates["skills"] = strings.TrimSpace(*input.Skills)
	}
	if input.Experience != nil {
		updates["experience"] = strings.TrimSpace(*input.Experience)
	}
	if input.Motivation != nil {
		updates["motivation"] = strings.TrimSpace(*input.Motivation)
	}
	if input.HasVehicle != nil {
		updates["has_vehicle"] = *input.HasVehicle
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&volunteer).Updates(updates).Error; err != nil {
			log.Printf("volunteers: update failed: %v", err)
			utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar voluntário")
			return
		}
	}

	if err := h.DB.First(&volunteer, "id = ?", volunteer.ID).Error; err != nil {
		log.Printf("volunteers: reload failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar voluntário")
		return
	}
	utils.WriteJSON(w, http.StatusOK, volunteer)
}

// Deactivate lets a volunteer step down without deleting the profile.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	volunteer, ok := h.findVolunteer(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if volunteer.UserID != userID && h.roleOf(userID) != "admin" {
		utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Você não é o proprietário deste recurso.")
		return
	}

	if err := h.DB.Model(&volunteer).Update("status", StatusInactive).Error; err != nil {
		log.Printf("volunteers: deactivate failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao desativar voluntário")
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Cadastro de voluntário desativado")
}

// Me returns the session user's own profile with their event signups.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var volunteer Volunteer
	if err := h.DB.First(&volunteer, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteMessage(w, http.StatusNotFound, "Você ainda não está cadastrado como voluntário")
			return
		}
		log.Printf("volunteers: lookup failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao buscar voluntário")
		return
	}

	signups := []EventSignup{}
	err := h.DB.
		Table("event_volunteers").
		Select("event_volunteers.event_id, events.title, events.event_type, events.start_date, events.city, events.state, event_volunteers.created_at AS signed_up").
		Joins("JOIN events ON events.id = event_volunteers.event_id").
		Where("event_volunteers.volunteer_id = ?", volunteer.ID).
		Order("events.start_date ASC").
		Scan(&signups).Error
	if err != nil {
		log.Printf("volunteers: signups lookup failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao buscar voluntário")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"volunteer": volunteer,
		"events":    signups,
	})
}
