package events

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
	"github.com/BichoSolto/BS-Backend/internal/volunteers"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Handler struct {
	DB      *gorm.DB
	Uploads *uploads.Saver
	Roles   middleware.RoleFetcher
}

func NewHandler(db *gorm.DB, saver *uploads.Saver, roles middleware.RoleFetcher) *Handler {
	return &Handler{DB: db, Uploads: saver, Roles: roles}
}

func (h *Handler) isOwnerOrAdmin(userID, organizerID string) bool {
	if userID == organizerID {
		return true
	}
	role, err := h.Roles.FindRoleByID(userID)
	if err != nil {
		return false
	}
	return role == "admin"
}

func (h *Handler) findEvent(w http.ResponseWriter, id string) (Event, bool) {
	var event Event
	if err := h.DB.First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteMessage(w, http.StatusNotFound, "Evento não encontrado")
		} else {
			log.Printf("events: lookup failed: %v", err)
			utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao buscar evento")
		}
		return Event{}, false
	}
	return event, true
}

type eventInput struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	EventType       *string    `json:"eventType"`
	StartDate       *time.Time `json:"startDate"`
	EndDate         *time.Time `json:"endDate"`
	Location        *string    `json:"location"`
	City            *string    `json:"city"`
	State           *string    `json:"state"`
	MaxParticipants *int       `json:"maxParticipants"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// Create registers a new event, organized by the session NGO or admin.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var input eventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	required := []struct{ value, message string }{
		{str(input.Title), "O título é obrigatório"},
		{str(input.Description), "A descrição é obrigatória"},
		{str(input.EventType), "O tipo do evento é obrigatório"},
		{str(input.Location), "A localização é obrigatória"},
		{str(input.City), "A cidade é obrigatória"},
		{str(input.State), "O estado é obrigatório"},
	}
	for _, f := range required {
		if f.value == "" {
			utils.WriteMessage(w, http.StatusBadRequest, f.message)
			return
		}
	}
	if _, ok := validTypes[str(input.EventType)]; !ok {
		utils.WriteMessage(w, http.StatusBadRequest, "Tipo de evento inválido")
		return
	}
	if input.StartDate == nil {
		utils.WriteMessage(w, http.StatusBadRequest, "A data de início é obrigatória")
		return
	}
	if input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		utils.WriteMessage(w, http.StatusBadRequest, "A data de término não pode ser anterior ao início")
		return
	}
	if input.MaxParticipants != nil && *input.MaxParticipants < 1 {
		utils.WriteMessage(w, http.StatusBadRequest, "O limite de participantes deve ser pelo menos 1")
		return
	}

	event := Event{
		ID:              uuid.NewString(),
		Title:           str(input.Title),
		Description:     str(input.Description),
		EventType:       str(input.EventType),
		StartDate:       *input.StartDate,
		EndDate:         input.EndDate,
		Location:        str(input.Location),
		City:            str(input.City),
		CitySlug:        utils.CitySlug(str(input.City)),
		State:           str(input.State),
		MaxParticipants: input.MaxParticipants,
		IsActive:        true,
		OrganizerID:     userID,
	}

	if err := h.DB.Create(&event).Error; err != nil {
		log.Printf("events: create failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao criar evento")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"event":          event,
		"uploadImageUrl": "/api/events/" + event.ID + "/image",
	})
}

// AddImage sets the event banner, replacing any previous one.
func (h *Handler) AddImage(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	event, ok := h.findEvent(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if !h.isOwnerOrAdmin(userID, event.OrganizerID) {
		utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Você não é o proprietário deste recurso.")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Envie a imagem como multipart/form-data")
		return
	}
	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		utils.WriteMessage(w, http.StatusBadRequest, "Nenhuma imagem enviada")
		return
	}

	path, err := h.Uploads.Save(files[0], uploads.GalleryImage, "image", "events", "event")
	if err != nil {
		var fieldErr *uploads.FieldError
		if errors.As(err, &fieldErr) {
			utils.WriteJSON(w, http.StatusBadRequest, map[string]any{"errors": []*uploads.FieldError{fieldErr}})
			return
		}
		log.Printf("events: image upload failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao salvar imagem")
		return
	}

	old := event.ImagePath
	if err := h.DB.Model(&event).Update("image_path", path).Error; err != nil {
		log.Printf("events: image update failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao salvar imagem")
		return
	}
	if old != "" {
		h.Uploads.Delete(old)
	}

	event.ImagePath = path
	utils.WriteJSON(w, http.StatusOK, event)
}

// List shows upcoming active events, soonest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := utils.ParsePagination(r)

	query := h.DB.Model(&Event{}).Where("is_active = ?", true)
	if v := r.URL.Query().Get("eventType"); v != "" {
		query = query.Where("event_type = ?", v)
	}
	if v := r.URL.Query().Get("city"); v != "" {
		query = query.Where("city_slug = ?", utils.CitySlug(v))
	}
	if v := r.URL.Query().Get("state"); v != "" {
		query = query.Where("upper(state) = ?", strings.ToUpper(v))
	}
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			query = query.Where("start_date >= ?", t)
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			query = query.Where("start_date <= ?", t)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("events: count failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar eventos")
		return
	}

	var items []Event
	err := query.Order("start_date ASC").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		log.Printf("events: list failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar eventos")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"events":     items,
		"pagination": utils.NewPagination(total, page, limit),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	event, ok := h.findEvent(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, event)
}

// Update partially edits an event.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	event, ok := h.findEvent(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if !h.isOwnerOrAdmin(userID, event.OrganizerID) {
		utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Você não é o proprietário deste recurso.")
		return
	}

	var input eventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = str(input.Title)
	}
	if input.Description != nil {
		updates["description"] = str(input.Description)
	}
	if input.EventType != nil {
		if _, ok := validTypes[str(input.EventType)]; !ok {
			utils.WriteMessage(w, http.StatusBadRequest, "Tipo de evento inválido")
			return
		}
		updates["event_type"] = str(input.EventType)
	}
	if input.StartDate != nil {
		updates["start_date"] = *input.StartDate
	}
	if input.EndDate != nil {
		updates["end_date"] = *input.EndDate
	}
	if input.Location != nil {
		updates["location"] = str(input.Location)
	}
	if input.City != nil {
		updates["city"] = str(input.City)
		updates["city_slug"] = utils.CitySlug(str(input.City))
	}
	if input.State != nil {
		updates["state"] = str(input.State)
	}
	if input.MaxParticipants != nil {
		if *input.MaxParticipants < 1 {
			utils.WriteMessage(w, http.StatusBadRequest, "O limite de participantes deve ser pelo menos 1")
			return
		}
		updates["max_participants"] = *input.MaxParticipants
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&event).Updates(updates).Error; err != nil {
			log.Printf("events: update failed: %v", err)
			utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar evento")
			return
		}
	}

	if err := h.DB.First(&event, "id = ?", event.ID).Error; err != nil {
		log.Printf("events: reload failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar evento")
		return
	}
	utils.WriteJSON(w, http.StatusOK, event)
}

// Cancel deactivates an event without removing its record.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	event, ok := h.findEvent(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if !h.isOwnerOrAdmin(userID, event.OrganizerID) {
		utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Você não é o proprietário deste recurso.")
		return
	}

	if err := h.DB.Model(&event).Update("is_active", false).Error; err != nil {
		log.Printf("events: cancel failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao cancelar evento")
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Evento cancelado")
}

// ListMine returns the events organized by the session user.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	page, limit, offset := utils.ParsePagination(r)

	query := h.DB.Model(&Event{}).Where("organizer_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("events: count failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar eventos")
		return
	}

	var items []Event
	err := query.Order("start_date ASC").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		log.Printf("events: list failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar eventos")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"events":     items,
		"pagination": utils.NewPagination(total, page, limit),
	})
}

// Signup enrolls the session user as a volunteer for the event. A volunteer
// profile is created on the spot (pending approval) when the user has none.
// The whole thing runs in one transaction so the participant counter stays
// honest under concurrent signups.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	event, ok := h.findEvent(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if !event.IsActive {
		utils.WriteMessage(w, http.StatusBadRequest, "Este evento foi cancelado")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var current Event
		if err := tx.Clauses(lockForUpdate()).First(&current, "id = ?", event.ID).Error; err != nil {
			return err
		}
		if current.MaxParticipants != nil && current.CurrentParticipants >= *current.MaxParticipants {
			return errEventFull
		}

		var volunteer volunteers.Volunteer
		err := tx.First(&volunteer, "user_id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			volunteer = volunteers.Volunteer{
				ID:           uuid.NewString(),
				UserID:       userID,
				Availability: "flexible",
				Documents:    []string{},
				Status:       volunteers.StatusPending,
			}
			if err := tx.Create(&volunteer).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var count int64
		err = tx.Model(&EventVolunteer{}).
			Where("event_id = ? AND volunteer_id = ?", current.ID, volunteer.ID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return errAlreadySignedUp
		}

		if err := tx.Create(&EventVolunteer{EventID: current.ID, VolunteerID: volunteer.ID}).Error; err != nil {
			return err
		}
		return tx.Model(&current).
			Update("current_participants", gorm.Expr("current_participants + 1")).Error
	})
	switch {
	case errors.Is(err, errEventFull):
		utils.WriteMessage(w, http.StatusBadRequest, "Evento lotado")
		return
	case errors.Is(err, errAlreadySignedUp):
		utils.WriteMessage(w, http.StatusBadRequest, "Você já está inscrito neste evento")
		return
	case err != nil:
		log.Printf("events: signup failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao se inscrever no evento")
		return
	}

	utils.WriteMessage(w, http.StatusCreated, "Inscrição realizada com sucesso")
}

// Roster lists the volunteers signed up for an event, for its organizer.
func (h *Handler) Roster(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	event, ok := h.findEvent(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if !h.isOwnerOrAdmin(userID, event.OrganizerID) {
		utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Você não é o proprietário deste recurso.")
		return
	}

	var roster []volunteers.Volunteer
	err := h.DB.Model(&volunteers.Volunteer{}).
		Joins("JOIN event_volunteers ON event_volunteers.volunteer_id = volunteers.id").
		Where("event_volunteers.event_id = ?", event.ID).
		Order("event_volunteers.created_at ASC").
		Find(&roster).Error
	if err != nil {
		log.Printf("events: roster lookup failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar voluntários do evento")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"event":      event.ID,
		"volunteers": roster,
	})
}
