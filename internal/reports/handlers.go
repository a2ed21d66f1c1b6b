package reports

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

const maxImagesPerReport = 5

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

func (h *Handler) findReport(w http.ResponseWriter, id string) (Report, bool) {
	var report Report
	if err := h.DB.First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteMessage(w, http.StatusNotFound, "Denúncia não encontrada")
		} else {
			log.Printf("reports: lookup failed: %v", err)
			utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao buscar denúncia")
		}
		return Report{}, false
	}
	return report, true
}

type reportInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	AnimalType   string `json:"animalType"`
	UrgencyLevel string `json:"urgencyLevel"`
	Location     string `json:"location"`
	City         string `json:"city"`
	State        string `json:"state"`
	ContactName  string `json:"contactName"`
	ContactPhone string `json:"contactPhone"`
}

// Create files a new report. Works without a session: anonymous reports are
// stored with a null reporter.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input reportInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	if strings.TrimSpace(input.Title) == "" {
		utils.WriteMessage(w, http.StatusBadRequest, "O título é obrigatório")
		return
	}
	if strings.TrimSpace(input.Description) == "" {
		utils.WriteMessage(w, http.StatusBadRequest, "A descrição é obrigatória")
		return
	}
	if strings.TrimSpace(input.Location) == "" {
		utils.WriteMessage(w, http.StatusBadRequest, "A localização é obrigatória")
		return
	}
	urgency := input.UrgencyLevel
	if urgency == "" {
		urgency = "medium"
	}
	if _, ok := validUrgencies[urgency]; !ok {
		utils.WriteMessage(w, http.StatusBadRequest, "Nível de urgência inválido")
		return
	}

	report := Report{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		AnimalType:   strings.ToLower(strings.TrimSpace(input.AnimalType)),
		UrgencyLevel: urgency,
		Status:       StatusPending,
		Images:       []string{},
		Location:     strings.TrimSpace(input.Location),
		City:         strings.TrimSpace(input.City),
		State:        strings.TrimSpace(input.State),
		ContactName:  strings.TrimSpace(input.ContactName),
		ContactPhone: strings.TrimSpace(input.ContactPhone),
	}
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		report.ReporterID = &userID
	}

	if err := h.DB.Create(&report).Error; err != nil {
		log.Printf("reports: create failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao registrar denúncia")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"report":          report,
		"uploadImagesUrl": "/api/reports/" + report.ID + "/images",
	})
}

// AddImages attaches evidence photos. The reporter may add to their own
// report; NGOs and admins may add to any.
func (h *Handler) AddImages(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	report, ok := h.findReport(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	role := h.roleOf(userID)
	isReporter := report.ReporterID != nil && *report.ReporterID == userID
	if !isReporter && role != "ong" && role != "admin" {
		utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Você não é o proprietário deste recurso.")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Envie as imagens como multipart/form-data")
		return
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		utils.WriteMessage(w, http.StatusBadRequest, "Nenhuma imagem enviada")
		return
	}
	if len(report.Images)+len(files) > maxImagesPerReport {
		utils.WriteMessage(w, http.StatusBadRequest, "Máximo de 5 imagens por denúncia")
		return
	}

	paths, err := h.Uploads.SaveAll(files, uploads.GalleryImage, "images", "reports", "report", maxImagesPerReport)
	if err != nil {
		var fieldErr *uploads.FieldError
		if errors.As(err, &fieldErr) {
			utils.WriteJSON(w, http.StatusBadRequest, map[string]any{"errors": []*uploads.FieldError{fieldErr}})
			return
		}
		log.Printf("reports: image upload failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao salvar imagens")
		return
	}

	report.Images = append(report.Images, paths...)
	if err := h.DB.Model(&report).Update("images", report.Images).Error; err != nil {
		log.Printf("reports: image update failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao salvar imagens")
		return
	}

	utils.WriteJSON(w, http.StatusOK, report)
}

// List is public so the community can track open cases.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := utils.ParsePagination(r)

	query := h.DB.Model(&Report{})
	if v := r.URL.Query().Get("status"); v != "" {
		if _, ok := validStatuses[v]; !ok {
			utils.WriteMessage(w, http.StatusBadRequest, "Status inválido")
			return
		}
		query = query.Where("status = ?", v)
	}
	if v := r.URL.Query().Get("urgencyLevel"); v != "" {
		query = query.Where("urgency_level = ?", v)
	}
	if v := r.URL.Query().Get("animalType"); v != "" {
		query = query.Where("animal_type = ?", strings.ToLower(v))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("reports: count failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar denúncias")
		return
	}

	var items []Report
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		log.Printf("reports: list failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar denúncias")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"reports":    items,
		"pagination": utils.NewPagination(total, page, limit),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	report, ok := h.findReport(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}

type statusInput struct {
	Status string `json:"status"`
}

// UpdateStatus moves a report through the investigation lifecycle. Resolving
// stamps resolved_at, and an unassigned report is claimed by the caller.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	report, ok := h.findReport(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var input statusInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if _, ok := validStatuses[input.Status]; !ok {
		utils.WriteMessage(w, http.StatusBadRequest, "Status inválido")
		return
	}

	updates := map[string]any{"status": input.Status}
	if input.Status == StatusResolved {
		updates["resolved_at"] = time.Now()
	}
	if report.AssignedTo == nil {
		updates["assigned_to"] = userID
	}

	if err := h.DB.Model(&report).Updates(updates).Error; err != nil {
		log.Printf("reports: status update failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar status")
		return
	}

	if err := h.DB.First(&report, "id = ?", report.ID).Error; err != nil {
		log.Printf("reports: reload failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar status")
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}

type assignInput struct {
	AssignedTo string `json:"assignedTo"`
}

// Assign hands a report to an NGO or admin user for follow-up.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	report, ok := h.findReport(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var input assignInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if input.AssignedTo == "" {
		utils.WriteMessage(w, http.StatusBadRequest, "Informe o responsável pela denúncia")
		return
	}

	var target assignee
	if err := h.DB.First(&target, "id = ?", input.AssignedTo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteMessage(w, http.StatusBadRequest, "Responsável não encontrado")
			return
		}
		log.Printf("reports: assignee lookup failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atribuir denúncia")
		return
	}
	if target.Role != "ong" && target.Role != "admin" {
		utils.WriteMessage(w, http.StatusBadRequest, "O responsável deve ser uma ONG ou administrador")
		return
	}

	updates := map[string]any{"assigned_to": input.AssignedTo}
	if report.Status == StatusPending {
		updates["status"] = StatusInvestigating
	}
	if err := h.DB.Model(&report).Updates(updates).Error; err != nil {
		log.Printf("reports: assign failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atribuir denúncia")
		return
	}

	if err := h.DB.First(&report, "id = ?", report.ID).Error; err != nil {
		log.Printf("reports: reload failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atribuir denúncia")
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}

// ListMine returns the reports filed by the session user.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	h.listWhere(w, r, "reporter_id = ?", userID)
}

// ListAssigned returns the reports assigned to the session user.
func (h *Handler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	h.listWhere(w, r, "assigned_to = ?", userID)
}

func (h *Handler) listWhere(w http.ResponseWriter, r *http.Request, cond string, args ...any) {
	page, limit, offset := utils.ParsePagination(r)
	query := h.DB.Model(&Report{}).Where(cond, args...)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("reports: count failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar denúncias")
		return
	}

	var items []Report
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		log.Printf("reports: list failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar denúncias")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"reports":    items,
		"pagination": utils.NewPagination(total, page, limit),
	})
}
