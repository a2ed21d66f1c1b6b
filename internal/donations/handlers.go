package donations

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

func (h *Handler) findDonation(w http.ResponseWriter, id string) (Donation, bool) {
	var donation Donation
	if err := h.DB.First(&donation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteMessage(w, http.StatusNotFound, "Doação não encontrada")
		} else {
			log.Printf("donations: lookup failed: %v", err)
			utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao buscar doação")
		}
		return Donation{}, false
	}
	return donation, true
}

// checkRecipient validates that the target user exists and is an NGO.
func (h *Handler) checkRecipient(w http.ResponseWriter, recipientID string) bool {
	if recipientID == "" {
		utils.WriteMessage(w, http.StatusBadRequest, "Informe o destinatário da doação")
		return false
	}
	var target recipient
	if err := h.DB.First(&target, "id = ?", recipientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteMessage(w, http.StatusBadRequest, "Destinatário inválido")
			return false
		}
		log.Printf("donations: recipient lookup failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao registrar doação")
		return false
	}
	if target.Role != "ong" {
		utils.WriteMessage(w, http.StatusBadRequest, "Destinatário inválido")
		return false
	}
	return true
}

// checkCampaign validates an optional campaign id against the events table.
func (h *Handler) checkCampaign(w http.ResponseWriter, campaignID *string) bool {
	if campaignID == nil || *campaignID == "" {
		return true
	}
	var c campaign
	if err := h.DB.First(&c, "id = ?", *campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteMessage(w, http.StatusBadRequest, "Campanha não encontrada")
			return false
		}
		log.Printf("donations: campaign lookup failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao registrar doação")
		return false
	}
	return true
}

type financialInput struct {
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	RecipientID   string  `json:"recipientId"`
	CampaignID    *string `json:"campaignId"`
	Description   string  `json:"description"`
	IsAnonymous   bool    `json:"isAnonymous"`
}

// CreateFinancial registers a money donation to an NGO.
func (h *Handler) CreateFinancial(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var input financialInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	if input.Amount <= 0 {
		utils.WriteMessage(w, http.StatusBadRequest, "O valor da doação deve ser maior que zero")
		return
	}
	if _, ok := validPaymentMethods[input.PaymentMethod]; !ok {
		utils.WriteMessage(w, http.StatusBadRequest, "Forma de pagamento inválida")
		return
	}
	if !h.checkRecipient(w, input.RecipientID) {
		return
	}
	if !h.checkCampaign(w, input.CampaignID) {
		return
	}

	donation := Donation{
		ID:            uuid.NewString(),
		Type:          TypeFinancial,
		RecipientID:   input.RecipientID,
		CampaignID:    input.CampaignID,
		Amount:        input.Amount,
		PaymentMethod: input.PaymentMethod,
		Description:   strings.TrimSpace(input.Description),
		IsAnonymous:   input.IsAnonymous,
		Status:        StatusPending,
	}
	if !input.IsAnonymous {
		donation.DonorID = &userID
	}

	if err := h.DB.Create(&donation).Error; err != nil {
		log.Printf("donations: create failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao registrar doação")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"donation":         donation,
		"uploadReceiptUrl": "/api/donations/" + donation.ID + "/receipt",
	})
}

type itemInput struct {
	ItemName    string  `json:"itemName"`
	Quantity    int     `json:"quantity"`
	Category    string  `json:"category"`
	RecipientID string  `json:"recipientId"`
	CampaignID  *string `json:"campaignId"`
	Description string  `json:"description"`
	IsAnonymous bool    `json:"isAnonymous"`
}

// CreateItem registers a goods donation (food, medicine, supplies).
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var input itemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	if strings.TrimSpace(input.ItemName) == "" {
		utils.WriteMessage(w, http.StatusBadRequest, "O nome do item é obrigatório")
		return
	}
	if input.Quantity < 1 {
		utils.WriteMessage(w, http.StatusBadRequest, "A quantidade deve ser pelo menos 1")
		return
	}
	if _, ok := validCategories[input.Category]; !ok {
		utils.WriteMessage(w, http.StatusBadRequest, "Categoria inválida")
		return
	}
	if !h.checkRecipient(w, input.RecipientID) {
		return
	}
	if !h.checkCampaign(w, input.CampaignID) {
		return
	}

	donation := Donation{
		ID:          uuid.NewString(),
		Type:        TypeItem,
		RecipientID: input.RecipientID,
		CampaignID:  input.CampaignID,
		ItemName:    strings.TrimSpace(input.ItemName),
		Quantity:    input.Quantity,
		Category:    input.Category,
		Description: strings.TrimSpace(input.Description),
		IsAnonymous: input.IsAnonymous,
		Status:      StatusPending,
	}
	if !input.IsAnonymous {
		donation.DonorID = &userID
	}

	if err := h.DB.Create(&donation).Error; err != nil {
		log.Printf("donations: create failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao registrar doação")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, donation)
}

// UploadReceipt attaches proof of payment. Only the donor or an admin may do
// it; a replaced receipt file is removed best-effort.
func (h *Handler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	donation, ok := h.findDonation(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	isDonor := donation.DonorID != nil && *donation.DonorID == userID
	if !isDonor && h.roleOf(userID) != "admin" {
		utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Você não é o proprietário deste recurso.")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Envie o comprovante como multipart/form-data")
		return
	}
	files := r.MultipartForm.File["receipt"]
	if len(files) == 0 {
		utils.WriteMessage(w, http.StatusBadRequest, "Nenhum comprovante enviado")
		return
	}

	path, err := h.Uploads.Save(files[0], uploads.Document, "receipt", "donations", "receipt")
	if err != nil {
		var fieldErr *uploads.FieldError
		if errors.As(err, &fieldErr) {
			utils.WriteJSON(w, http.StatusBadRequest, map[string]any{"errors": []*uploads.FieldError{fieldErr}})
			return
		}
		log.Printf("donations: receipt upload failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao salvar comprovante")
		return
	}

	old := donation.ReceiptPath
	if err := h.DB.Model(&donation).Update("receipt_path", path).Error; err != nil {
		log.Printf("donations: receipt update failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao salvar comprovante")
		return
	}
	if old != "" {
		h.Uploads.Delete(old)
	}

	donation.ReceiptPath = path
	utils.WriteJSON(w, http.StatusOK, donation)
}

// List is the back-office view. NGOs only ever see donations addressed to
// them; admins see everything.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	page, limit, offset := utils.ParsePagination(r)

	query := h.DB.Model(&Donation{})
	if h.roleOf(userID) == "ong" {
		query = query.Where("recipient_id = ?", userID)
	}
	if v := r.URL.Query().Get("status"); v != "" {
		if _, ok := validStatuses[v]; !ok {
			utils.WriteMessage(w, http.StatusBadRequest, "Status inválido")
			return
		}
		query = query.Where("status = ?", v)
	}
	if v := r.URL.Query().Get("type"); v != "" {
		query = query.Where("type = ?", v)
	}

	h.writeList(w, query, page, limit, offset)
}

// Get returns one donation to the parties involved: donor, recipient or
// admin.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	donation, ok := h.findDonation(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	isDonor := donation.DonorID != nil && *donation.DonorID == userID
	if !isDonor && donation.RecipientID != userID && h.roleOf(userID) != "admin" {
		utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Você não é o proprietário deste recurso.")
		return
	}
	utils.WriteJSON(w, http.StatusOK, donation)
}

// UpdateStatus lets the receiving NGO (or an admin) walk a donation through
// pending → confirmed → delivered, or cancel it.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	donation, ok := h.findDonation(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if donation.RecipientID != userID && h.roleOf(userID) != "admin" {
		utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Você não é o proprietário deste recurso.")
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
	if input.Status == StatusConfirmed && donation.ConfirmedAt == nil {
		updates["confirmed_at"] = time.Now()
	}
	if err := h.DB.Model(&donation).Updates(updates).Error; err != nil {
		log.Printf("donations: status update failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar status")
		return
	}

	if err := h.DB.First(&donation, "id = ?", donation.ID).Error; err != nil {
		log.Printf("donations: reload failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar status")
		return
	}
	utils.WriteJSON(w, http.StatusOK, donation)
}

// ListMine returns the session user's own donations.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	page, limit, offset := utils.ParsePagination(r)
	h.writeList(w, h.DB.Model(&Donation{}).Where("donor_id = ?", userID), page, limit, offset)
}

// ListForNGO returns donations addressed to the session NGO.
func (h *Handler) ListForNGO(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	page, limit, offset := utils.ParsePagination(r)

	query := h.DB.Model(&Donation{}).Where("recipient_id = ?", userID)
	if v := r.URL.Query().Get("status"); v != "" {
		if _, ok := validStatuses[v]; !ok {
			utils.WriteMessage(w, http.StatusBadRequest, "Status inválido")
			return
		}
		query = query.Where("status = ?", v)
	}
	h.writeList(w, query, page, limit, offset)
}

func (h *Handler) writeList(w http.ResponseWriter, query *gorm.DB, page, limit, offset int) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("donations: count failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar doações")
		return
	}

	var items []Donation
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		log.Printf("donations: list failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar doações")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"donations":  items,
		"pagination": utils.NewPagination(total, page, limit),
	})
}
