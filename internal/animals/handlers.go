package animals

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

const maxImagesPerAnimal = 5

type Handler struct {
	DB      *gorm.DB
	Uploads *uploads.Saver
	Roles   middleware.RoleFetcher
}

func NewHandler(db *gorm.DB, saver *uploads.Saver, roles middleware.RoleFetcher) *Handler {
	return &Handler{DB: db, Uploads: saver, Roles: roles}
}

// isOwnerOrAdmin reports whether the session user may manage the given
// listing. Admins may manage anything.
func (h *Handler) isOwnerOrAdmin(userID, resourceUserID string) bool {
	if userID == resourceUserID {
		return true
	}
	role, err := h.Roles.FindRoleByID(userID)
	if err != nil {
		return false
	}
	return role == "admin"
}

func (h *Handler) findAnimal(w http.ResponseWriter, id string) (Animal, bool) {
	var animal Animal
	if err := h.DB.First(&animal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteMessage(w, http.StatusNotFound, "Animal não encontrado")
		} else {
			log.Printf("animals: lookup failed: %v", err)
			utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao buscar animal")
		}
		return Animal{}, false
	}
	return animal, true
}

type animalInput struct {
	Name                    *string `json:"name"`
	Type                    *string `json:"type"`
	Breed                   *string `json:"breed"`
	Age                     *int    `json:"age"`
	AgeUnit                 *string `json:"ageUnit"`
	Gender                  *string `json:"gender"`
	Size                    *string `json:"size"`
	Color                   *string `json:"color"`
	Description             *string `json:"description"`
	HealthStatus            *string `json:"healthStatus"`
	IsVaccinated            *bool   `json:"isVaccinated"`
	IsNeutered              *bool   `json:"isNeutered"`
	IsSpecialNeeds          *bool   `json:"isSpecialNeeds"`
	SpecialNeedsDescription *string `json:"specialNeedsDescription"`
	Location                *string `json:"location"`
	City                    *string `json:"city"`
	State                   *string `json:"state"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// Create registers a new animal for adoption, owned by the session user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteMessage(w, http.StatusUnauthorized, "Não autorizado, faça login para acessar.")
		return
	}

	var input animalInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	required := []struct{ value, message string }{
		{str(input.Name), "O nome é obrigatório"},
		{str(input.Type), "O tipo é obrigatório"},
		{str(input.Gender), "O sexo é obrigatório"},
		{str(input.Size), "O porte é obrigatório"},
		{str(input.Description), "A descrição é obrigatória"},
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

	if _, ok := validGenders[str(input.Gender)]; !ok {
		utils.WriteMessage(w, http.StatusBadRequest, "Sexo inválido")
		return
	}
	if _, ok := validSizes[str(input.Size)]; !ok {
		utils.WriteMessage(w, http.StatusBadRequest, "Porte inválido")
		return
	}
	ageUnit := str(input.AgeUnit)
	if ageUnit == "" {
		ageUnit = "months"
	}
	if _, ok := validAgeUnits[ageUnit]; !ok {
		utils.WriteMessage(w, http.StatusBadRequest, "Unidade de idade inválida")
		return
	}

	animal := Animal{
		ID:                      uuid.NewString(),
		Name:                    str(input.Name),
		Type:                    strings.ToLower(str(input.Type)),
		Breed:                   str(input.Breed),
		Age:                     input.Age,
		AgeUnit:                 ageUnit,
		Gender:                  str(input.Gender),
		Size:                    str(input.Size),
		Color:                   str(input.Color),
		Description:             str(input.Description),
		HealthStatus:            str(input.HealthStatus),
		SpecialNeedsDescription: str(input.SpecialNeedsDescription),
		AdoptionStatus:          StatusAvailable,
		Images:                  []string{},
		UserID:                  userID,
		Location:                str(input.Location),
		City:                    str(input.City),
		CitySlug:                utils.CitySlug(str(input.City)),
		State:                   str(input.State),
	}
	if input.IsVaccinated != nil {
		animal.IsVaccinated = *input.IsVaccinated
	}
	if input.IsNeutered != nil {
		animal.IsNeutered = *input.IsNeutered
	}
	if input.IsSpecialNeeds != nil {
		animal.IsSpecialNeeds = *input.IsSpecialNeeds
	}

	if err := h.DB.Create(&animal).Error; err != nil {
		log.Printf("animals: create failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao cadastrar animal")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"animal":          animal,
		"uploadImagesUrl": "/api/animals/" + animal.ID + "/images",
	})
}

// AddImages receives up to five photos for a listing owned by the caller.
func (h *Handler) AddImages(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	animal, ok := h.findAnimal(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if !h.isOwnerOrAdmin(userID, animal.UserID) {
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
	if len(animal.Images)+len(files) > maxImagesPerAnimal {
		utils.WriteMessage(w, http.StatusBadRequest, "Máximo de 5 imagens por animal")
		return
	}

	paths, err := h.Uploads.SaveAll(files, uploads.GalleryImage, "images", "animals", "animal", maxImagesPerAnimal)
	if err != nil {
		var fieldErr *uploads.FieldError
		if errors.As(err, &fieldErr) {
			utils.WriteJSON(w, http.StatusBadRequest, map[string]any{"errors": []*uploads.FieldError{fieldErr}})
			return
		}
		log.Printf("animals: image upload failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao salvar imagens")
		return
	}

	animal.Images = append(animal.Images, paths...)
	if err := h.DB.Model(&animal).Update("images", animal.Images).Error; err != nil {
		log.Printf("animals: image update failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao salvar imagens")
		return
	}

	utils.WriteJSON(w, http.StatusOK, animal)
}

// List is the public adoption catalogue: only available animals, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := utils.ParsePagination(r)

	status := r.URL.Query().Get("status")
	if status == "" {
		status = StatusAvailable
	}
	if _, ok := validStatuses[status]; !ok {
		utils.WriteMessage(w, http.StatusBadRequest, "Status de adoção inválido")
		return
	}

	query := h.DB.Model(&Animal{}).Where("adoption_status = ?", status)
	if v := r.URL.Query().Get("type"); v != "" {
		query = query.Where("type = ?", strings.ToLower(v))
	}
	if v := r.URL.Query().Get("size"); v != "" {
		query = query.Where("size = ?", v)
	}
	if v := r.URL.Query().Get("gender"); v != "" {
		query = query.Where("gender = ?", v)
	}
	if v := r.URL.Query().Get("city"); v != "" {
		query = query.Where("city_slug = ?", utils.CitySlug(v))
	}
	if v := r.URL.Query().Get("state"); v != "" {
		query = query.Where("upper(state) = ?", strings.ToUpper(v))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("animals: count failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar animais")
		return
	}

	var items []Animal
	err := query.Preload("Owner").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&items).Error
	if err != nil {
		log.Printf("animals: list failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar animais")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"animals":    items,
		"pagination": utils.NewPagination(total, page, limit),
	})
}

// Get returns a single listing with its owner, public.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	var animal Animal
	err := h.DB.Preload("Owner").First(&animal, "id = ?", chi.URLParam(r, "id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteMessage(w, http.StatusNotFound, "Animal não encontrado")
			return
		}
		log.Printf("animals: lookup failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao buscar animal")
		return
	}
	utils.WriteJSON(w, http.StatusOK, animal)
}

// Update partially edits a listing. Only fields present in the body change.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	animal, ok := h.findAnimal(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if !h.isOwnerOrAdmin(userID, animal.UserID) {
		utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Você não é o proprietário deste recurso.")
		return
	}

	var input animalInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = str(input.Name)
	}
	if input.Type != nil {
		updates["type"] = strings.ToLower(str(input.Type))
	}
	if input.Breed != nil {
		updates["breed"] = str(input.Breed)
	}
	if input.Age != nil {
		updates["age"] = *input.Age
	}
	if input.AgeUnit != nil {
		if _, ok := validAgeUnits[str(input.AgeUnit)]; !ok {
			utils.WriteMessage(w, http.StatusBadRequest, "Unidade de idade inválida")
			return
		}
		updates["age_unit"] = str(input.AgeUnit)
	}
	if input.Gender != nil {
		if _, ok := validGenders[str(input.Gender)]; !ok {
			utils.WriteMessage(w, http.StatusBadRequest, "Sexo inválido")
			return
		}
		updates["gender"] = str(input.Gender)
	}
	if input.Size != nil {
		if _, ok := validSizes[str(input.Size)]; !ok {
			utils.WriteMessage(w, http.StatusBadRequest, "Porte inválido")
			return
		}
		updates["size"] = str(input.Size)
	}
	if input.Color != nil {
		updates["color"] = str(input.Color)
	}
	if input.Description != nil {
		updates["description"] = str(input.Description)
	}
	if input.HealthStatus != nil {
		updates["health_status"] = str(input.HealthStatus)
	}
	if input.IsVaccinated != nil {
		updates["is_vaccinated"] = *input.IsVaccinated
	}
	if input.IsNeutered != nil {
		updates["is_neutered"] = *input.IsNeutered
	}
	if input.IsSpecialNeeds != nil {
		updates["is_special_needs"] = *input.IsSpecialNeeds
	}
	if input.SpecialNeedsDescription != nil {
		updates["special_needs_description"] = str(input.SpecialNeedsDescription)
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

	if len(updates) > 0 {
		if err := h.DB.Model(&animal).Updates(updates).Error; err != nil {
			log.Printf("animals: update failed: %v", err)
			utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar animal")
			return
		}
	}

	if err := h.DB.First(&animal, "id = ?", animal.ID).Error; err != nil {
		log.Printf("animals: reload failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar animal")
		return
	}
	utils.WriteJSON(w, http.StatusOK, animal)
}

type adoptionStatusInput struct {
	AdoptionStatus string  `json:"adoptionStatus"`
	AdoptedBy      *string `json:"adoptedBy"`
}

// UpdateAdoptionStatus moves a listing through the adoption lifecycle.
// Marking as adopted requires the adopting user's id; going back to available
// clears the adoption record.
func (h *Handler) UpdateAdoptionStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	animal, ok := h.findAnimal(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if !h.isOwnerOrAdmin(userID, animal.UserID) {
		utils.WriteMessage(w, http.StatusForbidden, "Acesso negado. Você não é o proprietário deste recurso.")
		return
	}

	var input adoptionStatusInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if _, ok := validStatuses[input.AdoptionStatus]; !ok {
		utils.WriteMessage(w, http.StatusBadRequest, "Status de adoção inválido")
		return
	}

	updates := map[string]any{"adoption_status": input.AdoptionStatus}
	switch input.AdoptionStatus {
	case StatusAdopted:
		if input.AdoptedBy == nil || *input.AdoptedBy == "" {
			utils.WriteMessage(w, http.StatusBadRequest, "Informe o usuário adotante")
			return
		}
		var adopter Owner
		if err := h.DB.First(&adopter, "id = ?", *input.AdoptedBy).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.WriteMessage(w, http.StatusBadRequest, "Usuário adotante não encontrado")
				return
			}
			log.Printf("animals: adopter lookup failed: %v", err)
			utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar status")
			return
		}
		updates["adopted_by"] = *input.AdoptedBy
		updates["adopted_at"] = time.Now()
	case StatusAvailable:
		updates["adopted_by"] = nil
		updates["adopted_at"] = nil
	}

	if err := h.DB.Model(&animal).Updates(updates).Error; err != nil {
		log.Printf("animals: status update failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar status")
		return
	}

	if err := h.DB.First(&animal, "id = ?", animal.ID).Error; err != nil {
		log.Printf("animals: reload failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao atualizar status")
		return
	}
	utils.WriteJSON(w, http.StatusOK, animal)
}

// ListMine returns the session user's own listings, any status.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	page, limit, offset := utils.ParsePagination(r)

	query := h.DB.Model(&Animal{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("animals: count failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar animais")
		return
	}

	var items []Animal
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		log.Printf("animals: list failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar animais")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"animals":    items,
		"pagination": utils.NewPagination(total, page, limit),
	})
}

// ListAdopted returns the animals the session user has adopted.
func (h *Handler) ListAdopted(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	page, limit, offset := utils.ParsePagination(r)

	query := h.DB.Model(&Animal{}).
		Where("adopted_by = ? AND adoption_status = ?", userID, StatusAdopted)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("animals: count failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar animais")
		return
	}

	var items []Animal
	err := query.Preload("Owner").
		Order("adopted_at DESC").Limit(limit).Offset(offset).
		Find(&items).Error
	if err != nil {
		log.Printf("animals: list failed: %v", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Erro ao listar animais")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"animals":    items,
		"pagination": utils.NewPagination(total, page, limit),
	})
}
