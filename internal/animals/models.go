package animals

import (
	"time"

	"github.com/lib/pq"
)

// Adoption statuses.
const (
	StatusAvailable = "available"
	StatusPending   = "pending"
	StatusAdopted   = "adopted"
)

var (
	validGenders  = map[string]struct{}{"male": {}, "female": {}, "unknown": {}}
	validSizes    = map[string]struct{}{"small": {}, "medium": {}, "large": {}, "extra_large": {}}
	validAgeUnits = map[string]struct{}{"days": {}, "months": {}, "years": {}}
	validStatuses = map[string]struct{}{StatusAvailable: {}, StatusPending: {}, StatusAdopted: {}}
)

type Animal struct {
	ID                      string         `gorm:"primaryKey" json:"id"`
	Name                    string         `gorm:"not null" json:"name"`
	Type                    string         `gorm:"not null" json:"type"`
	Breed                   string         `json:"breed"`
	Age                     *int           `json:"age"`
	AgeUnit                 string         `gorm:"default:'months'" json:"ageUnit"`
	Gender                  string         `gorm:"not null" json:"gender"`
	Size                    string         `gorm:"not null" json:"size"`
	Color                   string         `json:"color"`
	Description             string         `gorm:"not null" json:"description"`
	HealthStatus            string         `json:"healthStatus"`
	IsVaccinated            bool           `gorm:"default:false" json:"isVaccinated"`
	IsNeutered              bool           `gorm:"default:false" json:"isNeutered"`
	IsSpecialNeeds          bool           `gorm:"default:false" json:"isSpecialNeeds"`
	SpecialNeedsDescription string         `json:"specialNeedsDescription"`
	AdoptionStatus          string         `gorm:"default:'available';index" json:"adoptionStatus"`
	Images                  pq.StringArray `gorm:"type:text[]" json:"images"`
	UserID                  string         `gorm:"not null;index" json:"userId"`
	AdoptedBy               *string        `json:"adoptedBy"`
	AdoptedAt               *time.Time     `json:"adoptedAt"`
	Location                string         `gorm:"not null" json:"location"`
	City                    string         `gorm:"not null" json:"city"`
	CitySlug                string         `gorm:"index" json:"-"`
	State                   string         `gorm:"not null" json:"state"`
	CreatedAt               time.Time      `json:"createdAt"`
	UpdatedAt               time.Time      `json:"updatedAt"`

	Owner *Owner `gorm:"foreignKey:UserID;references:ID" json:"owner,omitempty"`
}

func (Animal) TableName() string { return "animals" }

// Owner is a read-only projection of the listing user, embedded in list and
// detail responses.
type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}

func (Owner) TableName() string { return "users" }
