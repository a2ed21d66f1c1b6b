package reports

import (
	"time"

	"github.com/lib/pq"
)

// Report statuses.
const (
	StatusPending       = "pending"
	StatusInvestigating = "investigating"
	StatusResolved      = "resolved"
	StatusDismissed     = "dismissed"
)

var (
	validStatuses = map[string]struct{}{
		StatusPending: {}, StatusInvestigating: {}, StatusResolved: {}, StatusDismissed: {},
	}
	validUrgencies = map[string]struct{}{
		"low": {}, "medium": {}, "high": {}, "critical": {},
	}
)

// Report is an abuse or neglect report. ReporterID is null for anonymous
// reports; contact fields let an anonymous reporter still be reached.
type Report struct {
	ID           string         `gorm:"primaryKey" json:"id"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `gorm:"not null" json:"description"`
	AnimalType   string         `json:"animalType"`
	UrgencyLevel string         `gorm:"default:'medium';index" json:"urgencyLevel"`
	Status       string         `gorm:"default:'pending';index" json:"status"`
	Images       pq.StringArray `gorm:"type:text[]" json:"images"`
	Location     string         `gorm:"not null" json:"location"`
	City         string         `json:"city"`
	State        string         `json:"state"`
	ContactName  string         `json:"contactName"`
	ContactPhone string         `json:"contactPhone"`
	ReporterID   *string        `gorm:"index" json:"reporterId"`
	AssignedTo   *string        `gorm:"index" json:"assignedTo"`
	ResolvedAt   *time.Time     `json:"resolvedAt"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (Report) TableName() string { return "reports" }

// assignee is a read-only projection used to validate assignment targets.
type assignee struct {
	ID   string
	Role string
}

func (assignee) TableName() string { return "users" }
