package volunteers

import (
	"time"

	"github.com/lib/pq"
)

// Volunteer statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusRejected = "rejected"
)

var (
	validStatuses = map[string]struct{}{
		StatusPending: {}, StatusApproved: {}, StatusActive: {}, StatusInactive: {}, StatusRejected: {},
	}
	validAvailabilities = map[string]struct{}{
		"weekdays": {}, "weekends": {}, "evenings": {}, "flexible": {},
	}
)

// Volunteer is a user's volunteering profile. One per user.
type Volunteer struct {
	ID           string         `gorm:"primaryKey" json:"id"`
	UserID       string         `gorm:"not null;uniqueIndex" json:"userId"`
	Availability string         `gorm:"not null" json:"availability"`
	Skills       string         `json:"skills"`
	Experience   string         `json:"experience"`
	Motivation   string         `json:"motivation"`
	HasVehicle   bool           `gorm:"default:false" json:"hasVehicle"`
	Documents    pq.StringArray `gorm:"type:text[]" json:"documents"`
	Status       string         `gorm:"default:'pending';index" json:"status"`
	StartDate    *time.Time     `json:"startDate"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (Volunteer) TableName() string { return "volunteers" }

// EventSignup is a read-only projection joining event_volunteers with the
// events table, returned on the volunteer's own profile.
type EventSignup struct {
	EventID   string    `json:"eventId"`
	Title     string    `json:"title"`
	EventType string    `json:"eventType"`
	StartDate time.Time `json:"startDate"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	SignedUp  time.Time `json:"signedUpAt"`
}
