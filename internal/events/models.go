package events

import (
	"errors"
	"time"

	"gorm.io/gorm/clause"
)

// Signup failures surfaced to the user as 400s.
var (
	errEventFull       = errors.New("event full")
	errAlreadySignedUp = errors.New("already signed up")
)

// lockForUpdate row-locks the event during signup so the participant count
// cannot race past the capacity.
func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

var validTypes = map[string]struct{}{
	"adoption": {}, "vaccination": {}, "neutering": {},
	"fundraising": {}, "education": {}, "other": {},
}

// Event is an NGO-organized happening: adoption fairs, vaccination drives,
// fundraisers. Cancelled events stay in the table with IsActive false.
type Event struct {
	ID                  string     `gorm:"primaryKey" json:"id"`
	Title               string     `gorm:"not null" json:"title"`
	Description         string     `gorm:"not null" json:"description"`
	EventType           string     `gorm:"not null;index" json:"eventType"`
	StartDate           time.Time  `gorm:"not null;index" json:"startDate"`
	EndDate             *time.Time `json:"endDate"`
	Location            string     `gorm:"not null" json:"location"`
	City                string     `gorm:"not null" json:"city"`
	CitySlug            string     `gorm:"index" json:"-"`
	State               string     `gorm:"not null" json:"state"`
	MaxParticipants     *int       `json:"maxParticipants"`
	CurrentParticipants int        `gorm:"default:0" json:"currentParticipants"`
	ImagePath           string     `json:"imageUrl"`
	IsActive            bool       `gorm:"default:true;index" json:"isActive"`
	OrganizerID         string     `gorm:"not null;index" json:"organizerId"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func (Event) TableName() string { return "events" }

// EventVolunteer links a volunteer profile to an event they signed up for.
type EventVolunteer struct {
	EventID     string    `gorm:"primaryKey" json:"eventId"`
	VolunteerID string    `gorm:"primaryKey" json:"volunteerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (EventVolunteer) TableName() string { return "event_volunteers" }
