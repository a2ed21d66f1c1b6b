package events

import (
	"fmt"

	"gorm.io/gorm"
)

// Init creates or updates the events and event_volunteers tables.
func Init(db *gorm.DB) error {
	if err := db.AutoMigrate(&Event{}, &EventVolunteer{}); err != nil {
		return fmt.Errorf("events: auto-migrate: %w", err)
	}
	return nil
}
