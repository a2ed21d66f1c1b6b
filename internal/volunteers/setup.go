package volunteers

import (
	"fmt"

	"gorm.io/gorm"
)

// Init creates or updates the volunteers table.
func Init(db *gorm.DB) error {
	if err := db.AutoMigrate(&Volunteer{}); err != nil {
		return fmt.Errorf("volunteers: auto-migrate: %w", err)
	}
	return nil
}
